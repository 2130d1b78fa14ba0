package seed

import (
	"github.com/johnwards/treeseed/internal/domain"
)

// MaxManyTargets bounds the number of targets of a multi-valued relation.
const MaxManyTargets = 3

// Targets returns the 1-based target indices picked for source index from a
// target set of size n. A single-valued relation picks ((index-1) mod n)+1; a
// multi-valued one picks that index and the following ones, wrapping around,
// for min(MaxManyTargets, n) entries. n <= 0 yields no targets.
func Targets(index, n int, cardinality string) []int {
	if n <= 0 || index < 1 {
		return nil
	}
	count := 1
	if cardinality == domain.CardinalityMany {
		count = min(MaxManyTargets, n)
	}
	out := make([]int, 0, count)
	for k := 0; k < count; k++ {
		out = append(out, (index+k-1)%n+1)
	}
	return out
}

// Link is a relation assignment resolved against a registry.
type Link struct {
	Field   string
	Target  string
	Indices []int
	Objects []*domain.Object
}

// Plan resolves the relations of instance index of class against reg. A
// relation is left out when the class has no such relation field, when the
// field does not accept the target class, when the target class has no
// instances, or when none of the picked indices exist. A single-valued field
// never receives more than one target.
func Plan(class *domain.Class, st Strategy, index int, reg *Registry) []Link {
	var links []Link
	for _, rel := range st.Relations {
		f, ok := class.Field(rel.Field)
		if !ok || !f.IsRelation() || !f.AllowsTarget(rel.Target) {
			continue
		}
		n := reg.Len(rel.Target)
		if n == 0 {
			continue
		}
		cardinality := rel.Cardinality
		if f.Cardinality == domain.CardinalityOne {
			cardinality = domain.CardinalityOne
		}
		link := Link{Field: rel.Field, Target: rel.Target}
		for _, i := range Targets(index, n, cardinality) {
			obj, ok := reg.Get(rel.Target, i)
			if !ok {
				continue
			}
			link.Indices = append(link.Indices, i)
			link.Objects = append(link.Objects, obj)
		}
		if len(link.Objects) > 0 {
			links = append(links, link)
		}
	}
	return links
}

// Wire assigns the planned relations to obj and returns them. It reads only
// the registry.
func Wire(obj *domain.Object, class *domain.Class, st Strategy, index int, reg *Registry) []Link {
	links := Plan(class, st, index, reg)
	for _, l := range links {
		obj.SetRelation(l.Field, l.Objects...)
	}
	return links
}
