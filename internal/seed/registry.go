package seed

import (
	"sort"

	"github.com/johnwards/treeseed/internal/domain"
)

// Registry maps class names to the instances created for them during one run,
// keyed by instance index. Pass 1 fills it; pass 2 only reads it. Indices whose
// instance failed to persist are absent.
type Registry struct {
	byClass map[string]map[int]*domain.Object
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byClass: make(map[string]map[int]*domain.Object)}
}

// Add records the instance created for class at index.
func (r *Registry) Add(class string, index int, obj *domain.Object) {
	m, ok := r.byClass[class]
	if !ok {
		m = make(map[int]*domain.Object)
		r.byClass[class] = m
	}
	m[index] = obj
}

// Get returns the instance of class at index.
func (r *Registry) Get(class string, index int) (*domain.Object, bool) {
	obj, ok := r.byClass[class][index]
	return obj, ok
}

// Len returns how many instances of class were created.
func (r *Registry) Len(class string) int {
	return len(r.byClass[class])
}

// Classes returns the class names with at least one instance, sorted.
func (r *Registry) Classes() []string {
	names := make([]string, 0, len(r.byClass))
	for name, m := range r.byClass {
		if len(m) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Indices returns the created indices of class in ascending order.
func (r *Registry) Indices(class string) []int {
	m := r.byClass[class]
	out := make([]int, 0, len(m))
	for i := range m {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
