package seed

import (
	"fmt"
	"time"

	"github.com/johnwards/treeseed/internal/domain"
)

// Assignments returns the scalar assignments strategy produces for index that
// class can hold. Fields the class does not declare are dropped, and values are
// converted to the declared data type where a lossless conversion exists.
func Assignments(class *domain.Class, st Strategy, index int, epoch time.Time) []Assignment {
	if st.Populate == nil {
		return nil
	}
	var out []Assignment
	for _, a := range st.Populate(index, epoch) {
		f, ok := class.Field(a.Field)
		if !ok || f.IsRelation() {
			continue
		}
		v, ok := coerce(f.DataType, a.Value)
		if !ok {
			continue
		}
		out = append(out, Assignment{Field: a.Field, Value: v})
	}
	return out
}

// Populate sets the scalar values of obj for instance index. It never touches
// relations and performs no store access.
func Populate(obj *domain.Object, class *domain.Class, st Strategy, index int, epoch time.Time) int {
	as := Assignments(class, st, index, epoch)
	for _, a := range as {
		obj.Set(a.Field, a.Value)
	}
	return len(as)
}

func coerce(dataType string, v any) (any, bool) {
	switch dataType {
	case domain.DataString:
		switch x := v.(type) {
		case string:
			return x, true
		case time.Time:
			return x.Format(time.RFC3339), true
		default:
			return fmt.Sprint(x), true
		}
	case domain.DataInt:
		switch x := v.(type) {
		case int:
			return x, true
		case int64:
			return int(x), true
		case float64:
			if x == float64(int(x)) {
				return int(x), true
			}
		}
	case domain.DataFloat:
		switch x := v.(type) {
		case float64:
			return x, true
		case int:
			return float64(x), true
		case int64:
			return float64(x), true
		}
	case domain.DataBool:
		if x, ok := v.(bool); ok {
			return x, true
		}
	case domain.DataDate:
		if x, ok := v.(time.Time); ok {
			return x, true
		}
	}
	return nil, false
}
