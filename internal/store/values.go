package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/johnwards/treeseed/internal/domain"
)

// encodeValue converts a scalar value to its column representation.
func encodeValue(f domain.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.DataType {
	case domain.DataString:
		switch x := v.(type) {
		case string:
			return x, nil
		case fmt.Stringer:
			return x.String(), nil
		}
	case domain.DataInt:
		switch x := v.(type) {
		case int:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case int64:
			return x, nil
		}
	case domain.DataFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		}
	case domain.DataBool:
		if x, ok := v.(bool); ok {
			if x {
				return int64(1), nil
			}
			return int64(0), nil
		}
	case domain.DataDate:
		if x, ok := v.(time.Time); ok {
			return x.Unix(), nil
		}
	}
	return nil, fmt.Errorf("cannot store %T as %s: %w", v, f.DataType, ErrInvalidClass)
}

// decodeValue converts a column value back to the Go type used for the
// field's data type.
func decodeValue(f domain.Field, raw any) any {
	switch f.DataType {
	case domain.DataString:
		switch x := raw.(type) {
		case string:
			return x
		case []byte:
			return string(x)
		}
		return fmt.Sprint(raw)
	case domain.DataInt:
		return toInt64(raw)
	case domain.DataFloat:
		switch x := raw.(type) {
		case float64:
			return x
		case int64:
			return float64(x)
		}
	case domain.DataBool:
		return toInt64(raw) != 0
	case domain.DataDate:
		return time.Unix(toInt64(raw), 0).UTC()
	}
	return raw
}

func toInt64(raw any) int64 {
	switch x := raw.(type) {
	case int64:
		return x
	case float64:
		return int64(x)
	case bool:
		if x {
			return 1
		}
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(string(x), 10, 64)
		return n
	}
	return 0
}
