package transforms

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToString converts scalar values to their textual form.
func ToString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case json.Number:
		return v.String(), nil
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10), nil
		}
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return ToString(float64(v))
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", fmt.Errorf("cannot convert nil to string")
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// ToInt64 converts numbers, numeric strings and booleans to int64.
// Fractional values are truncated.
func ToInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		if f, err := v.Float64(); err == nil {
			return int64(f), nil
		}
		return 0, fmt.Errorf("cannot convert %q to int64", v.String())
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("cannot convert %v to int64", v)
		}
		return int64(v), nil
	case float32:
		return ToInt64(float64(v))
	case int:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case []byte:
		return ToInt64(string(v))
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), nil
		}
		return 0, fmt.Errorf("cannot convert %q to int64", v)
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", v)
	}
}

// ToFloat64 converts numbers, numeric strings and booleans to float64.
func ToFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case json.Number:
		return v.Float64()
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case []byte:
		return ToFloat64(string(v))
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case bool:
		if v {
			return 1.0, nil
		}
		return 0.0, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v)
	}
}

// ToBool converts booleans and their common textual or numeric forms.
func ToBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "t":
			return true, nil
		case "false", "0", "f", "":
			return false, nil
		default:
			return false, fmt.Errorf("cannot convert %q to bool", v)
		}
	case nil:
		return false, nil
	default:
		f, err := ToFloat64(v)
		if err != nil {
			return false, fmt.Errorf("cannot convert %T to bool", v)
		}
		switch f {
		case 1:
			return true, nil
		case 0:
			return false, nil
		default:
			return false, fmt.Errorf("cannot convert %v to bool", v)
		}
	}
}

// Number mirrors a numeric cast as seen by the native services: numbers pass
// through as float64, blank strings become 0 and anything unparsable becomes
// nil, which encodes as JSON null.
func Number(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(v) == "" {
			return float64(0)
		}
	}
	f, err := ToFloat64(value)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// NumberIfTruthy casts value with Number only when it is truthy and returns
// it unchanged otherwise.
func NumberIfTruthy(value interface{}) interface{} {
	if !Truthy(value) {
		return value
	}
	return Number(value)
}

// Truthy reports whether value counts as set: nil, false, zero, NaN and the
// empty string do not.
func Truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case []byte:
		return len(v) > 0
	}
	if f, err := ToFloat64(value); err == nil {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// OptionalID returns value as an int64 identifier, or nil when it is absent
// or not numeric.
func OptionalID(value interface{}) interface{} {
	if value == nil {
		return nil
	}
	id, err := ToInt64(value)
	if err != nil {
		return nil
	}
	return id
}

// OptionalNumber returns Number(value) for present values and nil otherwise.
func OptionalNumber(value interface{}) interface{} {
	if value == nil {
		return nil
	}
	return Number(value)
}

// IDList converts a list of identifiers; unparsable entries are skipped.
func IDList(value interface{}) []int64 {
	out := []int64{}
	switch v := value.(type) {
	case []int64:
		return append(out, v...)
	case []int:
		for _, id := range v {
			out = append(out, int64(id))
		}
	case []interface{}:
		for _, item := range v {
			if id, err := ToInt64(item); err == nil {
				out = append(out, id)
			}
		}
	case string:
		// postgres array literal: {1,2,3}
		trimmed := strings.Trim(v, "{}[] ")
		if trimmed == "" {
			return out
		}
		for _, part := range strings.Split(trimmed, ",") {
			if id, err := ToInt64(part); err == nil {
				out = append(out, id)
			}
		}
	}
	return out
}
