package transforms

import "fmt"

// Omit returns a shallow copy of data without the given keys.
func Omit(data map[string]interface{}, keys ...string) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, key := range keys {
		delete(out, key)
	}
	return out
}

// DeepCopy copies nested maps and slices so the result shares no mutable
// state with src.
func DeepCopy(src map[string]interface{}) map[string]interface{} {
	if src == nil {
		return nil
	}
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = deepCopyValue(v)
	}
	return dst
}

func deepCopyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return DeepCopy(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}

// KeyValueMap folds storage rows of the form {key, value} into a mapping.
// valueFn, when non-nil, transforms each value.
func KeyValueMap(rows []map[string]interface{}, valueFn func(interface{}) interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(rows))
	for _, row := range rows {
		key, err := ToString(row["key"])
		if err != nil || key == "" {
			continue
		}
		value := row["value"]
		if valueFn != nil {
			value = valueFn(value)
		}
		out[key] = value
	}
	return out
}

// StringMap renders every value of data as a string, as expected by the
// native services for format and metadata blocks. nil values become "".
func StringMap(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if v == nil {
			out[k] = ""
			continue
		}
		s, err := ToString(v)
		if err != nil {
			s = fmt.Sprintf("%v", v)
		}
		out[k] = s
	}
	return out
}
