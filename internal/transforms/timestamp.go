package transforms

import (
	"fmt"
	"time"
)

// TimestampLayout is the layout the native services parse timestamps with
// (ISO 8601, millisecond precision, numeric zone).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var timestampInputs = []string{
	TimestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatTimestamp renders time values with TimestampLayout. Strings are
// normalized when parsable and passed through otherwise; nil stays nil.
func FormatTimestamp(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return v.Format(TimestampLayout)
	case *time.Time:
		if v == nil {
			return nil
		}
		return FormatTimestamp(*v)
	case string:
		if v == "" {
			return nil
		}
		if t, err := ParseTimestamp(v); err == nil {
			return t.Format(TimestampLayout)
		}
		return v
	case []byte:
		return FormatTimestamp(string(v))
	default:
		return v
	}
}

// ParseTimestamp accepts the layouts produced by the web UI and by PostgreSQL.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampInputs {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
