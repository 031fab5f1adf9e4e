package postgres

import (
	"database/sql"
	"fmt"
	"time"
)

// Row is one scanned result row keyed by column name. It satisfies
// model.Record, so entities can be built straight from it.
type Row map[string]interface{}

// Get returns the row as a plain mapping.
func (r Row) Get() map[string]interface{} {
	return map[string]interface{}(r)
}

// ScanRows reads every remaining row. Byte slices become strings and times
// are kept as time.Time.
func ScanRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC()
	}
	return v
}

// groupBy indexes rows by the int64 value of column.
func groupBy(rows []Row, column string) map[int64][]Row {
	out := make(map[int64][]Row)
	for _, r := range rows {
		id, ok := asInt64(r[column])
		if !ok {
			continue
		}
		out[id] = append(out[id], r)
	}
	return out
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
