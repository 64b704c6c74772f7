package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Row is the single canonical row representation handed upward by the
// adapter. Keys are the column names of the query; values are normalized
// to string, int64, float64 or nil.
type Row map[string]any

// scanRows drains a result set into canonical rows.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// normalizeValue collapses the driver's concrete scan types into the
// canonical set. Byte slices become strings; timestamps are kept as the
// stored text form.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return v
	}
}

// String returns the named column as a string. NULL and missing columns
// collapse to "".
func (r Row) String(col string) string {
	s, _ := r.NullString(col)
	return s
}

// NullString returns the named column as a string plus a flag that is
// false when the stored value was NULL.
func (r Row) NullString(col string) (string, bool) {
	v, ok := r[col]
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return fmt.Sprintf("%v", val), true
	}
}

// Int64 returns the named column as an int64. NULL and missing columns
// collapse to 0.
func (r Row) Int64(col string) int64 {
	v, ok := r[col]
	if !ok || v == nil {
		return 0
	}
	switch val := v.(type) {
	case int64:
		return val
	case float64:
		return int64(val)
	case string:
		n, _ := strconv.ParseInt(val, 10, 64)
		return n
	default:
		return 0
	}
}

// Time parses the named column using the canonical timestamp layout.
// Returns the zero time for NULL.
func (r Row) Time(col string) (time.Time, error) {
	s, ok := r.NullString(col)
	if !ok {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s timestamp %q: %w", col, s, err)
	}
	return t, nil
}
