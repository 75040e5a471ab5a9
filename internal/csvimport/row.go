package csvimport

import "strings"

// Cell is one value of a data row together with the normalized header of
// its column. Cells beyond the header width have an empty key.
type Cell struct {
	Key   string
	Value string
}

// Row is one parsed data row. Line is 1-based and excludes the header.
type Row struct {
	Line   int
	Cells  []Cell
	values map[string]string
}

func newRow(line int, headers, record []string) Row {
	row := Row{
		Line:   line,
		Cells:  make([]Cell, len(record)),
		values: make(map[string]string, len(headers)),
	}
	for i, v := range record {
		key := ""
		if i < len(headers) {
			key = headers[i]
		}
		row.Cells[i] = Cell{Key: key, Value: v}
		if key == "" {
			continue
		}
		// Duplicate columns: the first non-blank value wins.
		if existing, ok := row.values[key]; !ok || strings.TrimSpace(existing) == "" {
			row.values[key] = v
		}
	}
	return row
}

// Get returns the raw value for a canonical field name
func (r Row) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Values returns the row keyed by canonical field name
func (r Row) Values() map[string]string {
	return r.values
}

func (r Row) blank() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c.Value) != "" {
			return false
		}
	}
	return true
}
