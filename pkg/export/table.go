package export

import "fmt"

// Column describes one exported column. Width is a relative weight used by
// the PDF layout; zero means 1.
type Column struct {
	Header string
	Width  float64
}

// Table is positional tabular content shared by every renderer.
type Table struct {
	Title   string
	Columns []Column
	Rows    [][]string
}

// Headers returns the column headers in order.
func (t Table) Headers() []string {
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Header
	}
	return headers
}

func (t Table) validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("export requires at least one column")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(t.Columns))
		}
	}
	return nil
}
