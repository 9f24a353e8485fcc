package export

import "errors"

// ErrNoColumns is returned when a dataset has no headers to render.
var ErrNoColumns = errors.New("dataset requires at least one header")

// Dataset defines tabular export content. Rows are keyed by header; missing keys render empty.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return ErrNoColumns
	}
	return nil
}

// Records returns the rows as header-ordered string slices.
func (d Dataset) Records() [][]string {
	out := make([][]string, len(d.Rows))
	for i, row := range d.Rows {
		record := make([]string, len(d.Headers))
		for j, header := range d.Headers {
			record[j] = row[header]
		}
		out[i] = record
	}
	return out
}
