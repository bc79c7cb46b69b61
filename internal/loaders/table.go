package loaders

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/bankgreen/bankmap/pkg/errors"
)

// table is a parsed CSV file with a header row.
type table struct {
	name   string
	header map[string]int
	rows   [][]string
}

// row is one data line of a table. Line is 1-based and counts the header.
type row struct {
	t      *table
	line   int
	values []string
}

// parseTable reads a CSV payload whose first line names the columns.
// required columns must all be present.
func parseTable(name string, data []byte, required ...string) (*table, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.NewParseError("csv", name, "empty file", nil)
	}
	if err != nil {
		return nil, errors.WrapParse("csv", name, err)
	}

	t := &table{name: name, header: make(map[string]int, len(header))}
	for i, h := range header {
		t.header[strings.TrimSpace(h)] = i
	}
	for _, col := range required {
		if _, ok := t.header[col]; !ok {
			return nil, errors.NewParseError("csv", name, "missing column "+col, nil)
		}
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapParse("csv", name, err)
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func (t *table) each(fn func(row) error) error {
	for i, values := range t.rows {
		if err := fn(row{t: t, line: i + 2, values: values}); err != nil {
			return err
		}
	}
	return nil
}

// get returns the trimmed cell for col, or "" when the column or cell is missing.
func (r row) get(col string) string {
	i, ok := r.t.header[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

// split returns the comma separated values of col, trimmed and non-empty.
func (r row) split(col string) []string {
	var out []string
	for _, v := range strings.Split(r.get(col), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// missing reports cells that pandas-style exports use for absent values.
func missing(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "null", "n/a", "-":
		return true
	}
	return false
}
