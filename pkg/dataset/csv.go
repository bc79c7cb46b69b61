package dataset

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/bankgreen/bankmap/pkg/errors"
)

// Records renders rows as string cells under the Columns header.
func Records(rows []Row) [][]string {
	cols := Columns()
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		f := r.Fields()
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = cell(f[c])
		}
		out = append(out, cells)
	}
	return out
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns()); err != nil {
		return errors.WrapIO("write", "csv", err)
	}
	if err := cw.WriteAll(Records(rows)); err != nil {
		return errors.WrapIO("write", "csv", err)
	}
	return nil
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}
