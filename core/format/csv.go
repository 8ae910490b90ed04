package format

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/foundation-data/datalib/core"
)

var _ core.Formatter = (*CSV)(nil)

// CSV writes a header line followed by one line per row.
// Unlike the row codec it's meant for spreadsheets, so NULL is an empty cell.
type CSV struct{}

func NewCSV() *CSV {
	return &CSV{}
}

func (cf *CSV) records(header core.Header, rows []core.Row) [][]string {
	data := make([][]string, 0, len(rows)+1)
	data = append(data, header)

	for _, row := range rows {
		record := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				continue
			}
			record[i] = display(v)
		}
		data = append(data, record)
	}

	return data
}

func (cf *CSV) Format(header core.Header, rows []core.Row, _ *core.FormatterOptions) ([]byte, error) {
	b := new(bytes.Buffer)
	w := csv.NewWriter(b)

	if err := w.WriteAll(cf.records(header, rows)); err != nil {
		return nil, fmt.Errorf("w.WriteAll: %w", err)
	}

	return b.Bytes(), nil
}

// ByName returns the formatter registered under name.
func ByName(name string) (core.Formatter, error) {
	switch name {
	case "", "table":
		return NewTable(), nil
	case "json":
		return NewJSON(), nil
	case "csv":
		return NewCSV(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", name)
	}
}
