package format

import (
	"encoding/json"
	"fmt"

	"github.com/foundation-data/datalib/core"
)

var _ core.Formatter = (*JSON)(nil)

type JSON struct{}

func NewJSON() *JSON {
	return &JSON{}
}

func (jf *JSON) parseSchemaFul(header core.Header, rows []core.Row) []map[string]any {
	data := make([]map[string]any, 0, len(rows))

	for _, row := range rows {
		record := make(map[string]any, len(row))
		for i, val := range row {
			var h string
			if i < len(header) {
				h = header[i]
			} else {
				h = fmt.Sprintf("<unknown-field-%d>", i)
			}
			record[h] = jsonValue(val)
		}
		data = append(data, record)
	}

	return data
}

func (jf *JSON) parseSchemaLess(rows []core.Row) []any {
	data := make([]any, 0, len(rows))

	for _, row := range rows {
		switch len(row) {
		case 0:
		case 1:
			data = append(data, jsonValue(row[0]))
		default:
			values := make([]any, len(row))
			for i, v := range row {
				values[i] = jsonValue(v)
			}
			data = append(data, values)
		}
	}
	return data
}

func (jf *JSON) Format(header core.Header, rows []core.Row, opts *core.FormatterOptions) ([]byte, error) {
	schema := core.SchemaFul
	if opts != nil {
		schema = opts.SchemaType
	}

	var data any
	switch schema {
	case core.SchemaLess:
		data = jf.parseSchemaLess(rows)
	default:
		data = jf.parseSchemaFul(header, rows)
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json.MarshalIndent: %w", err)
	}

	return out, nil
}
