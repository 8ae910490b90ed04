package builders

import (
	"errors"
	"fmt"

	"github.com/foundation-data/datalib/core"
)

var errInsufficientColumnInfo = errors.New("could not retrieve column info: insufficient data")

// ColumnsFromResultStream converts the result stream to columns.
// A result stream should return rows that are at least 2 columns wide and
// have the following structure:
//
//	1st elem: name - string
//	2nd elem: type - string
func ColumnsFromResultStream(rows core.ResultStream) ([]*core.Column, error) {
	var out []*core.Column

	for rows.HasNext() {
		row, err := rows.Next()
		if err != nil {
			return nil, fmt.Errorf("result.Next: %w", err)
		}

		if len(row) < 2 {
			return nil, errInsufficientColumnInfo
		}

		name, ok := asString(row[0])
		if !ok {
			return nil, fmt.Errorf("could not retrieve column info: name is %T, not a string", row[0])
		}

		typ, ok := asString(row[1])
		if !ok {
			return nil, fmt.Errorf("could not retrieve column info: type of %q is %T, not a string", name, row[1])
		}

		out = append(out, &core.Column{
			Name: name,
			Type: typ,
		})
	}

	if s, ok := rows.(interface{ Err() error }); ok {
		if err := s.Err(); err != nil {
			return nil, fmt.Errorf("result.Err: %w", err)
		}
	}

	return out, nil
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}
