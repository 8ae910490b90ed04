// Package loader reads domain records out of a backend.
package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/foundation-data/datalib/core"
)

const materialsQuery = "SELECT * FROM materials"

var ErrTooFewColumns = errors.New("materials table needs at least an id and a name column")

// Material is a row of the materials table.
type Material struct {
	ID   int64
	Name string
}

// MaterialSource is any client that can run a read query.
// *adapters.SQLClient and *adapters.PgxClient satisfy it.
type MaterialSource interface {
	Fetch(ctx context.Context, query string) (*core.Consumable, []*core.Column, error)
}

// LoadMaterials reads every material. The first column is the id, the
// second the name, further columns are ignored.
func LoadMaterials(ctx context.Context, src MaterialSource) ([]Material, error) {
	consumable, columns, err := src.Fetch(ctx, materialsQuery)
	if err != nil {
		return nil, fmt.Errorf("src.Fetch: %w", err)
	}

	if len(columns) < 2 {
		return nil, ErrTooFewColumns
	}

	kinds := make([]core.ColumnKind, len(columns))
	kinds[0] = core.KindInteger
	kinds[1] = core.KindText
	for i := 2; i < len(kinds); i++ {
		kinds[i] = core.KindText
	}

	codec, err := core.NewRowCodec(consumable.Format())
	if err != nil {
		return nil, err
	}

	rows, err := core.DecodeRows(codec, consumable, kinds)
	if err != nil {
		return nil, err
	}

	materials := make([]Material, 0, len(rows))
	for i, row := range rows {
		m, err := materialFromRow(row)
		if err != nil {
			var decodeErr *core.DecodeError
			if errors.As(err, &decodeErr) {
				decodeErr.Row = i
			}
			return nil, err
		}
		materials = append(materials, m)
	}

	return materials, nil
}

func materialFromRow(row core.Row) (Material, error) {
	var m Material

	switch id := row[0].(type) {
	case int64:
		m.ID = id
	case nil:
		return Material{}, &core.DecodeError{Row: -1, Column: 0, Err: fmt.Errorf("%w: id is NULL", core.ErrMalformedField)}
	default:
		return Material{}, &core.DecodeError{Row: -1, Column: 0, Value: id, Err: fmt.Errorf("%w: id %v out of range", core.ErrMalformedField, id)}
	}

	name, ok := row[1].(string)
	if !ok {
		return Material{}, &core.DecodeError{Row: -1, Column: 1, Err: fmt.Errorf("%w: name is NULL", core.ErrMalformedField)}
	}
	m.Name = name

	return m, nil
}
