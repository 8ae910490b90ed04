package core

import (
	"iter"
	"slices"
)

// Consumable is a backend agnostic package of data.
// All data read from a backend is converted to a Consumable before it reaches
// the caller, and everything written to a backend starts as one.
//
// A Consumable never changes after construction.
type Consumable struct {
	data   []string
	format DataFormat
}

// NewConsumable wraps the rows verbatim and tags them as DataFormatCSV.
// The slice is owned by the Consumable from now on.
func NewConsumable(rows []string) *Consumable {
	return NewFormattedConsumable(DataFormatCSV, rows)
}

// NewFormattedConsumable wraps the rows verbatim with an explicit format tag.
func NewFormattedConsumable(format DataFormat, rows []string) *Consumable {
	return &Consumable{
		data:   rows,
		format: format,
	}
}

// Data returns a copy of the entries.
func (c *Consumable) Data() []string {
	return slices.Clone(c.data)
}

// All iterates over the entries without copying them.
func (c *Consumable) All() iter.Seq2[int, string] {
	return slices.All(c.data)
}

func (c *Consumable) Len() int {
	return len(c.data)
}

func (c *Consumable) Format() DataFormat {
	return c.format
}
