package core

import (
	"strings"
)

// MakeTableQuery builds a CREATE TABLE statement from a schema descriptor.
// The first entry is the table name, every other entry is a column
// definition in the form "<name> <type> [constraints]".
//
// The output layout is compared literally by consumers, so it is fixed:
//
//	CREATE TABLE <name>(<col1>,<col2>,... )
//
// Entries are not escaped or validated in any way. Callers must only pass
// trusted definitions.
func MakeTableQuery(rows []string) (string, error) {
	if len(rows) < 1 {
		return "", &MalformedSchemaError{Reason: "missing table name"}
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(rows[0])
	b.WriteString("(")
	b.WriteString(strings.Join(rows[1:], ","))
	b.WriteString(" )")

	return b.String(), nil
}

// MakeTableQueryFromConsumable is MakeTableQuery over the entries of a Consumable.
func MakeTableQueryFromConsumable(c *Consumable) (string, error) {
	if c == nil {
		return "", &MalformedSchemaError{Reason: "nil consumable"}
	}
	return MakeTableQuery(c.data)
}

// SchemaConsumable creates a schema descriptor for a table with the given columns.
func SchemaConsumable(table string, columns ...*Column) *Consumable {
	rows := make([]string, 0, len(columns)+1)
	rows = append(rows, table)
	for _, col := range columns {
		rows = append(rows, col.Name+" "+col.Type)
	}
	return NewConsumable(rows)
}
