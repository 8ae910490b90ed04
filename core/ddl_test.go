package core_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/foundation-data/datalib/core"
)

func TestMakeTableQuery(t *testing.T) {
	testCases := []struct {
		name     string
		input    []string
		expected string
	}{
		{
			name:     "postgres parameters produce valid ddl",
			input:    []string{"test ", " id SERIAL PRIMARY KEY", " dummy_column VARCHAR NOT NULL"},
			expected: "CREATE TABLE test ( id SERIAL PRIMARY KEY, dummy_column VARCHAR NOT NULL )",
		},
		{
			name:     "no columns",
			input:    []string{"t"},
			expected: "CREATE TABLE t( )",
		},
		{
			name:     "columns are joined with a bare comma",
			input:    []string{"materials", "id INT", "name TEXT"},
			expected: "CREATE TABLE materials(id INT,name TEXT )",
		},
		{
			name:     "entries are not sanitized",
			input:    []string{"x; DROP TABLE y", "a INT"},
			expected: "CREATE TABLE x; DROP TABLE y(a INT )",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := core.MakeTableQuery(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}
}

func TestMakeTableQuery_Empty(t *testing.T) {
	for _, input := range [][]string{nil, {}} {
		got, err := core.MakeTableQuery(input)

		var schemaErr *core.MalformedSchemaError
		require.ErrorAs(t, err, &schemaErr)
		require.Empty(t, got)
	}
}

func TestMakeTableQueryFromConsumable(t *testing.T) {
	r := require.New(t)

	got, err := core.MakeTableQueryFromConsumable(core.NewConsumable([]string{"t", "a INT"}))
	r.NoError(err)
	r.Equal("CREATE TABLE t(a INT )", got)

	_, err = core.MakeTableQueryFromConsumable(core.NewConsumable(nil))
	var schemaErr *core.MalformedSchemaError
	r.ErrorAs(err, &schemaErr)

	_, err = core.MakeTableQueryFromConsumable(nil)
	r.ErrorAs(err, &schemaErr)
}

func TestSchemaConsumable(t *testing.T) {
	r := require.New(t)

	c := core.SchemaConsumable("materials",
		&core.Column{Name: "id", Type: "INTEGER"},
		&core.Column{Name: "name", Type: "TEXT"},
	)
	r.Equal([]string{"materials", "id INTEGER", "name TEXT"}, c.Data())

	ddl, err := core.MakeTableQueryFromConsumable(c)
	r.NoError(err)
	r.Equal("CREATE TABLE materials(id INTEGER,name TEXT )", ddl)
}
