package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundation-data/datalib/adapters"
	"github.com/foundation-data/datalib/cli"
	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/core/mock"
)

type connections map[string]*mock.Client

// connector hands out the mock registered under params.Type.
func (c connections) connector(_ context.Context, params *core.ConnectionParams, _ ...adapters.Option) (cli.Client, error) {
	client, ok := c[params.Type]
	if !ok {
		return nil, &core.ConnectionError{Type: params.Type, Err: errors.New("unreachable")}
	}
	return client, nil
}

func run(t *testing.T, conns connections, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCommand(cli.WithConnector(conns.connector))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSchema(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

var materialColumns = []*core.Column{{Name: "id", Type: "int8"}, {Name: "name", Type: "text"}}

func TestDDL(t *testing.T) {
	path := writeSchema(t, "test\n\n id SERIAL PRIMARY KEY\n dummy_column VARCHAR NOT NULL\n")

	out, err := run(t, nil, "ddl", path)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE test(id SERIAL PRIMARY KEY,dummy_column VARCHAR NOT NULL )\n", out)
}

func TestDDL_EmptySchema(t *testing.T) {
	_, err := run(t, nil, "ddl", writeSchema(t, "\n\n"))

	var schemaErr *core.MalformedSchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestImport(t *testing.T) {
	client := mock.NewClient()
	path := writeSchema(t, "materials\nid INTEGER\nname TEXT\n")

	out, err := run(t, connections{"sqlite": client}, "--type", "sqlite", "import", path)
	require.NoError(t, err)
	assert.Equal(t, "created table materials\n", out)
	assert.Equal(t, []string{"CREATE TABLE materials(id INTEGER,name TEXT )"}, client.Executed())
	assert.Equal(t, 1, client.CloseCount())
}

func TestImport_ExecutionFailureStillCloses(t *testing.T) {
	cause := errors.New("permission denied")
	client := mock.NewClient(mock.ClientWithQuerySideEffect("CREATE TABLE t( )", func(context.Context) error { return cause }))

	_, err := run(t, connections{"sqlite": client}, "--type", "sqlite", "import", writeSchema(t, "t\n"))

	var execErr *core.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, client.CloseCount())
}

func TestFetch(t *testing.T) {
	newClient := func() *mock.Client {
		return mock.NewClient(mock.ClientWithTable(core.DefaultTable, materialColumns, []core.Row{
			{int64(1), "granite"},
			{int64(2), nil},
		}))
	}

	out, err := run(t, connections{"postgres": newClient()}, "--type", "postgres", "fetch", "--raw")
	require.NoError(t, err)
	assert.Equal(t, "1,granite\n2,\\N\n", out)

	out, err = run(t, connections{"postgres": newClient()}, "--type", "postgres", "--format", "csv", "fetch")
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,granite\n2,\n", out)

	out, err = run(t, connections{"postgres": newClient()}, "--type", "postgres", "--format", "json", "fetch", "SELECT * FROM "+core.DefaultTable)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": 1, "name": "granite"}, {"id": 2, "name": null}]`, out)
}

func TestFetch_Window(t *testing.T) {
	newClient := func() *mock.Client {
		return mock.NewClient(mock.ClientWithTable(core.DefaultTable, materialColumns, []core.Row{
			{int64(1), "granite"},
			{int64(2), "basalt"},
			{int64(3), nil},
		}))
	}

	out, err := run(t, connections{"postgres": newClient()}, "--type", "postgres", "fetch", "--from", "1", "--to", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "basalt")
	assert.NotContains(t, out, "granite")
	// rows keep their position in the full result
	assert.Regexp(t, `\b2\b.*basalt`, out)

	out, err = run(t, connections{"postgres": newClient()}, "--type", "postgres", "--format", "json", "fetch", "--schemaless", "--from", "1")
	require.NoError(t, err)
	assert.JSONEq(t, `[[2, "basalt"], [3, null]]`, out)

	out, err = run(t, connections{"postgres": newClient()}, "--type", "postgres", "fetch", "--raw", "--from", "2")
	require.NoError(t, err)
	assert.Equal(t, "3,\\N\n", out)

	_, err = run(t, connections{"postgres": newClient()}, "--type", "postgres", "fetch", "--from", "2", "--to", "1")
	assert.ErrorContains(t, err, "invalid selection range")

	_, err = run(t, connections{"postgres": newClient()}, "--type", "postgres", "fetch", "--to", "4")
	assert.ErrorContains(t, err, "invalid selection range")
}

func TestFetch_Errors(t *testing.T) {
	_, err := run(t, connections{}, "--type", "postgres", "fetch")
	var connErr *core.ConnectionError
	assert.ErrorAs(t, err, &connErr)

	_, err = run(t, connections{}, "fetch")
	assert.ErrorContains(t, err, "no backend type")

	_, err = run(t, connections{"postgres": mock.NewClient()}, "--type", "postgres", "fetch")
	var queryErr *core.QueryError
	assert.ErrorAs(t, err, &queryErr)
}

func TestMaterials(t *testing.T) {
	client := mock.NewClient(mock.ClientWithTable("materials", materialColumns, []core.Row{
		{int64(1), "granite"},
		{int64(2), "basalt"},
	}))

	out, err := run(t, connections{"mysql": client}, "--type", "mysql", "--format", "csv", "materials")
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,granite\n2,basalt\n", out)
}

func TestCopySchema(t *testing.T) {
	newSource := func() *mock.Client {
		return mock.NewClient(mock.ClientWithTable("materials", materialColumns, nil))
	}

	out, err := run(t, connections{"postgres": newSource()}, "--type", "postgres", "copy-schema", "materials", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE materials(id int8,name text )\n", out)

	target := mock.NewClient()
	conns := connections{"postgres": newSource(), "sqlite": target}
	_, err = run(t, conns, "--type", "postgres", "copy-schema", "materials", "--as", "materials_copy", "--target-type", "sqlite")
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TABLE materials_copy(id int8,name text )"}, target.Executed())
	assert.Equal(t, 1, target.CloseCount())

	_, err = run(t, connections{"postgres": newSource()}, "--type", "postgres", "copy-schema", "materials")
	assert.ErrorContains(t, err, "--target-type")

	_, err = run(t, connections{"postgres": newSource()}, "--type", "postgres", "copy-schema", "missing", "--dry-run")
	var queryErr *core.QueryError
	assert.ErrorAs(t, err, &queryErr)
}

func TestConfigFileAndEnv(t *testing.T) {
	newClient := func() *mock.Client {
		return mock.NewClient(mock.ClientWithTable("stones", materialColumns, []core.Row{{int64(9), "onyx"}}))
	}

	config := filepath.Join(t.TempDir(), "datalib.yaml")
	require.NoError(t, os.WriteFile(config, []byte(strings.Join([]string{
		"connection:",
		"  type: duckdb",
		"table: stones",
		"output: csv",
	}, "\n")), 0o600))

	out, err := run(t, connections{"duckdb": newClient()}, "--config", config, "fetch")
	require.NoError(t, err)
	assert.Equal(t, "id,name\n9,onyx\n", out)

	t.Setenv("DATALIB_OUTPUT", "json")
	out, err = run(t, connections{"duckdb": newClient()}, "--config", config, "fetch")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": 9, "name": "onyx"}]`, out)
}

func TestMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datalib.prom")

	_, err := run(t, nil, "--metrics-file", path, "ddl", writeSchema(t, "t\na INT\n"))
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestTypes(t *testing.T) {
	out, err := run(t, nil, "types")
	require.NoError(t, err)
	assert.Contains(t, strings.Split(out, "\n"), "postgres")
	assert.Contains(t, strings.Split(out, "\n"), "pgx")
}
