package integration

import (
	"context"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tsuite "github.com/stretchr/testify/suite"

	"github.com/foundation-data/datalib/adapters"
	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/loader"
	th "github.com/foundation-data/datalib/tests/testhelpers"
)

// relationalSuite holds the checks every relational backend has to pass.
// Backend suites embed it and fill in the fields in SetupSuite.
type relationalSuite struct {
	tsuite.Suite
	ctx context.Context
	// client is shared by all tests of the suite
	client *adapters.SQLClient
	// newClient opens a fresh client for tests that close it
	newClient func() (*adapters.SQLClient, error)

	// wantRows are the decoded rows of materials_list ordered by id,
	// nil skips the comparison
	wantRows []core.Row
	// importColumns are column definitions valid for the backend
	importColumns []string
	// copySchema is false for backends whose reported types can't be
	// used in a CREATE TABLE as they are
	copySchema bool
}

func (suite *relationalSuite) TestShouldReturnDataByTitle() {
	t := suite.T()

	got, err := suite.client.GetDataByTitle(suite.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
	assert.Equal(t, core.DataFormatCSV, got.Format())
}

func (suite *relationalSuite) TestShouldDecodeRows() {
	t := suite.T()
	if suite.wantRows == nil {
		t.Skip("no typed rows for this backend")
	}

	consumable, columns, err := suite.client.Fetch(suite.ctx, "SELECT * FROM materials_list ORDER BY id")
	require.NoError(t, err)

	got, err := th.Decode(consumable, columns)
	require.NoError(t, err)
	assert.Equal(t, suite.wantRows, got)
}

func (suite *relationalSuite) TestShouldErrorInvalidQuery() {
	t := suite.T()

	_, _, err := suite.client.Fetch(suite.ctx, "invalid sql")

	var queryErr *core.QueryError
	require.ErrorAs(t, err, &queryErr)
	assert.Equal(t, "invalid sql", queryErr.Query)
}

func (suite *relationalSuite) TestShouldImportData() {
	t := suite.T()

	data := core.NewConsumable(append([]string{"imported"}, suite.importColumns...))
	require.NoError(t, suite.client.ImportData(suite.ctx, data))

	columns, err := suite.client.Columns(suite.ctx, "imported")
	require.NoError(t, err)
	assert.Len(t, columns, len(suite.importColumns))

	// table exists now
	err = suite.client.ImportData(suite.ctx, data)
	var execErr *core.ExecutionError
	assert.ErrorAs(t, err, &execErr)
}

func (suite *relationalSuite) TestShouldRejectEmptySchema() {
	t := suite.T()

	err := suite.client.ImportData(suite.ctx, core.NewConsumable(nil))
	var schemaErr *core.MalformedSchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func (suite *relationalSuite) TestShouldCopySchema() {
	t := suite.T()
	if !suite.copySchema {
		t.Skip("reported column types are not reusable")
	}

	columns, err := suite.client.Columns(suite.ctx, "materials")
	require.NoError(t, err)
	require.Len(t, columns, 2)

	require.NoError(t, suite.client.ImportData(suite.ctx, core.SchemaConsumable("materials_copy", columns...)))

	copied, err := suite.client.Columns(suite.ctx, "materials_copy")
	require.NoError(t, err)
	assert.Equal(t, columnNames(columns), columnNames(copied))
}

func (suite *relationalSuite) TestShouldLoadMaterials() {
	t := suite.T()

	got, err := loader.LoadMaterials(suite.ctx, suite.client)
	require.NoError(t, err)
	assert.ElementsMatch(t, []loader.Material{
		{ID: 1, Name: "granite"},
		{ID: 2, Name: "marble"},
	}, got)
}

func (suite *relationalSuite) TestShouldCloseOnce() {
	t := suite.T()

	client, err := suite.newClient()
	require.NoError(t, err)
	require.NotNil(t, client)

	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())

	_, err = client.GetDataByTitle(suite.ctx)
	assert.ErrorIs(t, err, core.ErrClientClosed)
}

func columnNames(columns []*core.Column) []string {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}
	return names
}
