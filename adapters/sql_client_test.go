package adapters_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundation-data/datalib/adapters"
	"github.com/foundation-data/datalib/core"
)

func newMockClient(t *testing.T, opts ...adapters.Option) (*adapters.SQLClient, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	client, err := adapters.NewSQLClient(db, opts...)
	require.NoError(t, err)
	return client, mock
}

func TestNewSQLClient_UnsupportedDataFormat(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	client, err := adapters.NewSQLClient(db, adapters.WithDataFormat(core.DataFormat(42)))
	assert.Nil(t, client)
	assert.ErrorIs(t, err, core.ErrUnsupportedDataFormat)
}

func TestSQLClient_GetDataByTitle(t *testing.T) {
	r := require.New(t)
	client, mock := newMockClient(t)

	mock.ExpectQuery("SELECT * FROM materials_list").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "granite").
			AddRow(int64(2), nil).
			AddRow(int64(3), "slate, grey"),
	)

	got, err := client.GetDataByTitle(context.Background())
	r.NoError(err)
	r.Equal(core.DataFormatCSV, got.Format())
	r.Equal([]string{"1,granite", `2,\N`, `3,"slate, grey"`}, got.Data())

	r.NoError(mock.ExpectationsWereMet())
}

func TestSQLClient_GetDataByTitleOptions(t *testing.T) {
	r := require.New(t)
	client, mock := newMockClient(t,
		adapters.WithDefaultTable("materials"),
		adapters.WithDataFormat(core.DataFormatText),
	)

	mock.ExpectQuery("SELECT * FROM materials").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "slate, grey"),
	)

	got, err := client.GetDataByTitle(context.Background())
	r.NoError(err)
	r.Equal(core.DataFormatText, got.Format())
	r.Equal([]string{"1\tslate, grey"}, got.Data())
}

func TestSQLClient_GetDataByTitleEmptyTable(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery("SELECT * FROM materials_list").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := client.GetDataByTitle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0, got.Len())
}

func TestSQLClient_GetDataByTitleErrors(t *testing.T) {
	t.Run("query error", func(t *testing.T) {
		client, mock := newMockClient(t)
		cause := errors.New(`relation "materials_list" does not exist`)
		mock.ExpectQuery("SELECT * FROM materials_list").WillReturnError(cause)

		got, err := client.GetDataByTitle(context.Background())
		assert.Nil(t, got)

		var queryErr *core.QueryError
		require.ErrorAs(t, err, &queryErr)
		assert.Equal(t, "SELECT * FROM materials_list", queryErr.Query)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("connection lost", func(t *testing.T) {
		client, mock := newMockClient(t)
		mock.ExpectQuery("SELECT * FROM materials_list").
			WillReturnError(&net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")})

		got, err := client.GetDataByTitle(context.Background())
		assert.Nil(t, got)

		var connErr *core.ConnectionError
		assert.ErrorAs(t, err, &connErr)
	})

	t.Run("unsupported value", func(t *testing.T) {
		client, mock := newMockClient(t)
		mock.ExpectQuery("SELECT * FROM materials_list").WillReturnRows(
			sqlmock.NewRows([]string{"id", "name"}).
				AddRow(int64(1), "granite").
				AddRow(int64(2), "basalt").
				AddRow(complex(1, 2), "marble"),
		)

		got, err := client.GetDataByTitle(context.Background())
		assert.Nil(t, got)

		var decodeErr *core.DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, 2, decodeErr.Row)
		assert.Equal(t, 0, decodeErr.Column)
		assert.ErrorIs(t, err, core.ErrUnsupportedValue)
	})
}

func TestSQLClient_Fetch(t *testing.T) {
	r := require.New(t)
	client, mock := newMockClient(t)

	mock.ExpectQuery("SELECT id, weight FROM materials").WillReturnRows(
		sqlmock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("id").OfType("INT8", int64(0)),
			sqlmock.NewColumn("weight").OfType("FLOAT8", float64(0)),
		).AddRow(int64(7), 2.5),
	)

	got, columns, err := client.Fetch(context.Background(), "SELECT id, weight FROM materials")
	r.NoError(err)
	r.Equal([]string{"7,2.5"}, got.Data())
	r.Equal([]*core.Column{{Name: "id", Type: "INT8"}, {Name: "weight", Type: "FLOAT8"}}, columns)

	kinds := []core.ColumnKind{columns[0].Kind(), columns[1].Kind()}
	rows, err := core.DecodeRows(core.NewCSVCodec(), got, kinds)
	r.NoError(err)
	r.Equal([]core.Row{{int64(7), 2.5}}, rows)
}

func TestSQLClient_GetConsumableFromData(t *testing.T) {
	client, mock := newMockClient(t)

	got, err := client.GetConsumableFromData([]core.Row{{int64(1), "granite", 2.75, nil}})
	require.NoError(t, err)
	assert.Equal(t, []string{`1,granite,2.75,\N`}, got.Data())

	// pure conversion, the backend is never touched
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLClient_ImportData(t *testing.T) {
	r := require.New(t)
	client, mock := newMockClient(t)

	mock.ExpectExec("CREATE TABLE materials(id INTEGER,name TEXT )").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := client.ImportData(context.Background(), core.NewConsumable([]string{"materials", "id INTEGER", "name TEXT"}))
	r.NoError(err)
	r.NoError(mock.ExpectationsWereMet())
}

func TestSQLClient_ImportDataMalformed(t *testing.T) {
	client, mock := newMockClient(t)

	err := client.ImportData(context.Background(), core.NewConsumable(nil))

	var schemaErr *core.MalformedSchemaError
	assert.ErrorAs(t, err, &schemaErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLClient_CloseOnceAfterFailedImport(t *testing.T) {
	r := require.New(t)
	client, mock := newMockClient(t)

	cause := errors.New(`relation "t" already exists`)
	mock.ExpectExec("CREATE TABLE t( )").WillReturnError(cause)
	mock.ExpectClose()

	err := client.ImportData(context.Background(), core.NewConsumable([]string{"t"}))

	var execErr *core.ExecutionError
	r.ErrorAs(err, &execErr)
	r.Equal("CREATE TABLE t( )", execErr.Statement)
	r.ErrorIs(err, cause)

	r.NoError(client.Close())
	r.NoError(client.Close())
	r.NoError(mock.ExpectationsWereMet())
}

func TestSQLClient_UseAfterClose(t *testing.T) {
	r := require.New(t)
	client, mock := newMockClient(t)
	mock.ExpectClose()

	r.NoError(client.Close())

	_, err := client.GetDataByTitle(context.Background())
	r.ErrorIs(err, core.ErrClientClosed)
	var queryErr *core.QueryError
	r.ErrorAs(err, &queryErr)

	err = client.ImportData(context.Background(), core.NewConsumable([]string{"t", "a INT"}))
	r.ErrorIs(err, core.ErrClientClosed)
	var execErr *core.ExecutionError
	r.ErrorAs(err, &execErr)

	r.ErrorIs(client.Ping(context.Background()), core.ErrClientClosed)
	r.NoError(mock.ExpectationsWereMet())
}

func TestSQLClient_Columns(t *testing.T) {
	r := require.New(t)
	client, mock := newMockClient(t)

	mock.ExpectQuery("SELECT column_name, data_type FROM information_schema.columns WHERE table_name = 'materials' ORDER BY ordinal_position").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("id", "bigint").
			AddRow("name", "text"))

	got, err := client.Columns(context.Background(), "materials")
	r.NoError(err)
	r.Equal([]*core.Column{{Name: "id", Type: "bigint"}, {Name: "name", Type: "text"}}, got)
}

func TestSQLClient_CallerTypeProcessorWins(t *testing.T) {
	client, mock := newMockClient(t,
		adapters.WithTypeProcessor("TEXT", func(v any) any { return "redacted" }),
	)

	mock.ExpectQuery("SELECT * FROM materials_list").WillReturnRows(
		sqlmock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("name").OfType("TEXT", ""),
		).AddRow("granite"),
	)

	got, err := client.GetDataByTitle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"redacted"}, got.Data())
}
