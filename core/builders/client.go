package builders

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/foundation-data/datalib/core"
)

// Client is the database/sql client shared by all sql backends.
type Client struct {
	db             *sql.DB
	typeProcessors map[string]func(any) any
	typeNames      map[string]string
}

func NewClient(db *sql.DB, opts ...ClientOption) *Client {
	config := clientConfig{
		typeProcessors: make(map[string]func(any) any),
		typeNames:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(&config)
	}

	return &Client{
		db:             db,
		typeProcessors: config.typeProcessors,
		typeNames:      config.typeNames,
	}
}

// ColumnsFromQuery executes a given query and converts the results to
// columns. A query should return a result that is at least 2 columns wide
// and have the following structure:
//
//	1st elem: name - string
//	2nd elem: type - string
//
// Query is sprintf-ed with args, so ColumnsFromQuery(ctx, "select a from %s", "table_name") works.
func (c *Client) ColumnsFromQuery(ctx context.Context, query string, args ...any) ([]*core.Column, error) {
	result, err := c.Query(ctx, fmt.Sprintf(query, args...))
	if err != nil {
		return nil, err
	}
	defer result.Close()

	return ColumnsFromResultStream(result)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) Close() error {
	return c.db.Close()
}

// Exec executes a query and returns a stream with single row (number of affected results).
// Drivers that don't report affected rows for a statement (DDL mostly) yield -1.
func (c *Client) Exec(ctx context.Context, query string) (*ResultStream, error) {
	res, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		affected = -1
	}

	next, hasNext := NextSingle(affected)
	rows := NewResultStreamBuilder().
		WithNextFunc(next, hasNext).
		WithHeader(core.Header{"Rows Affected"}).
		WithColumns([]*core.Column{{Name: "Rows Affected", Type: "BIGINT"}}).
		Build()

	return rows, nil
}

func (c *Client) typeName(typ string) string {
	if name, ok := c.typeNames[strings.ToLower(typ)]; ok {
		return name
	}
	return typ
}

func (c *Client) getTypeProcessor(typ string) func(any) any {
	proc, ok := c.typeProcessors[strings.ToLower(typ)]
	if ok {
		return proc
	}

	return func(val any) any {
		valb, ok := val.([]byte)
		if ok {
			return string(valb)
		}
		return val
	}
}

// Query executes a query and returns a result stream.
// Every value is passed through the type processor of its database type.
func (c *Client) Query(ctx context.Context, query string) (*ResultStream, error) {
	dbRows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	dbCols, err := dbRows.ColumnTypes()
	if err != nil {
		_ = dbRows.Close()
		return nil, err
	}

	header := make(core.Header, len(dbCols))
	columns := make([]*core.Column, len(dbCols))
	processors := make([]func(any) any, len(dbCols))
	for i, col := range dbCols {
		header[i] = col.Name()
		columns[i] = &core.Column{Name: col.Name(), Type: c.typeName(col.DatabaseTypeName())}
		processors[i] = c.getTypeProcessor(col.DatabaseTypeName())
	}

	// Next is only called after a successful hasNext, so the cursor is
	// already positioned on the row to scan.
	hasNextFunc := func() bool {
		return dbRows.Next()
	}

	nextFunc := func() (core.Row, error) {
		values := make([]any, len(dbCols))
		pointers := make([]any, len(dbCols))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := dbRows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(core.Row, len(dbCols))
		for i := range values {
			row[i] = processors[i](values[i])
		}

		return row, nil
	}

	rows := NewResultStreamBuilder().
		WithNextFunc(nextFunc, hasNextFunc).
		WithHeader(header).
		WithColumns(columns).
		WithErrFunc(dbRows.Err).
		WithCloseFunc(func() {
			_ = dbRows.Close()
		}).
		Build()

	return rows, nil
}
