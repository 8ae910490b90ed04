package adapters

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/core/builders"
)

var _ core.DataClient[core.Row] = (*SQLClient)(nil)

// SQLClient is a DataClient for every database/sql backend.
type SQLClient struct {
	c            *builders.Client
	typ          string
	params       *core.ConnectionParams
	codec        core.RowCodec
	columnsQuery string
	cfg          clientConfig

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewSQLClient wraps a handle opened by the caller. The client takes
// ownership of db and closes it on Close.
func NewSQLClient(db *sql.DB, opts ...Option) (*SQLClient, error) {
	return newSQLClient(db, &core.ConnectionParams{Type: "sql"}, genericAdapter{}, opts...)
}

func newSQLClient(db *sql.DB, params *core.ConnectionParams, adapter Adapter, opts ...Option) (*SQLClient, error) {
	cfg := newClientConfig(opts...)

	codec, err := core.NewRowCodec(cfg.format)
	if err != nil {
		return nil, fmt.Errorf("core.NewRowCodec: %w", err)
	}

	columnsQuery := cfg.columnsQuery
	if columnsQuery == "" {
		columnsQuery = adapter.ColumnsQuery()
	}

	// caller processors are registered first so they take precedence
	processors := append([]builders.ClientOption{}, cfg.processors...)
	processors = append(processors, adapter.TypeProcessors()...)

	return &SQLClient{
		c:            builders.NewClient(db, processors...),
		typ:          params.Type,
		params:       params,
		codec:        codec,
		columnsQuery: columnsQuery,
		cfg:          cfg,
	}, nil
}

// Params returns the expanded connection parameters.
func (c *SQLClient) Params() *core.ConnectionParams {
	return c.params
}

func (c *SQLClient) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return core.ErrClientClosed
	}

	ctx, cancel := withDeadline(ctx, c.cfg.timeout)
	defer cancel()

	c.cfg.metrics.Operation(c.typ, "ping")
	if err := c.c.Ping(ctx); err != nil {
		c.cfg.metrics.Failure(c.typ, "ping")
		return err
	}
	return nil
}

// GetDataByTitle reads the whole default table.
func (c *SQLClient) GetDataByTitle(ctx context.Context) (*core.Consumable, error) {
	consumable, _, err := c.Fetch(ctx, "SELECT * FROM "+c.cfg.table)
	if err != nil {
		return nil, err
	}
	return consumable, nil
}

// Fetch runs an arbitrary read query and returns the encoded rows together
// with the column metadata needed to decode them.
func (c *SQLClient) Fetch(ctx context.Context, query string) (*core.Consumable, []*core.Column, error) {
	rows, columns, err := c.query(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	consumable, err := c.GetConsumableFromData(rows)
	if err != nil {
		return nil, nil, err
	}

	return consumable, columns, nil
}

func (c *SQLClient) query(ctx context.Context, query string) ([]core.Row, []*core.Column, error) {
	if c.closed.Load() {
		return nil, nil, &core.QueryError{Query: query, Err: core.ErrClientClosed}
	}

	ctx, cancel := withDeadline(ctx, c.cfg.timeout)
	defer cancel()

	c.cfg.logger.Debug("query", "type", c.typ, "query", query)
	c.cfg.metrics.Operation(c.typ, "query")

	stream, err := c.c.Query(ctx, query)
	if err != nil {
		return nil, nil, c.readError(query, err)
	}

	rows, err := builders.Collect(stream)
	if err != nil {
		return nil, nil, c.readError(query, err)
	}

	return rows, stream.Columns(), nil
}

func (c *SQLClient) readError(query string, err error) error {
	c.cfg.metrics.Failure(c.typ, "query")
	c.cfg.logger.Warn("query failed", "type", c.typ, "query", query, "error", err)

	if isConnectionFailure(err) {
		return &core.ConnectionError{Type: c.typ, Err: err}
	}
	return &core.QueryError{Query: query, Err: err}
}

// GetConsumableFromData encodes rows without touching the backend.
func (c *SQLClient) GetConsumableFromData(rows []core.Row) (*core.Consumable, error) {
	data, err := core.EncodeRows(c.codec, rows)
	if err != nil {
		return nil, err
	}

	c.cfg.metrics.RowsEncoded(c.typ, len(data))
	return core.NewFormattedConsumable(c.codec.Format(), data), nil
}

// ImportData creates the table described by the schema consumable.
func (c *SQLClient) ImportData(ctx context.Context, data *core.Consumable) error {
	statement, err := core.MakeTableQueryFromConsumable(data)
	if err != nil {
		return err
	}

	if c.closed.Load() {
		return &core.ExecutionError{Statement: statement, Err: core.ErrClientClosed}
	}

	ctx, cancel := withDeadline(ctx, c.cfg.timeout)
	defer cancel()

	c.cfg.logger.Debug("exec", "type", c.typ, "statement", statement)
	c.cfg.metrics.Operation(c.typ, "exec")

	result, err := c.c.Exec(ctx, statement)
	if err != nil {
		c.cfg.metrics.Failure(c.typ, "exec")
		c.cfg.logger.Warn("exec failed", "type", c.typ, "statement", statement, "error", err)
		return &core.ExecutionError{Statement: statement, Err: err}
	}
	result.Close()

	return nil
}

// Columns lists name and type of every column of table.
func (c *SQLClient) Columns(ctx context.Context, table string) ([]*core.Column, error) {
	if c.closed.Load() {
		return nil, &core.QueryError{Query: c.columnsQuery, Err: core.ErrClientClosed}
	}

	ctx, cancel := withDeadline(ctx, c.cfg.timeout)
	defer cancel()

	c.cfg.metrics.Operation(c.typ, "columns")

	columns, err := c.c.ColumnsFromQuery(ctx, c.columnsQuery, table)
	if err != nil {
		return nil, c.readError(c.columnsQuery, err)
	}
	return columns, nil
}

// Close releases the connection. Only the first call has an effect.
func (c *SQLClient) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.c.Close()
		c.cfg.logger.Debug("closed", "type", c.typ)
	})
	return c.closeErr
}

func isConnectionFailure(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.As(err, &netErr)
}
