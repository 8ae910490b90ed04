package mock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/core/builders"
)

var _ core.DataClient[core.Row] = (*Client)(nil)

type table struct {
	columns []*core.Column
	rows    []core.Row
}

// Client is an in-memory DataClient. Tables are registered with
// ClientWithTable; ImportData records statements instead of running them.
type Client struct {
	config *clientConfig
	codec  core.RowCodec

	mu       sync.Mutex
	executed []string
	closed   int
}

func NewClient(opts ...ClientOption) *Client {
	config := &clientConfig{
		defaultTable:     core.DefaultTable,
		format:           core.DataFormatCSV,
		querySideEffects: make(map[string]func(context.Context) error),
		tables:           make(map[string]*table),
	}
	for _, opt := range opts {
		opt(config)
	}

	codec, err := core.NewRowCodec(config.format)
	if err != nil {
		panic(err)
	}

	return &Client{
		config: config,
		codec:  codec,
	}
}

func (c *Client) sideEffect(ctx context.Context, query string) error {
	eff, ok := c.config.querySideEffects[query]
	if !ok {
		return nil
	}
	if err := eff(ctx); err != nil {
		return fmt.Errorf("side effect error: %w", err)
	}
	return nil
}

func (c *Client) GetDataByTitle(ctx context.Context) (*core.Consumable, error) {
	consumable, _, err := c.Fetch(ctx, "SELECT * FROM "+c.config.defaultTable)
	return consumable, err
}

// Fetch understands "SELECT * FROM <table>" for registered tables only.
func (c *Client) Fetch(ctx context.Context, query string) (*core.Consumable, []*core.Column, error) {
	if c.isClosed() {
		return nil, nil, &core.QueryError{Query: query, Err: core.ErrClientClosed}
	}

	if err := c.sideEffect(ctx, query); err != nil {
		return nil, nil, &core.QueryError{Query: query, Err: err}
	}

	name, ok := strings.CutPrefix(query, "SELECT * FROM ")
	if !ok {
		return nil, nil, &core.QueryError{Query: query, Err: errors.New("unsupported query")}
	}
	t, ok := c.config.tables[name]
	if !ok {
		return nil, nil, &core.QueryError{Query: query, Err: fmt.Errorf("unknown table: %s", name)}
	}

	rows, err := builders.Collect(t.stream())
	if err != nil {
		return nil, nil, &core.QueryError{Query: query, Err: err}
	}

	consumable, err := c.GetConsumableFromData(rows)
	if err != nil {
		return nil, nil, err
	}
	return consumable, t.columns, nil
}

// stream serves the table rows the way a backend cursor would.
func (t *table) stream() core.ResultStream {
	next, hasNext := builders.NextNil()
	if len(t.rows) > 0 {
		next, hasNext = builders.NextRows(t.rows)
	}

	header := make(core.Header, len(t.columns))
	for i, col := range t.columns {
		header[i] = col.Name
	}

	return builders.NewResultStreamBuilder().
		WithNextFunc(next, hasNext).
		WithHeader(header).
		WithColumns(t.columns).
		Build()
}

func (c *Client) Columns(_ context.Context, name string) ([]*core.Column, error) {
	t, ok := c.config.tables[name]
	if !ok {
		return nil, &core.QueryError{Query: name, Err: fmt.Errorf("unknown table: %s", name)}
	}
	return t.columns, nil
}

func (c *Client) GetConsumableFromData(rows []core.Row) (*core.Consumable, error) {
	data, err := core.EncodeRows(c.codec, rows)
	if err != nil {
		return nil, err
	}
	return core.NewFormattedConsumable(c.codec.Format(), data), nil
}

func (c *Client) ImportData(ctx context.Context, data *core.Consumable) error {
	statement, err := core.MakeTableQueryFromConsumable(data)
	if err != nil {
		return err
	}

	if err := c.sideEffect(ctx, statement); err != nil {
		return &core.ExecutionError{Statement: statement, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.executed = append(c.executed, statement)
	return nil
}

// Executed returns the statements passed to ImportData, in order.
func (c *Client) Executed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.executed...)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

// CloseCount reports how many times Close was called.
func (c *Client) CloseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) isClosed() bool {
	return c.CloseCount() > 0
}

// NewRows returns a slice of rows in form of:
//
//	{ <index>(int64), "row_<index>"(string) }
//
// where the first index is "from" and the last one is one less than "to".
func NewRows(from, to int) []core.Row {
	var rows []core.Row

	for i := from; i < to; i++ {
		rows = append(rows, core.Row{int64(i), fmt.Sprintf("row_%d", i)})
	}
	return rows
}
