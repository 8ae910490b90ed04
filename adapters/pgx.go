package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/foundation-data/datalib/core"
)

const pgxType = "pgx"

var _ core.DataClient[PgxRow] = (*PgxClient)(nil)

// PgxRow is a row as returned by pgx, with the field descriptions needed
// to interpret its values.
type PgxRow struct {
	Fields []pgconn.FieldDescription
	Values []any
}

// PgxClient is a DataClient talking to postgres through a native pgx
// connection instead of database/sql.
type PgxClient struct {
	conn  *pgx.Conn
	codec core.RowCodec
	cfg   clientConfig

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// ConnectPgx connects to postgres. On failure it returns a nil client and
// a *core.ConnectionError.
func ConnectPgx(ctx context.Context, params *core.ConnectionParams, opts ...Option) (*PgxClient, error) {
	expanded := params.Expand()
	cfg := newClientConfig(opts...)

	if err := validateOptions(opts...); err != nil {
		return nil, &core.ConnectionError{Type: pgxType, Err: err}
	}

	ctx, cancel := withDeadline(ctx, cfg.timeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, expanded.URLWithScheme("postgres"))
	if err != nil {
		cfg.logger.Warn("backend unreachable", "type", pgxType, "name", expanded.Name, "error", err)
		return nil, &core.ConnectionError{Type: pgxType, Err: err}
	}

	client, err := NewPgxClient(conn, opts...)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, &core.ConnectionError{Type: pgxType, Err: err}
	}
	return client, nil
}

// NewPgxClient wraps a connection opened by the caller. The client takes
// ownership of conn and closes it on Close.
func NewPgxClient(conn *pgx.Conn, opts ...Option) (*PgxClient, error) {
	cfg := newClientConfig(opts...)

	codec, err := core.NewRowCodec(cfg.format)
	if err != nil {
		return nil, fmt.Errorf("core.NewRowCodec: %w", err)
	}

	return &PgxClient{
		conn:  conn,
		codec: codec,
		cfg:   cfg,
	}, nil
}

func (c *PgxClient) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return core.ErrClientClosed
	}

	ctx, cancel := withDeadline(ctx, c.cfg.timeout)
	defer cancel()

	c.cfg.metrics.Operation(pgxType, "ping")
	if err := c.conn.Ping(ctx); err != nil {
		c.cfg.metrics.Failure(pgxType, "ping")
		return err
	}
	return nil
}

func (c *PgxClient) GetDataByTitle(ctx context.Context) (*core.Consumable, error) {
	consumable, _, err := c.Fetch(ctx, "SELECT * FROM "+c.cfg.table)
	if err != nil {
		return nil, err
	}
	return consumable, nil
}

// Fetch runs a read query and returns the encoded rows with column metadata.
func (c *PgxClient) Fetch(ctx context.Context, query string) (*core.Consumable, []*core.Column, error) {
	if c.closed.Load() {
		return nil, nil, &core.QueryError{Query: query, Err: core.ErrClientClosed}
	}

	ctx, cancel := withDeadline(ctx, c.cfg.timeout)
	defer cancel()

	c.cfg.logger.Debug("query", "type", pgxType, "query", query)
	c.cfg.metrics.Operation(pgxType, "query")

	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return nil, nil, c.readError(query, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()

	var data []PgxRow
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, c.readError(query, err)
		}
		keepRawJSON(fields, values, rows.RawValues())
		data = append(data, PgxRow{Fields: fields, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, c.readError(query, err)
	}

	consumable, err := c.GetConsumableFromData(data)
	if err != nil {
		return nil, nil, err
	}

	return consumable, c.columns(fields), nil
}

func (c *PgxClient) columns(fields []pgconn.FieldDescription) []*core.Column {
	columns := make([]*core.Column, len(fields))
	for i, field := range fields {
		typ := ""
		if t, ok := c.conn.TypeMap().TypeForOID(field.DataTypeOID); ok {
			typ = t.Name
		}
		columns[i] = &core.Column{Name: field.Name, Type: typ}
	}
	return columns
}

func (c *PgxClient) readError(query string, err error) error {
	c.cfg.metrics.Failure(pgxType, "query")
	c.cfg.logger.Warn("query failed", "type", pgxType, "query", query, "error", err)

	if c.conn.IsClosed() || isConnectionFailure(err) {
		return &core.ConnectionError{Type: pgxType, Err: err}
	}
	return &core.QueryError{Query: query, Err: err}
}

// GetConsumableFromData encodes pgx rows without touching the backend.
func (c *PgxClient) GetConsumableFromData(rows []PgxRow) (*core.Consumable, error) {
	converted := make([]core.Row, len(rows))
	for i, row := range rows {
		r, err := pgxToRow(row)
		if err != nil {
			var decodeErr *core.DecodeError
			if errors.As(err, &decodeErr) {
				decodeErr.Row = i
			}
			return nil, err
		}
		converted[i] = r
	}

	data, err := core.EncodeRows(c.codec, converted)
	if err != nil {
		return nil, err
	}

	c.cfg.metrics.RowsEncoded(pgxType, len(data))
	return core.NewFormattedConsumable(c.codec.Format(), data), nil
}

// keepRawJSON replaces decoded json and jsonb values with the text the
// server sent, so numbers, key order and spacing survive untouched.
func keepRawJSON(fields []pgconn.FieldDescription, values []any, raw [][]byte) {
	for i, field := range fields {
		if i >= len(values) || i >= len(raw) {
			return
		}
		if field.DataTypeOID != pgtype.JSONOID && field.DataTypeOID != pgtype.JSONBOID {
			continue
		}
		if raw[i] == nil {
			values[i] = nil
			continue
		}

		text := raw[i]
		// binary jsonb is the text form behind a version byte
		if field.DataTypeOID == pgtype.JSONBOID && field.Format == pgtype.BinaryFormatCode && len(text) > 0 && text[0] == 1 {
			text = text[1:]
		}
		values[i] = string(text)
	}
}

// pgxToRow reduces values pgx decodes into structured types to ones the
// row codec understands.
func pgxToRow(row PgxRow) (core.Row, error) {
	out := make(core.Row, len(row.Values))
	for i, v := range row.Values {
		if v == nil || i >= len(row.Fields) {
			out[i] = v
			continue
		}

		switch row.Fields[i].DataTypeOID {
		case pgtype.UUIDOID:
			if b, ok := v.([16]byte); ok {
				v = uuid.UUID(b).String()
			}
		case pgtype.JSONOID, pgtype.JSONBOID:
			switch raw := v.(type) {
			case string:
				out[i] = raw
				continue
			case []byte:
				out[i] = string(raw)
				continue
			}
			b, err := json.Marshal(v)
			if err != nil {
				return nil, &core.DecodeError{Row: -1, Column: i, Value: v, Err: fmt.Errorf("json.Marshal: %w", err)}
			}
			v = string(b)
		}
		out[i] = v
	}
	return out, nil
}

// Columns lists name and type of every column of table.
func (c *PgxClient) Columns(ctx context.Context, table string) ([]*core.Column, error) {
	query := fmt.Sprintf(new(Postgres).ColumnsQuery(), table)
	if c.closed.Load() {
		return nil, &core.QueryError{Query: query, Err: core.ErrClientClosed}
	}

	ctx, cancel := withDeadline(ctx, c.cfg.timeout)
	defer cancel()

	c.cfg.metrics.Operation(pgxType, "columns")

	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return nil, c.readError(query, err)
	}

	columns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*core.Column, error) {
		var col core.Column
		err := row.Scan(&col.Name, &col.Type)
		return &col, err
	})
	if err != nil {
		return nil, c.readError(query, err)
	}
	return columns, nil
}

// ImportData creates the table described by the schema consumable.
func (c *PgxClient) ImportData(ctx context.Context, data *core.Consumable) error {
	statement, err := core.MakeTableQueryFromConsumable(data)
	if err != nil {
		return err
	}

	if c.closed.Load() {
		return &core.ExecutionError{Statement: statement, Err: core.ErrClientClosed}
	}

	ctx, cancel := withDeadline(ctx, c.cfg.timeout)
	defer cancel()

	c.cfg.logger.Debug("exec", "type", pgxType, "statement", statement)
	c.cfg.metrics.Operation(pgxType, "exec")

	if _, err := c.conn.Exec(ctx, statement); err != nil {
		c.cfg.metrics.Failure(pgxType, "exec")
		c.cfg.logger.Warn("exec failed", "type", pgxType, "statement", statement, "error", err)
		return &core.ExecutionError{Statement: statement, Err: err}
	}
	return nil
}

// Close releases the connection. Only the first call has an effect.
func (c *PgxClient) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		ctx, cancel := withDeadline(context.Background(), c.cfg.timeout)
		defer cancel()
		c.closeErr = c.conn.Close(ctx)
	})
	return c.closeErr
}
