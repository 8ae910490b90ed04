package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/core/builders"
	"github.com/foundation-data/datalib/internal/observe"
)

// DefaultTimeout bounds every backend call whose context has no deadline.
const DefaultTimeout = 30 * time.Second

type clientConfig struct {
	logger       *slog.Logger
	timeout      time.Duration
	table        string
	format       core.DataFormat
	processors   []builders.ClientOption
	columnsQuery string
	metrics      *observe.Metrics
}

type Option func(*clientConfig)

func newClientConfig(opts ...Option) clientConfig {
	cfg := clientConfig{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
		table:   core.DefaultTable,
		format:  core.DataFormatCSV,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *clientConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithTimeout sets the deadline applied to calls made without one.
// Zero or negative disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *clientConfig) {
		cfg.timeout = timeout
	}
}

// WithDefaultTable sets the table read by GetDataByTitle.
func WithDefaultTable(table string) Option {
	return func(cfg *clientConfig) {
		if table != "" {
			cfg.table = table
		}
	}
}

func WithDataFormat(format core.DataFormat) Option {
	return func(cfg *clientConfig) {
		cfg.format = format
	}
}

// WithTypeProcessor overrides the backend's handling of a database type.
func WithTypeProcessor(typ string, fn func(any) any) Option {
	return func(cfg *clientConfig) {
		cfg.processors = append(cfg.processors, builders.WithCustomTypeProcessor(typ, fn))
	}
}

// WithColumnsQuery replaces the backend's column listing query.
// It's sprintf-ed with the table name.
func WithColumnsQuery(query string) Option {
	return func(cfg *clientConfig) {
		cfg.columnsQuery = query
	}
}

func WithMetrics(metrics *observe.Metrics) Option {
	return func(cfg *clientConfig) {
		cfg.metrics = metrics
	}
}

// withDeadline keeps the caller's deadline if there is one.
func withDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// validateOptions rejects configurations no client can be built with,
// before anything is opened.
func validateOptions(opts ...Option) error {
	cfg := newClientConfig(opts...)
	if _, err := core.NewRowCodec(cfg.format); err != nil {
		return fmt.Errorf("core.NewRowCodec: %w", err)
	}
	return nil
}
