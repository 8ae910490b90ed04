// Package cli implements the datalib command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foundation-data/datalib/adapters"
	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/internal/observe"
)

var errNoBackendType = errors.New("no backend type configured, set --type or connection.type")

// Client is what the commands need from a backend.
type Client interface {
	GetDataByTitle(ctx context.Context) (*core.Consumable, error)
	ImportData(ctx context.Context, data *core.Consumable) error
	Fetch(ctx context.Context, query string) (*core.Consumable, []*core.Column, error)
	Columns(ctx context.Context, table string) ([]*core.Column, error)
	Close() error
}

// Connector opens a client for the given parameters.
type Connector func(ctx context.Context, params *core.ConnectionParams, opts ...adapters.Option) (Client, error)

// Connect is the default Connector. Type pgx uses the native pgx client,
// everything else goes through the adapter registry.
func Connect(ctx context.Context, params *core.ConnectionParams, opts ...adapters.Option) (Client, error) {
	if params.Type == "pgx" {
		c, err := adapters.ConnectPgx(ctx, params, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	c, err := adapters.Connect(ctx, params, opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type app struct {
	v         *viper.Viper
	connector Connector

	configPath string
	config     *Config
	logger     *slog.Logger
	registry   *prometheus.Registry
	metrics    *observe.Metrics
}

type Option func(*app)

// WithConnector replaces how commands reach backends.
func WithConnector(connector Connector) Option {
	return func(a *app) {
		a.connector = connector
	}
}

func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{
		v:         newViper(),
		connector: Connect,
	}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:           "datalib",
		Short:         "Read tables as consumables and create tables from schema descriptors",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.writeMetrics()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (yaml, json or toml)")
	flags.String("type", "", "backend type, e.g. postgres, pgx, mysql, sqlite")
	flags.String("url", "", "backend connection string")
	flags.String("table", core.DefaultTable, "default table")
	flags.String("data-format", core.DataFormatCSV.String(), "consumable layout: csv or text")
	flags.String("format", "table", "output format: table, json or csv")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.Duration("timeout", adapters.DefaultTimeout, "deadline of every backend call")
	flags.String("metrics-file", "", "write prometheus metrics to this file on exit")

	for key, flag := range map[string]string{
		"connection.type": "type",
		"connection.url":  "url",
		"table":           "table",
		"data_format":     "data-format",
		"output":          "format",
		"log_level":       "log-level",
		"timeout":         "timeout",
		"metrics_file":    "metrics-file",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		a.fetchCommand(),
		a.importCommand(),
		a.ddlCommand(),
		a.copySchemaCommand(),
		a.materialsCommand(),
		a.typesCommand(),
	)

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	config, err := loadConfig(a.v, a.configPath)
	if err != nil {
		return err
	}
	a.config = config

	a.logger = observe.NewLogger(cmd.ErrOrStderr(), config.LogLevel)
	slog.SetDefault(a.logger)

	a.registry = prometheus.NewRegistry()
	a.metrics, err = observe.NewMetrics(a.registry)
	if err != nil {
		return fmt.Errorf("observe.NewMetrics: %w", err)
	}

	return nil
}

func (a *app) writeMetrics() error {
	if a.config == nil || a.config.MetricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.config.MetricsFile, a.registry); err != nil {
		return fmt.Errorf("prometheus.WriteToTextfile: %w", err)
	}
	return nil
}

func (a *app) clientOptions() ([]adapters.Option, error) {
	dataFormat, err := core.ParseDataFormat(a.config.DataFormat)
	if err != nil {
		return nil, err
	}

	return []adapters.Option{
		adapters.WithLogger(a.logger),
		adapters.WithTimeout(a.config.Timeout),
		adapters.WithDefaultTable(a.config.Table),
		adapters.WithDataFormat(dataFormat),
		adapters.WithMetrics(a.metrics),
	}, nil
}

func (a *app) connect(ctx context.Context, params *core.ConnectionParams) (Client, error) {
	if params.Type == "" {
		return nil, errNoBackendType
	}

	opts, err := a.clientOptions()
	if err != nil {
		return nil, err
	}

	return a.connector(ctx, params, opts...)
}
