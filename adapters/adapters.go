package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/core/builders"
)

var (
	errNoValidTypeAliases   = errors.New("no valid type aliases provided")
	ErrUnsupportedTypeAlias = errors.New("no driver registered for provided type alias")
)

// Adapter knows how to open a database/sql handle for one backend.
type Adapter interface {
	// Open creates the handle. It must not block on the network,
	// reachability is checked by Connect.
	Open(params *core.ConnectionParams) (*sql.DB, error)
	// TypeProcessors normalise driver specific values.
	TypeProcessors() []builders.ClientOption
	// ColumnsQuery lists name and type of a table's columns.
	// It's sprintf-ed with the table name.
	ColumnsQuery() string
}

// registeredAdapters holds implemented adapters - specific adapters register themselves in their init functions.
// The main reason is to be able to compile the binary without unsupported os/arch of specific drivers.
var registeredAdapters = make(map[string]Adapter)

// register registers a new adapter for specific database
func register(adapter Adapter, aliases ...string) error {
	if len(aliases) < 1 {
		return errNoValidTypeAliases
	}

	invalidCount := 0
	for _, alias := range aliases {
		if alias == "" {
			invalidCount++
			continue
		}
		registeredAdapters[alias] = adapter
	}

	if invalidCount == len(aliases) {
		return errNoValidTypeAliases
	}

	return nil
}

// Mux is an interface to all internal adapters.
type Mux struct{}

func (*Mux) GetAdapter(typ string) (Adapter, error) {
	value, ok := registeredAdapters[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTypeAlias, typ)
	}

	return value, nil
}

func (*Mux) AddAdapter(typ string, adapter Adapter) error {
	return register(adapter, typ)
}

// Types lists every registered alias.
func (*Mux) Types() []string {
	types := make([]string, 0, len(registeredAdapters))
	for alias := range registeredAdapters {
		types = append(types, alias)
	}
	sort.Strings(types)
	return types
}

// Connect expands the parameters, opens the backend registered for
// params.Type and pings it. On any failure the handle is released and
// a nil client is returned together with a *core.ConnectionError.
func Connect(ctx context.Context, params *core.ConnectionParams, opts ...Option) (*SQLClient, error) {
	expanded := params.Expand()

	if err := validateOptions(opts...); err != nil {
		return nil, &core.ConnectionError{Type: expanded.Type, Err: err}
	}

	adapter, err := new(Mux).GetAdapter(expanded.Type)
	if err != nil {
		return nil, &core.ConnectionError{Type: expanded.Type, Err: err}
	}

	db, err := adapter.Open(expanded)
	if err != nil {
		return nil, &core.ConnectionError{Type: expanded.Type, Err: fmt.Errorf("adapter.Open: %w", err)}
	}

	client, err := newSQLClient(db, expanded, adapter, opts...)
	if err != nil {
		_ = db.Close()
		return nil, &core.ConnectionError{Type: expanded.Type, Err: err}
	}
	if err := client.Ping(ctx); err != nil {
		_ = db.Close()
		client.cfg.logger.Warn("backend unreachable",
			"type", expanded.Type,
			"name", expanded.Name,
			"error", err,
		)
		return nil, &core.ConnectionError{Type: expanded.Type, Err: err}
	}

	client.cfg.logger.Debug("connected", "type", expanded.Type, "id", expanded.ID)
	return client, nil
}

// genericAdapter serves handles injected with NewSQLClient.
type genericAdapter struct{}

func (genericAdapter) Open(*core.ConnectionParams) (*sql.DB, error) {
	return nil, errors.New("generic adapter cannot open connections")
}

func (genericAdapter) TypeProcessors() []builders.ClientOption { return nil }

func (genericAdapter) ColumnsQuery() string {
	return informationSchemaColumns
}

const informationSchemaColumns = "SELECT column_name, data_type FROM information_schema.columns WHERE table_name = '%s' ORDER BY ordinal_position"
