package adapters

import (
	"database/sql"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/core/builders"
)

// Register client
func init() {
	_ = register(&Clickhouse{}, "clickhouse")
}

var _ Adapter = (*Clickhouse)(nil)

// Clickhouse sets default_table_engine to Log unless the DSN does.
// Statements from the DDL builder carry no ENGINE clause.
type Clickhouse struct{}

func (p *Clickhouse) Open(params *core.ConnectionParams) (*sql.DB, error) {
	options, err := clickhouse.ParseDSN(params.URLWithScheme("clickhouse"))
	if err != nil {
		return nil, fmt.Errorf("could not parse db connection string: %w", err)
	}

	if options.Settings == nil {
		options.Settings = clickhouse.Settings{}
	}
	if _, ok := options.Settings["default_table_engine"]; !ok {
		options.Settings["default_table_engine"] = "Log"
	}

	return clickhouse.OpenDB(options), nil
}

func (*Clickhouse) TypeProcessors() []builders.ClientOption {
	return nil
}

func (*Clickhouse) ColumnsQuery() string {
	return "SELECT name, type FROM system.columns WHERE database = currentDatabase() AND table = '%s' ORDER BY position"
}
