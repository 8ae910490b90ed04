package adapters

import (
	"database/sql"
	"fmt"
	"net/url"

	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/core/builders"
)

// Redshift speaks the postgres wire protocol, so it's served by lib/pq.
func init() {
	_ = register(&Redshift{}, "redshift")
}

var _ Adapter = (*Redshift)(nil)

type Redshift struct{}

func (r *Redshift) Open(params *core.ConnectionParams) (*sql.DB, error) {
	connURL, err := url.Parse(params.URLWithScheme("postgres"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	db, err := sql.Open("postgres", connURL.String())
	if err != nil {
		return nil, fmt.Errorf("unable to connect to redshift: %w", err)
	}
	return db, nil
}

func (*Redshift) TypeProcessors() []builders.ClientOption {
	return nil
}

// ColumnsQuery uses svv_columns, information_schema misses late binding views.
func (*Redshift) ColumnsQuery() string {
	return "SELECT column_name, data_type FROM svv_columns WHERE table_name = '%s' ORDER BY ordinal_position"
}
