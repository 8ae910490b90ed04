package adapters

import (
	"database/sql"
	"fmt"
	nurl "net/url"

	_ "github.com/lib/pq"

	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/core/builders"
)

// Register client
func init() {
	_ = register(&Postgres{}, "postgres", "postgresql", "pg")
}

var _ Adapter = (*Postgres)(nil)

type Postgres struct{}

func (p *Postgres) Open(params *core.ConnectionParams) (*sql.DB, error) {
	u, err := nurl.Parse(params.URLWithScheme("postgres"))
	if err != nil {
		return nil, fmt.Errorf("could not parse db connection string: %w", err)
	}

	db, err := sql.Open("postgres", u.String())
	if err != nil {
		return nil, fmt.Errorf("unable to connect to postgres database: %w", err)
	}
	return db, nil
}

// TypeProcessors: lib/pq returns text for json, numeric and uuid, which is
// what the codec stores, so only binary columns need special handling.
func (*Postgres) TypeProcessors() []builders.ClientOption {
	return []builders.ClientOption{
		builders.WithCustomTypeProcessor("bytea", builders.KeepBytes),
	}
}

func (*Postgres) ColumnsQuery() string {
	return "SELECT column_name::text, data_type::text FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = '%s' ORDER BY ordinal_position"
}
