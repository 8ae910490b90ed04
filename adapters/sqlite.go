//go:build (darwin && (amd64 || arm64)) || (freebsd && (386 || amd64 || arm || arm64)) || (linux && (386 || amd64 || arm || arm64 || ppc64le || riscv64 || s390x)) || (netbsd && amd64) || (openbsd && (amd64 || arm64)) || (windows && (amd64 || arm64))

package adapters

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/core/builders"
)

// Register client
func init() {
	_ = register(&SQLite{}, "sqlite", "sqlite3")
}

var _ Adapter = (*SQLite)(nil)

type SQLite struct{}

// Open uses URL as the data source name, falling back to Database.
// An empty source opens a private in-memory database.
func (s *SQLite) Open(params *core.ConnectionParams) (*sql.DB, error) {
	dsn := params.URL
	if dsn == "" {
		dsn = params.Database
	}
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to sqlite database: %w", err)
	}

	// every pooled connection to :memory: would be a different database
	db.SetMaxOpenConns(1)

	return db, nil
}

func (*SQLite) TypeProcessors() []builders.ClientOption {
	return []builders.ClientOption{
		builders.WithCustomTypeProcessor("blob", builders.KeepBytes),
	}
}

func (*SQLite) ColumnsQuery() string {
	return "SELECT name, type FROM pragma_table_info('%s')"
}
