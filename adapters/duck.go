//go:build cgo && ((darwin && (amd64 || arm64)) || (linux && (amd64 || arm64 || riscv64)))

package adapters

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/core/builders"
)

// Register client
func init() {
	_ = register(&Duck{}, "duck", "duckdb")
}

var _ Adapter = (*Duck)(nil)

type Duck struct{}

// Open uses URL as the database path, falling back to Database.
// An empty path opens an in-memory database.
func (d *Duck) Open(params *core.ConnectionParams) (*sql.DB, error) {
	path := params.URL
	if path == "" {
		path = params.Database
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to duckdb database: %w", err)
	}
	return db, nil
}

func (*Duck) TypeProcessors() []builders.ClientOption {
	return []builders.ClientOption{
		builders.WithCustomTypeProcessor("blob", builders.KeepBytes),
		builders.WithCustomTypeProcessor("uuid", func(a any) any {
			switch v := a.(type) {
			case [16]byte:
				return uuid.UUID(v).String()
			case []byte:
				id, err := uuid.FromBytes(v)
				if err != nil {
					return string(v)
				}
				return id.String()
			default:
				return a
			}
		}),
	}
}

func (*Duck) ColumnsQuery() string {
	return "SELECT column_name, data_type FROM information_schema.columns WHERE table_name = '%s' ORDER BY ordinal_position"
}
