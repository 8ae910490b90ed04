package adapters

import (
	"database/sql"
	"fmt"
	nurl "net/url"

	mssql "github.com/microsoft/go-mssqldb"
	_ "github.com/microsoft/go-mssqldb/integratedauth/krb5"

	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/core/builders"
)

// Register client
func init() {
	_ = register(&SQLServer{}, "sqlserver", "mssql")
}

var _ Adapter = (*SQLServer)(nil)

type SQLServer struct{}

func (s *SQLServer) Open(params *core.ConnectionParams) (*sql.DB, error) {
	u, err := nurl.Parse(sqlServerURL(params))
	if err != nil {
		return nil, fmt.Errorf("could not parse db connection string: %w", err)
	}

	db, err := sql.Open("sqlserver", u.String())
	if err != nil {
		return nil, fmt.Errorf("unable to connect to sqlserver database: %w", err)
	}
	return db, nil
}

// sqlServerURL passes the database as a query parameter, the driver reads
// the path as an instance name.
func sqlServerURL(params *core.ConnectionParams) string {
	if params.URL != "" {
		return params.URL
	}

	withoutDB := *params
	withoutDB.Database = ""
	raw := withoutDB.URLWithScheme("sqlserver")
	if params.Database == "" {
		return raw
	}
	return raw + "?" + nurl.Values{"database": {params.Database}}.Encode()
}

func (*SQLServer) TypeProcessors() []builders.ClientOption {
	return []builders.ClientOption{
		builders.WithCustomTypeProcessor("uniqueidentifier", func(a any) any {
			b, ok := a.([]byte)
			if !ok {
				return a
			}

			var id mssql.UniqueIdentifier
			if err := id.Scan(b); err != nil {
				return a
			}
			return id.String()
		}),
		builders.WithCustomTypeProcessor("varbinary", builders.KeepBytes),
		builders.WithCustomTypeProcessor("binary", builders.KeepBytes),
		builders.WithCustomTypeProcessor("image", builders.KeepBytes),
	}
}

func (*SQLServer) ColumnsQuery() string {
	return "SELECT column_name, data_type FROM information_schema.columns WHERE table_name = '%s' ORDER BY ordinal_position"
}
