package adapters

import (
	"database/sql"
	"fmt"
	"strconv"

	go_ora "github.com/sijms/go-ora/v2"

	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/core/builders"
)

// Register client
func init() {
	_ = register(&Oracle{}, "oracle")
}

var _ Adapter = (*Oracle)(nil)

const defaultOraclePort = 1521

type Oracle struct{}

// Open treats Database as the service name when no URL is given.
func (o *Oracle) Open(params *core.ConnectionParams) (*sql.DB, error) {
	url := params.URL
	if url == "" {
		port := defaultOraclePort
		if params.Port != "" {
			p, err := strconv.Atoi(params.Port)
			if err != nil {
				return nil, fmt.Errorf("invalid oracle port %q: %w", params.Port, err)
			}
			port = p
		}
		url = go_ora.BuildUrl(params.Host, port, params.Database, params.User, params.Password, nil)
	}

	db, err := sql.Open("oracle", url)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to oracle database: %w", err)
	}
	return db, nil
}

func (*Oracle) TypeProcessors() []builders.ClientOption {
	return []builders.ClientOption{
		builders.WithCustomTypeProcessor("raw", builders.KeepBytes),
		builders.WithCustomTypeProcessor("blob", builders.KeepBytes),
	}
}

func (*Oracle) ColumnsQuery() string {
	return "SELECT column_name, data_type FROM user_tab_columns WHERE table_name = UPPER('%s') ORDER BY column_id"
}
