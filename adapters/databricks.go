package adapters

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/databricks/databricks-sql-go"

	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/core/builders"
)

// Register client
func init() {
	_ = register(&Databricks{}, "databricks")
}

var _ Adapter = (*Databricks)(nil)

var errMissingCatalog = errors.New("required parameter '?catalog=<catalog>' is missing")

type Databricks struct{}

// Open expects a DSN in URL of the form:
//
// token:[my_token]@[hostname]:[port]/[endpoint http path]?catalog=value
//
// see https://github.com/databricks/databricks-sql-go for more information.
func (d *Databricks) Open(params *core.ConnectionParams) (*sql.DB, error) {
	parsedURL, err := url.Parse(params.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if parsedURL.Query().Get("catalog") == "" {
		return nil, errMissingCatalog
	}

	db, err := sql.Open("databricks", parsedURL.String())
	if err != nil {
		return nil, fmt.Errorf("invalid databricks connection string: %w", err)
	}
	return db, nil
}

func (*Databricks) TypeProcessors() []builders.ClientOption {
	return []builders.ClientOption{
		builders.WithCustomTypeProcessor("binary", builders.KeepBytes),
	}
}

func (*Databricks) ColumnsQuery() string {
	return "SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = '%s' ORDER BY ordinal_position"
}
