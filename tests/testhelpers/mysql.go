package testhelpers

import (
	"context"

	tc "github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/foundation-data/datalib/adapters"
	"github.com/foundation-data/datalib/core"
)

type MySQLContainer struct {
	*tcmysql.MySQLContainer
	ConnURL string
}

// NewMySQLContainer starts mysql seeded with mysql_seed.sql.
func NewMySQLContainer(ctx context.Context) (*MySQLContainer, error) {
	seedFile, err := GetTestDataFile("mysql_seed.sql")
	if err != nil {
		return nil, err
	}

	ctr, err := tcmysql.Run(
		ctx,
		"mysql:9.2.0",
		tc.CustomizeRequest(tc.GenericContainerRequest{
			ProviderType: GetContainerProvider(),
		}),
		tcmysql.WithDatabase("dev"),
		tcmysql.WithPassword("password"),
		tcmysql.WithUsername("root"),
		tcmysql.WithScripts(seedFile.Name()),
	)
	if err != nil {
		return nil, err
	}

	connURL, err := ctr.ConnectionString(ctx, "tls=skip-verify")
	if err != nil {
		return nil, err
	}

	return &MySQLContainer{
		MySQLContainer: ctr,
		ConnURL:        connURL,
	}, nil
}

func (p *MySQLContainer) NewClient(ctx context.Context, params *core.ConnectionParams, opts ...adapters.Option) (*adapters.SQLClient, error) {
	return connect(ctx, params, "mysql", p.ConnURL, opts...)
}
