package testhelpers

import (
	"context"

	tc "github.com/testcontainers/testcontainers-go"
	tcpsql "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/foundation-data/datalib/adapters"
	"github.com/foundation-data/datalib/core"
)

type PostgresContainer struct {
	*tcpsql.PostgresContainer
	ConnURL string
}

// NewPostgresContainer starts postgres seeded with postgres_seed.sql.
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	seedFile, err := GetTestDataFile("postgres_seed.sql")
	if err != nil {
		return nil, err
	}

	ctr, err := tcpsql.Run(
		ctx,
		"postgres:16-alpine",
		tcpsql.BasicWaitStrategies(),
		tc.CustomizeRequest(tc.GenericContainerRequest{
			ProviderType: GetContainerProvider(),
		}),
		tcpsql.WithInitScripts(seedFile.Name()),
		tcpsql.WithDatabase("dev"),
	)
	if err != nil {
		return nil, err
	}

	connURL, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, err
	}

	return &PostgresContainer{
		PostgresContainer: ctr,
		ConnURL:           connURL,
	}, nil
}

// NewClient connects a lib/pq client unless params say otherwise.
func (p *PostgresContainer) NewClient(ctx context.Context, params *core.ConnectionParams, opts ...adapters.Option) (*adapters.SQLClient, error) {
	return connect(ctx, params, "postgres", p.ConnURL, opts...)
}

// NewPgxClient connects a native pgx client.
func (p *PostgresContainer) NewPgxClient(ctx context.Context, opts ...adapters.Option) (*adapters.PgxClient, error) {
	return adapters.ConnectPgx(ctx, &core.ConnectionParams{URL: p.ConnURL}, opts...)
}
