package integration

import (
	"context"
	"log"
	"testing"

	tsuite "github.com/stretchr/testify/suite"
	tc "github.com/testcontainers/testcontainers-go"

	"github.com/foundation-data/datalib/adapters"
	"github.com/foundation-data/datalib/core"
	th "github.com/foundation-data/datalib/tests/testhelpers"
)

// ClickHouseTestSuite runs the relational checks against clickhouse.
type ClickHouseTestSuite struct {
	relationalSuite
	ctr *th.ClickHouseContainer
}

// TestClickHouseTestSuite is the entrypoint for go test.
func TestClickHouseTestSuite(t *testing.T) {
	tsuite.Run(t, new(ClickHouseTestSuite))
}

func (suite *ClickHouseTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	ctr, err := th.NewClickHouseContainer(suite.ctx)
	if err != nil {
		log.Fatal(err)
	}
	suite.ctr = ctr

	suite.newClient = func() (*adapters.SQLClient, error) {
		return ctr.NewClient(suite.ctx, &core.ConnectionParams{})
	}
	if suite.client, err = suite.newClient(); err != nil {
		log.Fatal(err)
	}

	suite.wantRows = []core.Row{
		{int64(1), "granite", 2.75},
		{int64(2), "basalt, dark", nil},
	}
	// tables without an engine fall back to the default_table_engine
	suite.importColumns = []string{"id Int64", "name String"}
	suite.copySchema = true
}

func (suite *ClickHouseTestSuite) TearDownSuite() {
	_ = suite.client.Close()
	tc.CleanupContainer(suite.T(), suite.ctr)
}
