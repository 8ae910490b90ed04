//go:build cgo && ((darwin && (amd64 || arm64)) || (linux && (amd64 || arm64 || riscv64)))

package adapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/foundation-data/datalib/adapters"
	"github.com/foundation-data/datalib/core"
)

func TestDuck_ImportAndRead(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	client, err := adapters.Connect(ctx, &core.ConnectionParams{Type: "duckdb"}, adapters.WithDefaultTable("materials"))
	r.NoError(err)
	defer client.Close()

	r.NoError(client.ImportData(ctx, core.NewConsumable([]string{"materials", "id BIGINT", "name VARCHAR"})))

	columns, err := client.Columns(ctx, "materials")
	r.NoError(err)
	r.Equal([]*core.Column{{Name: "id", Type: "BIGINT"}, {Name: "name", Type: "VARCHAR"}}, columns)

	got, err := client.GetDataByTitle(ctx)
	r.NoError(err)
	r.Equal(0, got.Len())
}
