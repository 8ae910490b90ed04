package testhelpers

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/api/types/container"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/foundation-data/datalib/adapters"
	"github.com/foundation-data/datalib/core"
)

type OracleContainer struct {
	tc.Container
	ConnURL string
}

// NewOracleContainer starts oracle free with an application user and
// runs oracle_seed.sql on first start.
func NewOracleContainer(ctx context.Context) (*OracleContainer, error) {
	const (
		password      = "password"
		appUser       = "tester"
		port          = "1521/tcp"
		memoryLimitGB = 3 * 1024 * 1024 * 1024
	)

	seedFile, err := GetTestDataFile("oracle_seed.sql")
	if err != nil {
		return nil, err
	}

	req := tc.ContainerRequest{
		Image:        "gvenzl/oracle-free:23.6-slim-faststart",
		ExposedPorts: []string{port},
		Env: map[string]string{
			"ORACLE_PASSWORD":   password,
			"APP_USER":          appUser,
			"APP_USER_PASSWORD": password,
		},
		WaitingFor: wait.ForLog("DATABASE IS READY TO USE!").WithStartupTimeout(5 * time.Minute),
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Resources = container.Resources{Memory: memoryLimitGB}
		},
		Files: []tc.ContainerFile{
			{
				Reader:            seedFile,
				ContainerFilePath: "/container-entrypoint-initdb.d/oracle_seed.sql",
				FileMode:          0o755,
			},
		},
	}

	ctr, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		ProviderType:     GetContainerProvider(),
		Started:          true,
	})
	if err != nil {
		return nil, err
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		return nil, err
	}

	mPort, err := ctr.MappedPort(ctx, port)
	if err != nil {
		return nil, err
	}

	return &OracleContainer{
		Container: ctr,
		ConnURL:   fmt.Sprintf("oracle://%s:%s@%s:%d/FREEPDB1", appUser, password, host, mPort.Int()),
	}, nil
}

func (p *OracleContainer) NewClient(ctx context.Context, params *core.ConnectionParams, opts ...adapters.Option) (*adapters.SQLClient, error) {
	return connect(ctx, params, "oracle", p.ConnURL, opts...)
}
