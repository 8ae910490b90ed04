// Package testhelpers provides helpers for integration tests.
package testhelpers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/testcontainers/testcontainers-go"

	"github.com/foundation-data/datalib/adapters"
	"github.com/foundation-data/datalib/core"
)

// GetContainerProvider returns the container provider type to use for the tests.
// If we detect podman is available, we use it, otherwise we use docker.
func GetContainerProvider() testcontainers.ProviderType {
	if _, err := exec.LookPath("podman"); err == nil {
		fmt.Println("Podman detected. Remember to set TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED=true;")
		return testcontainers.ProviderPodman
	}
	return testcontainers.ProviderDocker
}

// GetTestDataPath returns the path to the testdata directory.
func GetTestDataPath() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("failed to get current file path")
	}

	return filepath.Join(filepath.Dir(currentFile), "../testdata"), nil
}

// GetTestDataFile returns a file from the testdata directory.
func GetTestDataFile(filename string) (*os.File, error) {
	testDataPath, err := GetTestDataPath()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(testDataPath, filename)
	return os.Open(path)
}

// connect fills in the defaults of params and connects through the registry.
func connect(ctx context.Context, params *core.ConnectionParams, typ, connURL string, opts ...adapters.Option) (*adapters.SQLClient, error) {
	if params.Type == "" {
		params.Type = typ
	}
	if params.URL == "" {
		params.URL = connURL
	}

	return adapters.Connect(ctx, params, opts...)
}

// Decode decodes a consumable with the kinds of its columns.
func Decode(consumable *core.Consumable, columns []*core.Column) ([]core.Row, error) {
	kinds := make([]core.ColumnKind, len(columns))
	for i, col := range columns {
		kinds[i] = col.Kind()
	}

	codec, err := core.NewRowCodec(consumable.Format())
	if err != nil {
		return nil, err
	}
	return core.DecodeRows(codec, consumable, kinds)
}
