//go:build integration

// Package testutils provides shared test infrastructure for integration tests.
package testutils

import (
	"context"
	"fmt"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	aria2Image  = "p3terx/aria2-pro:latest"
	aria2Secret = "fetchd-integration"
)

// Aria2Daemon is a disposable containerized aria2 daemon with RPC enabled.
type Aria2Daemon struct {
	RPCURL string
	Secret string
}

// StartAria2 launches an aria2 container and waits until its RPC port
// accepts connections. The container is terminated when the test ends.
func StartAria2(ctx context.Context, t *testing.T) *Aria2Daemon {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        aria2Image,
			ExposedPorts: []string{"6800/tcp"},
			Env:          map[string]string{"RPC_SECRET": aria2Secret},
			WaitingFor:   wait.ForListeningPort("6800/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start aria2 container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6800")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	return &Aria2Daemon{
		RPCURL: fmt.Sprintf("http://%s:%s/jsonrpc", host, port.Port()),
		Secret: aria2Secret,
	}
}
