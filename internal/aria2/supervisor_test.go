package aria2

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toggleDaemon is a fake daemon that can be switched between answering the
// version query and refusing it, counting calls either way.
type toggleDaemon struct {
	healthy atomic.Bool
	calls   atomic.Int64
	server  *httptest.Server
}

func newToggleDaemon(t *testing.T) *toggleDaemon {
	t.Helper()
	d := &toggleDaemon{}
	d.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.calls.Add(1)
		if !d.healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": "x",
			"result": map[string]any{"version": "1.37.0"},
		})
	}))
	t.Cleanup(d.server.Close)
	return d
}

func TestEnsureRunningIdempotentWhenUp(t *testing.T) {
	daemon := newToggleDaemon(t)
	daemon.healthy.Store(true)

	var launched atomic.Int64
	sup := NewSupervisor(newTestClient(daemon.server.URL))
	sup.launch = func(bin string, args []string) error {
		launched.Add(1)
		return nil
	}

	require.NoError(t, sup.EnsureRunning(context.Background()))
	require.NoError(t, sup.EnsureRunning(context.Background()))

	assert.Equal(t, int64(2), daemon.calls.Load(), "one version call per invocation")
	assert.Equal(t, int64(0), launched.Load(), "no launch while daemon is up")
}

func TestEnsureRunningLaunchesAndWaits(t *testing.T) {
	daemon := newToggleDaemon(t)

	sup := NewSupervisor(newTestClient(daemon.server.URL),
		WithBinary("sh"), // anything resolvable on PATH; launch is stubbed
		WithPollInterval(10*time.Millisecond),
		WithStartupWindow(time.Second),
	)
	var gotArgs []string
	sup.launch = func(bin string, args []string) error {
		gotArgs = args
		// Daemon becomes reachable shortly after launch.
		go func() {
			time.Sleep(30 * time.Millisecond)
			daemon.healthy.Store(true)
		}()
		return nil
	}

	require.NoError(t, sup.EnsureRunning(context.Background()))

	assert.Contains(t, gotArgs, "--enable-rpc=true")
	assert.Contains(t, gotArgs, "--rpc-listen-all=false")
	assert.Contains(t, gotArgs, "--rpc-secret=sekret")
	assert.Contains(t, gotArgs, "--daemon=true")
}

func TestEnsureRunningBinaryMissing(t *testing.T) {
	daemon := newToggleDaemon(t)

	sup := NewSupervisor(newTestClient(daemon.server.URL),
		WithBinary("definitely-not-an-installed-binary"))

	err := sup.EnsureRunning(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBinaryNotFound))
}

func TestEnsureRunningGivesUpAfterWindow(t *testing.T) {
	daemon := newToggleDaemon(t) // never becomes healthy

	sup := NewSupervisor(newTestClient(daemon.server.URL),
		WithBinary("sh"),
		WithPollInterval(10*time.Millisecond),
		WithStartupWindow(50*time.Millisecond),
	)
	sup.launch = func(bin string, args []string) error { return nil }

	err := sup.EnsureRunning(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrBinaryNotFound))
}

func TestLaunchArgsCarryConfiguredPort(t *testing.T) {
	client := NewClient(Options{RPCURL: "http://127.0.0.1:7700/jsonrpc", Secret: "s"})
	sup := NewSupervisor(client)

	assert.Contains(t, sup.launchArgs(), "--rpc-listen-port=7700")
}
