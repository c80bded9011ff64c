package aria2

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBinary is the daemon executable looked up on PATH.
const DefaultBinary = "aria2c"

const (
	defaultPollInterval  = 150 * time.Millisecond
	defaultStartupWindow = 3 * time.Second
)

// ErrBinaryNotFound means the daemon executable is not installed; starting
// the daemon can never succeed until that changes, so callers should not
// retry.
var ErrBinaryNotFound = errors.New("aria2: daemon binary not found in PATH")

// Supervisor ensures the daemon behind a Client is reachable, launching it
// on demand.
type Supervisor struct {
	client   *Client
	binary   string
	interval time.Duration
	window   time.Duration
	logger   zerolog.Logger

	// launch is swapped out in tests.
	launch func(bin string, args []string) error
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithLogger sets the supervisor's logger.
func WithLogger(logger zerolog.Logger) SupervisorOption {
	return func(s *Supervisor) { s.logger = logger }
}

// WithBinary overrides the daemon executable name or path.
func WithBinary(bin string) SupervisorOption {
	return func(s *Supervisor) { s.binary = bin }
}

// WithStartupWindow overrides how long a freshly launched daemon gets to
// become reachable.
func WithStartupWindow(d time.Duration) SupervisorOption {
	return func(s *Supervisor) { s.window = d }
}

// WithPollInterval overrides the readiness poll interval.
func WithPollInterval(d time.Duration) SupervisorOption {
	return func(s *Supervisor) { s.interval = d }
}

// NewSupervisor creates a Supervisor for the daemon behind client.
func NewSupervisor(client *Client, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		client:   client,
		binary:   DefaultBinary,
		interval: defaultPollInterval,
		window:   defaultStartupWindow,
		logger:   zerolog.Nop(),
	}
	s.launch = spawnDetached
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureRunning verifies the daemon answers its version query, starting it
// first if necessary. When the daemon is already up this costs exactly one
// RPC call, so it is safe to invoke before every submission. Concurrent
// callers may race to spawn; the daemon's own port binding stops a second
// instance from taking over, so no lock is held here.
func (s *Supervisor) EnsureRunning(ctx context.Context) error {
	if _, err := s.client.Version(ctx); err == nil {
		return nil
	}

	bin, err := exec.LookPath(s.binary)
	if err != nil {
		return fmt.Errorf("%w (looked for %q)", ErrBinaryNotFound, s.binary)
	}

	s.logger.Info().Str("binary", bin).Msg("starting aria2 daemon")
	if err := s.launch(bin, s.launchArgs()); err != nil {
		return fmt.Errorf("start aria2 daemon: %w", err)
	}

	deadline := time.Now().Add(s.window)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if _, err := s.client.Version(ctx); err == nil {
			s.logger.Debug().Msg("aria2 daemon is up")
			return nil
		}
	}

	// One final call; its error is the caller's diagnostic.
	if _, err := s.client.Version(ctx); err != nil {
		return fmt.Errorf("aria2 daemon unreachable %s after launch: %w", s.window, err)
	}
	return nil
}

// launchArgs builds the daemon command line: RPC enabled, loopback only,
// secret-protected, detached from the console.
func (s *Supervisor) launchArgs() []string {
	args := []string{
		"--enable-rpc=true",
		"--rpc-listen-all=false",
		"--rpc-secret=" + s.client.secret,
		"--daemon=true",
		"--console-log-level=error",
		"--disable-ipv6=true",
	}
	if port := s.client.rpcPort(); port != "" {
		args = append(args, "--rpc-listen-port="+port)
	}
	return args
}

// spawnDetached starts the binary and reaps the intermediate process.
// --daemon=true makes aria2 fork itself away, so the process started here
// exits almost immediately.
func spawnDetached(bin string, args []string) error {
	cmd := exec.Command(bin, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
