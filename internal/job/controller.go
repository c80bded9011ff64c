package job

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/azoksky/fetchd/internal/aria2"
	"github.com/azoksky/fetchd/internal/negotiate"
	"github.com/azoksky/fetchd/internal/probe"
)

// Daemon lifecycle states as aria2 reports them.
const (
	StatusActive   = "active"
	StatusWaiting  = "waiting"
	StatusPaused   = "paused"
	StatusError    = "error"
	StatusComplete = "complete"
	StatusRemoved  = "removed"
	StatusUnknown  = "unknown"
)

// Transfer options passed to the daemon for every job.
const (
	connectionsPerServer = 16
	maxTries             = 5
)

// baselineHeaders mirror what the probe sent, so the daemon's transfer looks
// like the request that was negotiated.
var baselineHeaders = []string{
	"Accept: */*",
	"Accept-Language: en-US,en;q=0.9",
	"User-Agent: Mozilla/5.0",
}

// RPC is the slice of the daemon control protocol the controller drives.
// *aria2.Client satisfies it.
type RPC interface {
	AddURI(ctx context.Context, uris []string, options map[string]any) (string, error)
	TellStatus(ctx context.Context, gid string) (*aria2.StatusInfo, error)
	Remove(ctx context.Context, gid string) error
}

// Supervisor brings the daemon up before jobs are submitted.
type Supervisor interface {
	EnsureRunning(ctx context.Context) error
}

// Negotiator resolves how a URL can actually be fetched.
type Negotiator interface {
	Negotiate(ctx context.Context, url, token string) negotiate.Result
}

// Prober backs the diagnostic pre-flight operation.
type Prober interface {
	Probe(ctx context.Context, url string, extraHeaders map[string]string) probe.Result
}

// Controller submits, inspects, and stops daemon-tracked downloads.
type Controller struct {
	rpc    RPC
	sup    Supervisor
	neg    Negotiator
	prober Prober
	logger zerolog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// New creates a Controller over the given collaborators.
func New(rpc RPC, sup Supervisor, neg Negotiator, prober Prober, opts ...Option) *Controller {
	c := &Controller{
		rpc:    rpc,
		sup:    sup,
		neg:    neg,
		prober: prober,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartRequest describes one download to submit.
type StartRequest struct {
	URL     string
	Token   string
	DestDir string
}

// StartResult reports a successfully submitted job plus the negotiation
// evidence behind it.
type StartResult struct {
	GID         string
	DestDir     string
	Filename    string // set only when the negotiation was confident
	Confident   bool
	Strategy    string
	ProbeStatus int
	Attempts    []negotiate.Attempt
}

// Start validates the request, ensures the daemon is up, negotiates access,
// and submits the transfer. Validation happens before any network call. A
// failed negotiation returns *NegotiationError and creates no job.
func (c *Controller) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return nil, &ValidationError{Field: "url", Reason: "required"}
	}

	dest, err := prepareDestDir(req.DestDir)
	if err != nil {
		return nil, &ValidationError{Field: "dest_dir", Reason: err.Error()}
	}

	if err := c.sup.EnsureRunning(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDaemonUnavailable, err)
	}

	nego := c.neg.Negotiate(ctx, rawURL, strings.TrimSpace(req.Token))
	if !nego.OK {
		return nil, &NegotiationError{Attempts: nego.Attempts}
	}
	c.logger.Debug().
		Str("strategy", nego.Strategy).
		Int("status", nego.Status).
		Bool("confident", nego.Confident).
		Msg("access negotiated")

	gid, err := c.rpc.AddURI(ctx, []string{nego.URL}, transferOptions(dest, nego))
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("gid", gid).Str("dir", dest).Msg("download submitted")

	res := &StartResult{
		GID:         gid,
		DestDir:     dest,
		Confident:   nego.Confident,
		Strategy:    nego.Strategy,
		ProbeStatus: nego.Status,
		Attempts:    nego.Attempts,
	}
	if nego.Confident && nego.Filename != "" {
		res.Filename = nego.Filename
	}
	return res, nil
}

// Status describes one job as the daemon currently sees it.
type Status struct {
	GID              string
	Status           string
	Percent          float64
	CompletedBytes   int64
	TotalBytes       int64
	SpeedBytesPerSec int64
	ETASeconds       int64
	Filename         string
	Filepath         string
	ErrorMessage     string
}

// Status queries the daemon for one job. Unknown GIDs map to ErrNotFound.
func (c *Controller) Status(ctx context.Context, gid string) (*Status, error) {
	if strings.TrimSpace(gid) == "" {
		return nil, &ValidationError{Field: "gid", Reason: "required"}
	}

	info, err := c.rpc.TellStatus(ctx, gid)
	if err != nil {
		return nil, mapRPCError(err)
	}

	state := info.Status
	if state == "" {
		state = StatusUnknown
	}
	total, done, speed := info.Total(), info.Completed(), info.Speed()

	var percent float64
	switch {
	case total > 0:
		percent = float64(done) / float64(total) * 100
	case state == StatusComplete:
		percent = 100
	}
	percent = math.Round(percent*100) / 100

	var name, path string
	if len(info.Files) > 0 && info.Files[0].Path != "" {
		path = info.Files[0].Path
		name = filepath.Base(path)
	}

	st := &Status{
		GID:              gid,
		Status:           state,
		Percent:          percent,
		CompletedBytes:   done,
		TotalBytes:       total,
		SpeedBytesPerSec: speed,
		ETASeconds:       etaSeconds(total, done, speed),
		Filename:         name,
		Filepath:         path,
	}
	if state == StatusError {
		st.ErrorMessage = info.ErrorMessage
		if st.ErrorMessage == "" {
			st.ErrorMessage = "unknown error"
		}
	}
	return st, nil
}

// Terminal reports whether a job state can no longer change.
func Terminal(status string) bool {
	switch status {
	case StatusComplete, StatusError, StatusRemoved:
		return true
	}
	return false
}

// Stop asks the daemon to remove a job. Best effort: it signals removal and
// later status queries report the removed state; in-flight bytes are the
// daemon's business. Unknown GIDs map to ErrNotFound.
func (c *Controller) Stop(ctx context.Context, gid string) error {
	if strings.TrimSpace(gid) == "" {
		return &ValidationError{Field: "gid", Reason: "required"}
	}
	if err := c.rpc.Remove(ctx, gid); err != nil {
		return mapRPCError(err)
	}
	c.logger.Info().Str("gid", gid).Msg("download removed")
	return nil
}

// Probe runs a diagnostic pre-flight check without touching the daemon.
func (c *Controller) Probe(ctx context.Context, url string, headers map[string]string) probe.Result {
	return c.prober.Probe(ctx, url, headers)
}

// transferOptions builds the daemon option map for one negotiated download.
// Values are strings throughout: aria2 expects its options stringly typed.
func transferOptions(destDir string, nego negotiate.Result) map[string]any {
	headers := append([]string(nil), baselineHeaders...)
	for k, v := range nego.Headers {
		headers = append(headers, k+": "+v)
	}

	opts := map[string]any{
		"continue":                         "true",
		"max-connection-per-server":        strconv.Itoa(connectionsPerServer),
		"split":                            strconv.Itoa(connectionsPerServer),
		"dir":                              destDir,
		"auto-file-renaming":               "true",
		"remote-time":                      "true",
		"content-disposition-default-utf8": "true",
		"header":                           headers,
		"max-tries":                        strconv.Itoa(maxTries),
	}
	if origin := originOf(nego.URL); origin != "" {
		opts["referer"] = origin
	}
	// Only a confident name overrides the daemon's own content-aware naming.
	if nego.Confident && nego.Filename != "" {
		opts["out"] = nego.Filename
	}
	return opts
}

// originOf reduces a URL to scheme://host/ for use as a Referer.
func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}

// prepareDestDir expands, creates, and write-checks the destination. Runs
// before any network traffic so a bad destination fails fast.
func prepareDestDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", dir, err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("create: %w", err)
	}
	f, err := os.CreateTemp(abs, ".fetchd-write-check-*")
	if err != nil {
		return "", fmt.Errorf("not writable: %w", err)
	}
	f.Close()
	os.Remove(f.Name())
	return abs, nil
}

// etaSeconds estimates remaining transfer time, clamping the divisor so a
// stalled download reports a finite value.
func etaSeconds(total, done, speed int64) int64 {
	remain := total - done
	if remain < 0 {
		remain = 0
	}
	if speed < 1 {
		speed = 1
	}
	return remain / speed
}

// mapRPCError translates a daemon "unknown GID" rejection into ErrNotFound;
// everything else passes through untouched.
func mapRPCError(err error) error {
	var rpcErr *aria2.RPCError
	if errors.As(err, &rpcErr) && rpcErr.NotFound() {
		return fmt.Errorf("%w: %s", ErrNotFound, rpcErr.Message)
	}
	return err
}
