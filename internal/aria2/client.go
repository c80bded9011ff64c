package aria2

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Defaults for a locally supervised daemon.
const (
	DefaultRPCURL = "http://127.0.0.1:6800/jsonrpc"

	// DefaultTimeout bounds each control-protocol call.
	DefaultTimeout = 10 * time.Second
)

// Options configures the RPC client.
type Options struct {
	// RPCURL is the daemon's JSON-RPC endpoint.
	// Default: http://127.0.0.1:6800/jsonrpc
	RPCURL string

	// Secret is the shared RPC secret, sent as "token:<secret>".
	Secret string

	// Timeout bounds each call. Default: 10s.
	Timeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		RPCURL:  DefaultRPCURL,
		Timeout: DefaultTimeout,
	}
}

// Client is a minimal aria2 JSON-RPC client.
type Client struct {
	rpcURL  string
	secret  string
	timeout time.Duration
	client  *http.Client
}

// NewClient creates a Client with the given options.
func NewClient(opts Options) *Client {
	if opts.RPCURL == "" {
		opts.RPCURL = DefaultRPCURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Client{
		rpcURL:  opts.RPCURL,
		secret:  opts.Secret,
		timeout: opts.Timeout,
		client:  opts.HTTPClient,
	}
}

// RPCError is an error object returned by the daemon itself, as opposed to a
// transport failure reaching it.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("aria2 rpc error %d: %s", e.Code, e.Message)
}

// NotFound reports whether the daemon rejected a call because the GID is
// unknown to it.
func (e *RPCError) NotFound() bool {
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no such download")
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Call invokes one aria2.<method> with the shared secret prepended to
// params, per the protocol's token convention.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	full := append([]any{"token:" + c.secret}, params...)
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  "aria2." + method,
		Params:  full,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}

	// aria2 answers errors (bad secret included) with a JSON-RPC error body
	// and a non-2xx status; decode before judging the status code.
	var rr rpcResponse
	if err := json.Unmarshal(data, &rr); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("rpc %s: http %d: %s", method, resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if rr.Error != nil {
		return nil, rr.Error
	}
	return rr.Result, nil
}

// VersionInfo is the result of aria2.getVersion.
type VersionInfo struct {
	Version         string   `json:"version"`
	EnabledFeatures []string `json:"enabledFeatures"`
}

// Version queries the daemon version. Also serves as the liveness check.
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	raw, err := c.Call(ctx, "getVersion")
	if err != nil {
		return nil, err
	}
	var v VersionInfo
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode version: %w", err)
	}
	return &v, nil
}

// AddURI submits a download and returns the daemon-assigned GID.
func (c *Client) AddURI(ctx context.Context, uris []string, options map[string]any) (string, error) {
	raw, err := c.Call(ctx, "addUri", uris, options)
	if err != nil {
		return "", err
	}
	var gid string
	if err := json.Unmarshal(raw, &gid); err != nil {
		return "", fmt.Errorf("decode addUri result: %w", err)
	}
	if gid == "" {
		return "", errors.New("aria2: addUri returned no gid")
	}
	return gid, nil
}

// statusKeys is the tellStatus field selector; requesting only what callers
// consume keeps responses small.
var statusKeys = []string{
	"status", "totalLength", "completedLength", "downloadSpeed",
	"errorCode", "errorMessage", "files", "dir",
}

// FileEntry is one file within a download.
type FileEntry struct {
	Path            string `json:"path"`
	Length          string `json:"length"`
	CompletedLength string `json:"completedLength"`
}

// StatusInfo mirrors aria2's tellStatus result. The daemon encodes numeric
// fields as decimal strings on the wire; use the accessors for int64 values.
type StatusInfo struct {
	Status          string      `json:"status"`
	TotalLength     string      `json:"totalLength"`
	CompletedLength string      `json:"completedLength"`
	DownloadSpeed   string      `json:"downloadSpeed"`
	ErrorCode       string      `json:"errorCode"`
	ErrorMessage    string      `json:"errorMessage"`
	Dir             string      `json:"dir"`
	Files           []FileEntry `json:"files"`
}

func (s *StatusInfo) Total() int64     { return parseInt64(s.TotalLength) }
func (s *StatusInfo) Completed() int64 { return parseInt64(s.CompletedLength) }
func (s *StatusInfo) Speed() int64     { return parseInt64(s.DownloadSpeed) }

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// TellStatus queries the state of one download.
func (c *Client) TellStatus(ctx context.Context, gid string) (*StatusInfo, error) {
	raw, err := c.Call(ctx, "tellStatus", gid, statusKeys)
	if err != nil {
		return nil, err
	}
	var st StatusInfo
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode tellStatus result: %w", err)
	}
	return &st, nil
}

// Remove asks the daemon to stop and forget a download. Removing a finished
// or unknown download is the daemon's call to reject.
func (c *Client) Remove(ctx context.Context, gid string) error {
	_, err := c.Call(ctx, "remove", gid)
	return err
}

// rpcPort extracts the port of the configured RPC endpoint, "" when the URL
// carries none.
func (c *Client) rpcPort() string {
	u, err := url.Parse(c.rpcURL)
	if err != nil {
		return ""
	}
	return u.Port()
}
