package probe

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/azoksky/fetchd/internal/filename"
)

// Note explains why a probe did not succeed.
type Note string

const (
	NoteNone      Note = ""
	NoteLoginHTML Note = "login_html"
	NoteHTTPError Note = "http_error"
	NoteException Note = "exception"
)

// Result classifies one probe of a URL.
type Result struct {
	OK        bool
	Status    int
	FinalURL  string
	Header    http.Header
	Filename  string
	Confident bool
	Note      Note
}

// Options configures the prober.
type Options struct {
	// Timeout bounds each probe request.
	// Default: 10s
	Timeout time.Duration

	// UserAgent sent with every probe.
	// Default: "Mozilla/5.0"; some CDNs refuse non-browser agents.
	UserAgent string

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 10
	MaxIdleConnsPerHost int
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:             10 * time.Second,
		UserAgent:           "Mozilla/5.0",
		MaxIdleConnsPerHost: 10,
	}
}

// Prober issues classification probes against candidate URLs.
type Prober struct {
	client *http.Client
	opts   Options
}

// New creates a Prober with the given options.
func New(opts Options) *Prober {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0"
	}
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = 10
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Prober{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts: opts,
	}
}

// headFallbackStatuses are responses that commonly mean "this host rejects
// HEAD" rather than "this resource is gone"; they are worth one retry as a
// single-byte ranged GET.
var headFallbackStatuses = map[int]bool{
	http.StatusBadRequest:       true,
	http.StatusUnauthorized:     true,
	http.StatusForbidden:        true,
	http.StatusMethodNotAllowed: true,
}

// Probe checks rawURL with the baseline header set merged with extraHeaders
// (caller values win on collision). No payload bytes are transferred beyond
// at most one byte on the ranged fallback.
func (p *Prober) Probe(ctx context.Context, rawURL string, extraHeaders map[string]string) Result {
	headers := p.baseHeaders()
	for k, v := range extraHeaders {
		headers.Set(k, v)
	}

	res, retry := p.attempt(ctx, http.MethodHead, rawURL, headers, false)
	if retry {
		res, _ = p.attempt(ctx, http.MethodGet, rawURL, headers, true)
	}
	return res
}

// attempt runs a single request and classifies the response. retry is true
// only for a HEAD rejected with a status in headFallbackStatuses.
func (p *Prober) attempt(ctx context.Context, method, rawURL string, headers http.Header, ranged bool) (Result, bool) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return Result{FinalURL: rawURL, Header: http.Header{}, Note: NoteException}, false
	}
	req.Header = headers.Clone()
	if ranged {
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{FinalURL: rawURL, Header: http.Header{}, Note: NoteException}, false
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	finalURL := resp.Request.URL.String()

	if method == http.MethodHead && headFallbackStatuses[status] {
		return Result{Status: status, FinalURL: finalURL, Header: resp.Header, Note: NoteHTTPError}, true
	}
	if status >= 300 {
		return Result{Status: status, FinalURL: finalURL, Header: resp.Header, Note: NoteHTTPError}, false
	}
	if isLoginBounce(finalURL, resp.Header) {
		return Result{Status: status, FinalURL: finalURL, Header: resp.Header, Note: NoteLoginHTML}, false
	}

	name, confident := filename.Resolve(resp.Header, finalURL)
	return Result{
		OK:        true,
		Status:    status,
		FinalURL:  finalURL,
		Header:    resp.Header,
		Filename:  name,
		Confident: confident,
	}, false
}

func (p *Prober) baseHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "*/*")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("User-Agent", p.opts.UserAgent)
	return h
}

// isLoginBounce reports whether a nominally successful response looks like
// an HTML login page the origin redirected to instead of the file. This is a
// best-effort heuristic (HTML content type plus a login-ish path segment);
// false positives and negatives are an accepted limitation.
func isLoginBounce(finalURL string, header http.Header) bool {
	ct := strings.ToLower(header.Get("Content-Type"))
	if !strings.Contains(ct, "text/html") {
		return false
	}
	u, err := url.Parse(finalURL)
	if err != nil {
		return false
	}
	lower := strings.ToLower(u.Path)
	base := path.Base(lower)
	return strings.Contains(lower, "login") || base == "signin" || base == "log-in"
}
