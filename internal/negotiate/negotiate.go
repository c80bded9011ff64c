package negotiate

import (
	"context"
	"net/url"
	"strings"

	"github.com/azoksky/fetchd/internal/probe"
)

// Strategy names, in the order they are tried.
const (
	StrategyAuthHeader  = "auth_header"
	StrategyQueryToken  = "query_token"
	StrategyAPIKey      = "x_api_key"
	StrategyCookieToken = "cookie_token"
	StrategyPlain       = "plain"

	// StrategyNone marks an exhausted negotiation.
	StrategyNone = "none"
)

// Prober probes a URL with extra request headers. *probe.Prober satisfies it.
type Prober interface {
	Probe(ctx context.Context, url string, extraHeaders map[string]string) probe.Result
}

// Attempt records one strategy trial, successful or not.
type Attempt struct {
	Strategy string `json:"name"`
	URL      string `json:"url"`
	Status   int    `json:"status"`
	OK       bool   `json:"ok"`
	Note     string `json:"note"`
}

// Result is the outcome of a negotiation. Once returned it is never
// mutated; the chosen URL and headers are what a transfer must use.
type Result struct {
	OK        bool
	URL       string
	Headers   map[string]string
	Filename  string
	Confident bool
	Strategy  string
	Status    int
	Attempts  []Attempt
}

// Negotiator trials access strategies through a Prober.
type Negotiator struct {
	prober Prober
}

// New creates a Negotiator.
func New(p Prober) *Negotiator {
	return &Negotiator{prober: p}
}

type strategy struct {
	name    string
	url     string
	headers map[string]string
}

// Negotiate tries credential-delivery strategies in order, stopping at the
// first the origin accepts. With an empty token only the anonymous strategy
// runs. The attempt log always mirrors trial order, and a successful trial
// is always its last entry.
func (n *Negotiator) Negotiate(ctx context.Context, rawURL, token string) Result {
	token = strings.TrimSpace(token)

	strategies := []strategy{{name: StrategyPlain, url: rawURL}}
	if token != "" {
		strategies = []strategy{
			{StrategyAuthHeader, rawURL, map[string]string{"Authorization": "Bearer " + token}},
			{StrategyQueryToken, withQueryParam(rawURL, "token", token), nil},
			{StrategyAPIKey, rawURL, map[string]string{"X-Api-Key": token}},
			{StrategyCookieToken, rawURL, map[string]string{"Cookie": "token=" + token}},
			{name: StrategyPlain, url: rawURL},
		}
	}

	var attempts []Attempt
	for _, s := range strategies {
		res := n.prober.Probe(ctx, s.url, s.headers)
		attempts = append(attempts, Attempt{
			Strategy: s.name,
			URL:      s.url,
			Status:   res.Status,
			OK:       res.OK,
			Note:     string(res.Note),
		})
		if res.OK {
			return Result{
				OK:        true,
				URL:       s.url,
				Headers:   s.headers,
				Filename:  res.Filename,
				Confident: res.Confident,
				Strategy:  s.name,
				Status:    res.Status,
				Attempts:  attempts,
			}
		}
	}

	last := attempts[len(attempts)-1]
	return Result{
		URL:      rawURL,
		Strategy: StrategyNone,
		Status:   last.Status,
		Attempts: attempts,
	}
}

// withQueryParam adds or replaces one query parameter, preserving everything
// else already on the URL. On an unparseable URL the original is returned
// and the probe is left to report the failure.
func withQueryParam(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
