// Package probe classifies whether a URL is actually fetchable without
// downloading it.
//
// A probe issues a HEAD request with a browser-like baseline header set; on
// hosts that reject HEAD (400/401/403/405) it retries once as a GET
// restricted to the first byte. The final response is classified into one of
// four outcomes: fetchable, an HTML login bounce, an HTTP error, or a
// network-level failure. Classification is carried in the Result value;
// probes never return Go errors, because a failed probe is an answer, not a
// fault.
//
// # Usage
//
//	p := probe.New(probe.DefaultOptions())
//	res := p.Probe(ctx, url, map[string]string{
//	    "Authorization": "Bearer " + token,
//	})
//	// res.OK, res.Status, res.Filename, res.Note
//
// Each request is bounded by Options.Timeout (default 10s); a hung origin
// cannot block the caller past that.
package probe
