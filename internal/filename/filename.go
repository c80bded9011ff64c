package filename

import (
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	// RFC 5987: filename*=<charset>'<lang>'<percent-encoded>
	extendedRe = regexp.MustCompile(`(?i)filename\*\s*=\s*[^'";]+''([^;]+)`)
	quotedRe   = regexp.MustCompile(`(?i)filename\s*=\s*"([^"]+)"`)
	bareRe     = regexp.MustCompile(`(?i)filename\s*=\s*([^;]+)`)

	// Reserved filesystem characters plus control characters.
	unsafeRe = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]`)
)

// queryHints are the query parameters, in priority order, that CDNs use to
// carry a destination filename.
var queryHints = []string{"filename", "file", "name", "response-content-disposition"}

// Resolve picks a destination filename from response headers and the final
// (post-redirect) URL. confident is true only when the name came from
// explicit metadata rather than the URL path. An empty name means no usable
// candidate was found.
func Resolve(header http.Header, finalURL string) (name string, confident bool) {
	if cd := header.Get("Content-Disposition"); cd != "" {
		if n := FromContentDisposition(cd); n != "" {
			return n, true
		}
	}
	if n := fromQuery(finalURL); n != "" {
		return n, true
	}
	u, err := url.Parse(finalURL)
	if err != nil {
		return "", false
	}
	return Sanitize(u.Path), false
}

// FromContentDisposition extracts a filename from a Content-Disposition
// value, preferring the RFC 5987 extended parameter over the plain one.
// Returns "" when no parameter yields a usable name.
func FromContentDisposition(cd string) string {
	if m := extendedRe.FindStringSubmatch(cd); m != nil {
		if decoded, err := url.PathUnescape(m[1]); err == nil {
			if n := Sanitize(decoded); n != "" {
				return n
			}
		}
	}
	if m := quotedRe.FindStringSubmatch(cd); m != nil {
		if n := Sanitize(m[1]); n != "" {
			return n
		}
	}
	if m := bareRe.FindStringSubmatch(cd); m != nil {
		if n := Sanitize(strings.TrimSpace(m[1])); n != "" {
			return n
		}
	}
	return ""
}

// fromQuery checks the final URL for CDN-style filename hints. The
// response-content-disposition hint (S3 and friends) carries a full
// Content-Disposition value and is parsed with that grammar first.
func fromQuery(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	for _, key := range queryHints {
		v := q.Get(key)
		if v == "" {
			continue
		}
		if key == "response-content-disposition" {
			if n := FromContentDisposition(v); n != "" {
				return n
			}
			continue
		}
		if n := Sanitize(v); n != "" {
			return n
		}
	}
	return ""
}

// Sanitize reduces a candidate to its basename, replaces reserved and
// control characters with underscores, and trims surrounding whitespace.
// Returns "" when nothing usable remains.
func Sanitize(s string) string {
	s = path.Base(strings.ReplaceAll(s, `\`, "/"))
	if s == "/" || s == "." {
		return ""
	}
	return strings.TrimSpace(unsafeRe.ReplaceAllString(s, "_"))
}
