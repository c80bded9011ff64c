package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestProbeHeadSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		if r.Header.Get("Accept") != "*/*" {
			t.Errorf("missing baseline Accept header, got %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Disposition", `attachment; filename="model.bin"`)
		w.Header().Set("Content-Type", "application/octet-stream")
	}))
	defer server.Close()

	res := New(DefaultOptions()).Probe(context.Background(), server.URL+"/files/1", nil)

	if !res.OK {
		t.Fatalf("expected ok, got note %q status %d", res.Note, res.Status)
	}
	if res.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", res.Status)
	}
	if res.Filename != "model.bin" {
		t.Errorf("filename = %q, want model.bin", res.Filename)
	}
	if !res.Confident {
		t.Error("Content-Disposition name should be confident")
	}
}

func TestProbeHeadRejectedFallsBackToRangedGet(t *testing.T) {
	var sawRange atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusForbidden)
		case http.MethodGet:
			if r.Header.Get("Range") == "bytes=0-0" {
				sawRange.Store(true)
			}
			w.Header().Set("Content-Range", "bytes 0-0/1024")
			w.WriteHeader(http.StatusPartialContent)
			w.Write([]byte{0})
		}
	}))
	defer server.Close()

	res := New(DefaultOptions()).Probe(context.Background(), server.URL+"/guarded.bin", nil)

	if !res.OK {
		t.Fatalf("expected ok after GET fallback, got note %q status %d", res.Note, res.Status)
	}
	if res.Status != http.StatusPartialContent {
		t.Errorf("status = %d, want 206", res.Status)
	}
	if !sawRange.Load() {
		t.Error("fallback GET did not carry Range: bytes=0-0")
	}
	if res.Filename != "guarded.bin" || res.Confident {
		t.Errorf("expected unconfident path-derived name, got %q (confident=%v)", res.Filename, res.Confident)
	}
}

func TestProbeFallbackAlsoRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	res := New(DefaultOptions()).Probe(context.Background(), server.URL, nil)

	if res.OK {
		t.Fatal("expected failure")
	}
	if res.Note != NoteHTTPError {
		t.Errorf("note = %q, want %q", res.Note, NoteHTTPError)
	}
	if res.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", res.Status)
	}
}

func TestProbeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	res := New(DefaultOptions()).Probe(context.Background(), server.URL+"/missing", nil)

	if res.OK || res.Note != NoteHTTPError || res.Status != http.StatusNotFound {
		t.Errorf("got ok=%v note=%q status=%d, want http_error 404", res.OK, res.Note, res.Status)
	}
}

func TestProbeLoginBounce(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/protected.bin", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	res := New(DefaultOptions()).Probe(context.Background(), server.URL+"/protected.bin", nil)

	if res.OK {
		t.Fatal("login bounce must not be classified as fetchable")
	}
	if res.Note != NoteLoginHTML {
		t.Errorf("note = %q, want %q", res.Note, NoteLoginHTML)
	}
}

func TestProbeNetworkFailure(t *testing.T) {
	// Closed port: connection refused.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	res := New(DefaultOptions()).Probe(context.Background(), url, nil)

	if res.OK || res.Note != NoteException {
		t.Errorf("got ok=%v note=%q, want exception", res.OK, res.Note)
	}
}

func TestProbeExtraHeadersOverrideBaseline(t *testing.T) {
	var gotUA, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	New(DefaultOptions()).Probe(context.Background(), server.URL, map[string]string{
		"User-Agent":    "custom-agent/1.0",
		"Authorization": "Bearer tok",
	})

	if gotUA != "custom-agent/1.0" {
		t.Errorf("caller User-Agent should win, got %q", gotUA)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization not forwarded, got %q", gotAuth)
	}
}

func TestIsLoginBounce(t *testing.T) {
	html := http.Header{}
	html.Set("Content-Type", "text/html")
	binary := http.Header{}
	binary.Set("Content-Type", "application/octet-stream")

	tests := []struct {
		name   string
		url    string
		header http.Header
		want   bool
	}{
		{"html login path", "https://example.com/login", html, true},
		{"html signin basename", "https://example.com/auth/signin", html, true},
		{"html log-in basename", "https://example.com/log-in", html, true},
		{"html unrelated path", "https://example.com/files/x.bin", html, false},
		{"binary login path", "https://example.com/login", binary, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isLoginBounce(tt.url, tt.header); got != tt.want {
				t.Errorf("isLoginBounce = %v, want %v", got, tt.want)
			}
		})
	}
}
