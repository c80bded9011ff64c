package progress

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Snapshot is one polled view of a running download.
type Snapshot struct {
	Status           string
	Percent          float64
	CompletedBytes   int64
	TotalBytes       int64
	SpeedBytesPerSec int64
	ETASeconds       int64
}

// Options configures the progress reporter.
type Options struct {
	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// SourceURL is the URL being downloaded (for the header line).
	SourceURL string
}

// Reporter rewrites one console line per status snapshot.
type Reporter struct {
	opts      Options
	startTime time.Time
	started   bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	return &Reporter{opts: opts}
}

// Update renders one snapshot, printing the header on first call.
func (r *Reporter) Update(s Snapshot) {
	if !r.started {
		r.started = true
		r.startTime = time.Now()
		fmt.Fprintf(r.opts.Output, "[fetchd] Downloading: %s\n", r.opts.SourceURL)
	}

	fmt.Fprintf(r.opts.Output, "\r[fetchd] %s: %.1f%% | %s / %s | Speed: %s/s | ETA: %s    ",
		s.Status,
		s.Percent,
		formatBytes(s.CompletedBytes),
		formatBytes(s.TotalBytes),
		formatBytes(s.SpeedBytesPerSec),
		formatDuration(time.Duration(s.ETASeconds)*time.Second),
	)
}

// Finish renders the terminal snapshot and a summary line.
func (r *Reporter) Finish(s Snapshot) {
	r.Update(s)
	fmt.Fprintln(r.opts.Output)
	if r.started {
		fmt.Fprintf(r.opts.Output, "[fetchd] Total time: %s\n", formatDuration(time.Since(r.startTime)))
	}
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case b >= TB:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(TB))
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats a duration as a compact human-readable string.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	switch {
	case h > 0:
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
