// Package progress renders polled download status for the CLI.
//
// Unlike a transfer loop that counts its own bytes, fetchd only mirrors
// counters the daemon reports, so the reporter consumes status snapshots and
// rewrites a single console line per update.
//
// # Output Format
//
//	[fetchd] Downloading: https://example.com/file.tar.gz
//	[fetchd] active: 45.2% | 1.13 GB / 2.50 GB | Speed: 12.4 MB/s | ETA: 1m52s
package progress
