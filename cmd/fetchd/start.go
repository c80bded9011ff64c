package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azoksky/fetchd/internal/config"
	"github.com/azoksky/fetchd/internal/job"
	"github.com/azoksky/fetchd/internal/progress"
)

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)

	rawURL := fs.String("url", "", "Download URL (required)")
	token := fs.String("token", "", "Access token (default: provider credential from config/env)")
	dest := fs.String("dest", "", "Destination directory (default: current directory)")
	configPath := fs.String("config", "", "Path to YAML config file")
	wait := fs.Bool("wait", false, "Poll until the download reaches a terminal state")
	verbose := fs.Bool("v", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: fetchd start [options]

Negotiate access to a URL (bearer, query token, API key, cookie, or
anonymous) and submit the resolved request to the aria2 daemon. The daemon
is started if it is not already running.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	if *rawURL == "" {
		fmt.Fprintln(os.Stderr, "Error: -url is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	logger := newLogger(*verbose)
	ctrl := buildController(cfg, logger)

	tok := *token
	if tok == "" {
		if tok = cfg.TokenFor(*rawURL); tok != "" {
			logger.Info().
				Str("token", config.RedactToken(tok)).
				Msg("using configured provider credential")
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := ctrl.Start(ctx, job.StartRequest{URL: *rawURL, Token: tok, DestDir: *dest})
	if err != nil {
		return reportStartError(err)
	}

	fmt.Printf("gid: %s\n", res.GID)
	fmt.Printf("dir: %s\n", res.DestDir)
	if res.Filename != "" {
		fmt.Printf("filename: %s\n", res.Filename)
	}
	fmt.Printf("strategy: %s (probe status %d)\n", res.Strategy, res.ProbeStatus)

	if !*wait {
		return ExitSuccess
	}
	return waitForCompletion(ctx, ctrl, res.GID, *rawURL)
}

func reportStartError(err error) int {
	var verr *job.ValidationError
	var nerr *job.NegotiationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitValidation
	case errors.As(err, &nerr):
		fmt.Fprintln(os.Stderr, "Error: could not access the URL with any strategy.")
		printAttempts(nerr.Attempts)
		return ExitNegotiation
	case errors.Is(err, job.ErrDaemonUnavailable):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitDaemonDown
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
}

func waitForCompletion(ctx context.Context, ctrl *job.Controller, gid, sourceURL string) int {
	reporter := progress.NewReporter(progress.Options{SourceURL: sourceURL})
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "\n[fetchd] Interrupted; the download continues in the daemon.")
			return ExitGeneralError
		case <-ticker.C:
		}

		st, err := ctrl.Status(ctx, gid)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
			if errors.Is(err, job.ErrNotFound) {
				return ExitNotFound
			}
			return ExitGeneralError
		}

		snap := progress.Snapshot{
			Status:           st.Status,
			Percent:          st.Percent,
			CompletedBytes:   st.CompletedBytes,
			TotalBytes:       st.TotalBytes,
			SpeedBytesPerSec: st.SpeedBytesPerSec,
			ETASeconds:       st.ETASeconds,
		}
		if !job.Terminal(st.Status) {
			reporter.Update(snap)
			continue
		}

		reporter.Finish(snap)
		switch st.Status {
		case job.StatusComplete:
			if st.Filepath != "" {
				fmt.Printf("file: %s\n", st.Filepath)
			}
			return ExitSuccess
		case job.StatusError:
			fmt.Fprintf(os.Stderr, "Error: %s\n", st.ErrorMessage)
			return ExitGeneralError
		default: // removed
			return ExitGeneralError
		}
	}
}
