package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/azoksky/fetchd/internal/job"
)

func runStop(args []string) int {
	fs := flag.NewFlagSet("stop", flag.ExitOnError)

	gid := fs.String("gid", "", "Download gid (required)")
	configPath := fs.String("config", "", "Path to YAML config file")
	verbose := fs.Bool("v", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: fetchd stop [options]

Ask the daemon to remove one download. Best effort: partially transferred
bytes stay on disk.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	if *gid == "" {
		fmt.Fprintln(os.Stderr, "Error: -gid is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	ctrl := buildController(cfg, newLogger(*verbose))

	if err := ctrl.Stop(context.Background(), *gid); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, job.ErrNotFound) {
			return ExitNotFound
		}
		return ExitGeneralError
	}

	fmt.Println("removed")
	return ExitSuccess
}
