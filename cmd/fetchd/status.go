package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/azoksky/fetchd/internal/job"
)

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ExitOnError)

	gid := fs.String("gid", "", "Download gid (required)")
	configPath := fs.String("config", "", "Path to YAML config file")
	verbose := fs.Bool("v", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: fetchd status [options]

Query the daemon for one download's state, byte counters, speed, and ETA.

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

	st, err := ctrl.Status(context.Background(), *gid)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, job.ErrNotFound) {
			return ExitNotFound
		}
		return ExitGeneralError
	}

	fmt.Printf("status: %s\n", st.Status)
	fmt.Printf("percent: %.2f\n", st.Percent)
	fmt.Printf("completed: %d\n", st.CompletedBytes)
	fmt.Printf("total: %d\n", st.TotalBytes)
	fmt.Printf("speed: %d\n", st.SpeedBytesPerSec)
	fmt.Printf("eta: %d\n", st.ETASeconds)
	if st.Filename != "" {
		fmt.Printf("filename: %s\n", st.Filename)
	}
	if st.Filepath != "" {
		fmt.Printf("filepath: %s\n", st.Filepath)
	}
	if st.ErrorMessage != "" {
		fmt.Printf("error: %s\n", st.ErrorMessage)
	}
	return ExitSuccess
}
