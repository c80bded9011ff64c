package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
)

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config file")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: fetchd version [options]

Query the version of the running aria2 daemon.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	v, err := newRPCClient(cfg).Version(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: daemon unreachable: %v\n", err)
		return ExitDaemonDown
	}

	fmt.Printf("aria2 %s\n", v.Version)
	if len(v.EnabledFeatures) > 0 {
		fmt.Printf("features: %s\n", strings.Join(v.EnabledFeatures, ", "))
	}
	return ExitSuccess
}
