package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/azoksky/fetchd/internal/config"
	"github.com/azoksky/fetchd/internal/negotiate"
	"github.com/azoksky/fetchd/internal/probe"
)

// headerFlags collects repeated -header "Name: value" flags.
type headerFlags map[string]string

func (h headerFlags) String() string { return fmt.Sprintf("%v", map[string]string(h)) }

func (h headerFlags) Set(v string) error {
	name, value, ok := strings.Cut(v, ":")
	if !ok {
		return fmt.Errorf("expected \"Name: value\", got %q", v)
	}
	h[strings.TrimSpace(name)] = strings.TrimSpace(value)
	return nil
}

func runProbe(args []string) int {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)

	rawURL := fs.String("url", "", "URL to probe (required)")
	token := fs.String("token", "", "Access token; runs a full negotiation instead of a single probe")
	configPath := fs.String("config", "", "Path to YAML config file")
	headers := headerFlags{}
	fs.Var(headers, "header", "Extra request header \"Name: value\" (repeatable)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: fetchd probe [options]

Check whether a URL is fetchable without downloading it. With -token, the
full strategy negotiation runs and every attempt is printed; without it, a
single probe with the given headers.

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
	prober := probe.New(probe.Options{Timeout: cfg.ProbeTimeout})
	ctx := context.Background()

	tok := *token
	if tok == "" && len(headers) == 0 {
		if tok = cfg.TokenFor(*rawURL); tok != "" {
			fmt.Fprintf(os.Stderr, "[fetchd] using configured provider credential (%s)\n", config.RedactToken(tok))
		}
	}

	if tok != "" {
		res := negotiate.New(prober).Negotiate(ctx, *rawURL, tok)
		printAttempts(res.Attempts)
		if !res.OK {
			return ExitNegotiation
		}
		fmt.Printf("strategy: %s\n", res.Strategy)
		if res.Filename != "" {
			fmt.Printf("filename: %s (confident=%v)\n", res.Filename, res.Confident)
		}
		return ExitSuccess
	}

	res := prober.Probe(ctx, *rawURL, headers)
	fmt.Printf("ok: %v\n", res.OK)
	fmt.Printf("status: %d\n", res.Status)
	fmt.Printf("final_url: %s\n", res.FinalURL)
	if res.Note != probe.NoteNone {
		fmt.Printf("note: %s\n", res.Note)
	}
	if res.Filename != "" {
		fmt.Printf("filename: %s (confident=%v)\n", res.Filename, res.Confident)
	}
	if !res.OK {
		return ExitGeneralError
	}
	return ExitSuccess
}

func printAttempts(attempts []negotiate.Attempt) {
	for _, a := range attempts {
		note := a.Note
		if note == "" {
			note = "-"
		}
		fmt.Fprintf(os.Stderr, "  %-12s status=%-3d ok=%-5v note=%s\n", a.Strategy, a.Status, a.OK, note)
	}
}
