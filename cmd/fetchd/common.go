package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/azoksky/fetchd/internal/aria2"
	"github.com/azoksky/fetchd/internal/config"
	"github.com/azoksky/fetchd/internal/job"
	"github.com/azoksky/fetchd/internal/negotiate"
	"github.com/azoksky/fetchd/internal/probe"
)

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// loadConfig layers defaults, an optional YAML file, and the environment.
func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.LoadFromFile(path)
		if err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newRPCClient(cfg config.Config) *aria2.Client {
	return aria2.NewClient(aria2.Options{RPCURL: cfg.RPCURL, Secret: cfg.Secret})
}

func buildController(cfg config.Config, logger zerolog.Logger) *job.Controller {
	client := newRPCClient(cfg)
	sup := aria2.NewSupervisor(client,
		aria2.WithBinary(cfg.Binary),
		aria2.WithStartupWindow(cfg.StartupWindow),
		aria2.WithLogger(logger),
	)
	prober := probe.New(probe.Options{Timeout: cfg.ProbeTimeout})
	neg := negotiate.New(prober)
	return job.New(client, sup, neg, prober, job.WithLogger(logger))
}
