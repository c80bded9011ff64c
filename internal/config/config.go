package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for a locally supervised daemon.
const (
	DefaultRPCURL = "http://127.0.0.1:6800/jsonrpc"
	DefaultSecret = "fetchd_aria2_secret"
	DefaultBinary = "aria2c"
)

// Tokens holds default credentials for known hosting providers.
type Tokens struct {
	HF      string `yaml:"hf"`
	Civitai string `yaml:"civitai"`
}

// Config defines configuration for fetchd.
type Config struct {
	RPCURL        string        // daemon JSON-RPC endpoint
	Secret        string        // shared RPC secret
	Binary        string        // daemon executable name or path
	ProbeTimeout  time.Duration // per-probe request bound
	StartupWindow time.Duration // how long a fresh daemon gets to come up
	Tokens        Tokens
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		RPCURL:        DefaultRPCURL,
		Secret:        DefaultSecret,
		Binary:        DefaultBinary,
		ProbeTimeout:  10 * time.Second,
		StartupWindow: 3 * time.Second,
	}
}

// yamlConfig is used for YAML unmarshaling with string duration fields.
type yamlConfig struct {
	RPCURL        string `yaml:"rpc_url"`
	Secret        string `yaml:"secret"`
	Binary        string `yaml:"binary"`
	ProbeTimeout  string `yaml:"probe_timeout"`
	StartupWindow string `yaml:"startup_window"`
	Tokens        Tokens `yaml:"tokens"`
}

// LoadFromFile loads configuration from a YAML file, on top of defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()
	if yc.RPCURL != "" {
		cfg.RPCURL = yc.RPCURL
	}
	if yc.Secret != "" {
		cfg.Secret = yc.Secret
	}
	if yc.Binary != "" {
		cfg.Binary = yc.Binary
	}
	if yc.ProbeTimeout != "" {
		d, err := time.ParseDuration(yc.ProbeTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse probe_timeout: %w", err)
		}
		cfg.ProbeTimeout = d
	}
	if yc.StartupWindow != "" {
		d, err := time.ParseDuration(yc.StartupWindow)
		if err != nil {
			return Config{}, fmt.Errorf("parse startup_window: %w", err)
		}
		cfg.StartupWindow = d
	}
	if yc.Tokens.HF != "" {
		cfg.Tokens.HF = yc.Tokens.HF
	}
	if yc.Tokens.Civitai != "" {
		cfg.Tokens.Civitai = yc.Tokens.Civitai
	}

	return cfg, nil
}

// LoadFromEnv overlays environment variables onto c.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("FETCHD_RPC_URL"); v != "" {
		c.RPCURL = v
	}
	if v := os.Getenv("FETCHD_RPC_SECRET"); v != "" {
		c.Secret = v
	}
	if v := os.Getenv("FETCHD_ARIA2_BIN"); v != "" {
		c.Binary = v
	}
	if v := os.Getenv("FETCHD_PROBE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse FETCHD_PROBE_TIMEOUT: %w", err)
		}
		c.ProbeTimeout = d
	}
	if v := os.Getenv("FETCHD_STARTUP_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse FETCHD_STARTUP_WINDOW: %w", err)
		}
		c.StartupWindow = d
	}
	if v := os.Getenv("HF_TOKEN"); v != "" {
		c.Tokens.HF = v
	}
	if v := os.Getenv("CIVIT_TOKEN"); v != "" {
		c.Tokens.Civitai = v
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.RPCURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("config: rpc_url must be an http(s) URL")
	}
	if c.Binary == "" {
		return errors.New("config: binary is required")
	}
	if c.ProbeTimeout <= 0 {
		return errors.New("config: probe_timeout must be positive")
	}
	if c.StartupWindow <= 0 {
		return errors.New("config: startup_window must be positive")
	}
	return nil
}

// TokenFor returns the default credential for a URL's hosting provider, or
// "" when none is configured. Callers consult it only when the request
// carries no token of its own.
func (c *Config) TokenFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case host == "huggingface.co" || strings.HasSuffix(host, ".huggingface.co"):
		return c.Tokens.HF
	case host == "civitai.com" || strings.HasSuffix(host, ".civitai.com"):
		return c.Tokens.Civitai
	}
	return ""
}

// RedactToken shortens a credential to its last four characters for display.
func RedactToken(token string) string {
	if len(token) <= 4 {
		return token
	}
	return "…" + token[len(token)-4:]
}
