// Package config defines configuration for fetchd.
//
// Configuration can be provided via:
//   - Environment variables (FETCHD_ prefix, plus HF_TOKEN / CIVIT_TOKEN)
//   - YAML configuration file
//
// It is read once at process start and covers the daemon control endpoint
// (RPC URL, shared secret, binary), probe and startup timeouts, and default
// credentials for known hosting providers. Provider credentials are only
// consulted when a request carries no token of its own, never silently
// substituted for a caller-supplied one.
package config
