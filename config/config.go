// Package config loads display server configuration from TOML.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config carries everything a Display needs to serve clients.
type Config struct {
	// Network is the listen network: "unix" for a local display,
	// "tcp" for a remote one.
	Network string
	// Addr is the socket path (unix) or host:port (tcp).
	Addr string
	// MaxClients caps concurrent client connections; 0 means unlimited.
	MaxClients int
	// LogLevel is a zerolog level name: trace, debug, info, warn, error.
	LogLevel string

	RateLimit RateLimitConfig
	Discovery DiscoveryConfig
}

// RateLimitConfig bounds the per-client message rate.
type RateLimitConfig struct {
	// Rate is messages per second added to each client's bucket.
	Rate float64
	// Burst is the bucket size.
	Burst int
}

// DiscoveryConfig configures endpoint advertisement for remote displays.
// An empty Endpoints list disables discovery.
type DiscoveryConfig struct {
	// Display is the name this display advertises under.
	Display string
	// Endpoints are the etcd endpoints to register with.
	Endpoints []string
	// TTL is the advertisement lease in seconds.
	TTL int64
}

// Default returns the configuration for a local display.
func Default() Config {
	return Config{
		Network:  "unix",
		Addr:     "/run/waylink/display-0",
		LogLevel: "info",
		RateLimit: RateLimitConfig{
			Rate:  10000,
			Burst: 2000,
		},
		Discovery: DiscoveryConfig{
			Display: "display-0",
			TTL:     10,
		},
	}
}

type fileConfig struct {
	Network       string   `toml:"network"`
	Addr          string   `toml:"addr"`
	MaxClients    int      `toml:"max_clients"`
	LogLevel      string   `toml:"log_level"`
	RateLimit     float64  `toml:"rate_limit"`
	RateBurst     int      `toml:"rate_burst"`
	Display       string   `toml:"display"`
	EtcdEndpoints []string `toml:"etcd_endpoints"`
	DiscoveryTTL  int64    `toml:"discovery_ttl"`
}

// Load reads a TOML file, applying its values over Default. Only keys
// present in the file override the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load display config: %w", err)
	}

	if meta.IsDefined("network") {
		if raw.Network != "unix" && raw.Network != "tcp" {
			return Config{}, fmt.Errorf("load display config: network must be unix or tcp, got %q", raw.Network)
		}
		cfg.Network = raw.Network
	}
	if meta.IsDefined("addr") {
		cfg.Addr = raw.Addr
	}
	if meta.IsDefined("max_clients") {
		cfg.MaxClients = raw.MaxClients
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = raw.LogLevel
	}
	if meta.IsDefined("rate_limit") {
		cfg.RateLimit.Rate = raw.RateLimit
	}
	if meta.IsDefined("rate_burst") {
		cfg.RateLimit.Burst = raw.RateBurst
	}
	if meta.IsDefined("display") {
		cfg.Discovery.Display = raw.Display
	}
	if meta.IsDefined("etcd_endpoints") {
		cfg.Discovery.Endpoints = raw.EtcdEndpoints
	}
	if meta.IsDefined("discovery_ttl") {
		cfg.Discovery.TTL = raw.DiscoveryTTL
	}

	return cfg, nil
}
