// Package config holds runtime settings for the farm-diary gateway.
package config

import "time"

// Config is assembled from defaults, an optional JSON file, and command-line
// flags, each layer overriding the previous one.
type Config struct {
	// ListenAddr is the host:port the gateway serves on.
	ListenAddr string
	// UpstreamBase is the diary server's base URL.
	UpstreamBase string
	// DatabasePath is the local SQLite file backing the durable store and
	// the persistent cache namespaces.
	DatabasePath string
	// Version names this gateway deployment; it suffixes the static cache
	// namespace.
	Version string
	// OnlineCheckInterval is how often connectivity is probed.
	OnlineCheckInterval time.Duration
	// OwnerID is the diary owner this device syncs for.
	OwnerID string
	// ShellAssets are precached during install.
	ShellAssets []string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ListenAddr = "127.0.0.1:8787"
	c.UpstreamBase = "http://127.0.0.1:3000"
	c.DatabasePath = "farmdiary.db"
	c.Version = "v1"
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseFlags(cfg)
	return cfg
}
