package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/lvminh/farmdiary/internal/flagx"
	"github.com/lvminh/farmdiary/internal/timex"
)

// jsonConfig is a DTO used exclusively for JSON unmarshalling. Durations may
// be strings like "3s" or integer nanoseconds.
type jsonConfig struct {
	ListenAddr          *string         `json:"listen_addr"`
	UpstreamBase        *string         `json:"upstream_base"`
	DatabasePath        *string         `json:"database_path"`
	Version             *string         `json:"version"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	OwnerID             *string         `json:"owner_id"`
	ShellAssets         []string        `json:"shell_assets"`
}

// parseJSON overlays Config with values from the file named by -c/-config.
// Absent file: no-op. Unreadable or malformed file: panic, the caller decides
// whether to recover.
func parseJSON(cfg *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ListenAddr != nil {
		cfg.ListenAddr = *jc.ListenAddr
	}
	if jc.UpstreamBase != nil {
		cfg.UpstreamBase = *jc.UpstreamBase
	}
	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	if jc.Version != nil {
		cfg.Version = *jc.Version
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.OwnerID != nil {
		cfg.OwnerID = *jc.OwnerID
	}
	if jc.ShellAssets != nil {
		cfg.ShellAssets = jc.ShellAssets
	}
}
