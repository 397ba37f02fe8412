package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"gateway"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestLoadConfig_Defaults(t *testing.T) {
	withArgs(t)

	cfg := LoadConfig()

	assert.Equal(t, "127.0.0.1:8787", cfg.ListenAddr)
	assert.Equal(t, "http://127.0.0.1:3000", cfg.UpstreamBase)
	assert.Equal(t, "farmdiary.db", cfg.DatabasePath)
	assert.Equal(t, "v1", cfg.Version)
	assert.Equal(t, 3*time.Second, cfg.OnlineCheckInterval)
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	withArgs(t, "-l", "0.0.0.0:9090", "-u", "http://diary.local", "-i", "10")

	cfg := LoadConfig()

	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "http://diary.local", cfg.UpstreamBase)
	assert.Equal(t, 10*time.Second, cfg.OnlineCheckInterval)
}

func TestLoadConfig_JSONOverlayAndFlagPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"listen_addr": "127.0.0.1:7000",
		"version": "v7",
		"online_check_interval": "30s",
		"owner_id": "user-7",
		"shell_assets": ["/assets/app.js"]
	}`), 0o600))

	// Flags win over JSON for the fields they set.
	withArgs(t, "-c", path, "-l", "127.0.0.1:7100")

	cfg := LoadConfig()

	assert.Equal(t, "127.0.0.1:7100", cfg.ListenAddr)
	assert.Equal(t, "v7", cfg.Version)
	assert.Equal(t, 30*time.Second, cfg.OnlineCheckInterval)
	assert.Equal(t, "user-7", cfg.OwnerID)
	assert.Equal(t, []string{"/assets/app.js"}, cfg.ShellAssets)
	// Fields absent from both layers keep their defaults.
	assert.Equal(t, "farmdiary.db", cfg.DatabasePath)
}
