package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gabrielcapilla/focusguard/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViperConfigService_WritesDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "focusguard", "config.yml")

	cfg, err := NewViperConfigService(configPath).Load()
	require.NoError(t, err)
	assert.FileExists(t, configPath, "missing config file should be created")

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.Arbiter.SeekTolerance)
	assert.Equal(t, 10*time.Second, cfg.Arbiter.FocusTTL)
	assert.Equal(t, []string{"seek"}, cfg.Arbiter.Strategies)
	assert.Equal(t, "universalVideoControlChannel", cfg.Register.ChannelKey)
	assert.Equal(t, "lastFocusedWindow", cfg.Register.LedgerKey)
	assert.Equal(t, 500*time.Millisecond, cfg.Player.PollInterval)
	require.Len(t, cfg.Sites, 2)
	assert.Equal(t, "bilibili.com", cfg.Sites[0].Match)
	assert.Equal(t, "#movie_player", cfg.Sites[1].PlayerSelector)

	reloaded, err := NewViperConfigService(configPath).Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.Arbiter, reloaded.Arbiter)
}

func TestViperConfigService_ReadsFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	content := `
logLevel: debug
arbiter:
  seekTolerance: 1500ms
  focusTTL: 5s
  strategies: [ledger, seek]
register:
  path: /tmp/focusguard-test.db
sites:
  - name: twitch
    match: twitch.tv
    playerSelector: ".video-player"
    mpvArgs: ["--ytdl-format=best"]
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := NewViperConfigService(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 1500*time.Millisecond, cfg.Arbiter.SeekTolerance)
	assert.Equal(t, 5*time.Second, cfg.Arbiter.FocusTTL)
	assert.Equal(t, []string{"ledger", "seek"}, cfg.Arbiter.Strategies)
	assert.Equal(t, "/tmp/focusguard-test.db", cfg.Register.Path)
	assert.Equal(t, "universalVideoControlChannel", cfg.Register.ChannelKey, "unset keys keep defaults")
	require.Len(t, cfg.Sites, 1)
	assert.Equal(t, domain.SiteAdapter{
		Name:           "twitch",
		Match:          "twitch.tv",
		PlayerSelector: ".video-player",
		MpvArgs:        []string{"--ytdl-format=best"},
	}, cfg.Sites[0])
}

func TestViperConfigService_EnvOverride(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("logLevel: info\n"), 0644))
	t.Setenv("FOCUSGUARD_ARBITER_FOCUSTTL", "3s")

	cfg, err := NewViperConfigService(configPath).Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Arbiter.FocusTTL)
}

func TestValidate(t *testing.T) {
	valid := domain.Config{
		Arbiter:  domain.ArbiterConfig{SeekTolerance: time.Second, FocusTTL: time.Second},
		Register: domain.RegisterConfig{ChannelKey: "a", LedgerKey: "b"},
		Player:   domain.PlayerConfig{PollInterval: time.Second},
	}
	require.NoError(t, Validate(valid))

	invalid := valid
	invalid.Arbiter.SeekTolerance = 0
	invalid.Register.LedgerKey = "a"
	invalid.Sites = []domain.SiteAdapter{{Name: "empty"}}

	err := Validate(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seekTolerance")
	assert.Contains(t, err.Error(), "must differ")
	assert.Contains(t, err.Error(), "sites[0]")
}
