package domain

import "time"

type Config struct {
	LogLevel string         `mapstructure:"logLevel"`
	Arbiter  ArbiterConfig  `mapstructure:"arbiter"`
	Register RegisterConfig `mapstructure:"register"`
	Player   PlayerConfig   `mapstructure:"player"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Sites    []SiteAdapter  `mapstructure:"sites"`
}

type ArbiterConfig struct {
	SeekTolerance time.Duration `mapstructure:"seekTolerance"`
	FocusTTL      time.Duration `mapstructure:"focusTTL"`
	Strategies    []string      `mapstructure:"strategies"`
}

type RegisterConfig struct {
	Path       string `mapstructure:"path"`
	ChannelKey string `mapstructure:"channelKey"`
	LedgerKey  string `mapstructure:"ledgerKey"`
}

type PlayerConfig struct {
	MpvPath      string        `mapstructure:"mpvPath"`
	SocketDir    string        `mapstructure:"socketDir"`
	PollInterval time.Duration `mapstructure:"pollInterval"`
	ExtraArgs    []string      `mapstructure:"extraArgs"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// SiteAdapter describes where the playable element of a site lives.
// Match is a substring of the hostname.
type SiteAdapter struct {
	Name           string   `mapstructure:"name"`
	Match          string   `mapstructure:"match"`
	PlayerSelector string   `mapstructure:"playerSelector"`
	MpvArgs        []string `mapstructure:"mpvArgs"`
}
