package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabrielcapilla/focusguard/internal/domain"
	"github.com/gabrielcapilla/focusguard/internal/logger"
	"github.com/gabrielcapilla/focusguard/internal/ports"

	"github.com/spf13/viper"
)

type ViperConfigService struct {
	v          *viper.Viper
	configFile string
}

// NewViperConfigService reads configFile when given, otherwise config.yml
// from the focusguard config dir or the working directory.
func NewViperConfigService(configFile string) ports.ConfigService {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		configDir, err := os.UserConfigDir()
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Could not find user config directory, using current directory")
		}

		if configDir != "" {
			focusguardDir := filepath.Join(configDir, "focusguard")
			if err := os.MkdirAll(focusguardDir, 0755); err != nil {
				logger.Log.Error().Err(err).Msg("Could not create focusguard config directory")
			} else {
				v.AddConfigPath(focusguardDir)
			}
		}

		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FOCUSGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	return &ViperConfigService{v: v, configFile: configFile}
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")

	v.SetDefault("arbiter.seekTolerance", "2s")
	v.SetDefault("arbiter.focusTTL", "10s")
	v.SetDefault("arbiter.strategies", []string{"seek"})

	v.SetDefault("register.path", filepath.Join(runtimeDir(), "focusguard", "registers.db"))
	v.SetDefault("register.channelKey", "universalVideoControlChannel")
	v.SetDefault("register.ledgerKey", "lastFocusedWindow")

	v.SetDefault("player.mpvPath", "mpv")
	v.SetDefault("player.socketDir", os.TempDir())
	v.SetDefault("player.pollInterval", "500ms")
	v.SetDefault("player.extraArgs", []string{})

	v.SetDefault("metrics.addr", "")

	v.SetDefault("sites", []map[string]any{
		{"name": "bilibili", "match": "bilibili.com", "playerSelector": "#bilibili-player"},
		{"name": "youtube", "match": "youtube.com", "playerSelector": "#movie_player"},
	})
}

func (s *ViperConfigService) Load() (domain.Config, error) {
	var cfg domain.Config

	if err := s.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) || errors.Is(err, fs.ErrNotExist) {
			logger.Log.Info().Msg("Config file not found, creating with default values.")
			if err := s.writeDefaults(); err != nil {
				return cfg, err
			}
		} else {
			return cfg, err
		}
	}

	if err := s.v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (s *ViperConfigService) writeDefaults() error {
	if s.configFile == "" {
		return s.v.SafeWriteConfig()
	}
	if err := os.MkdirAll(filepath.Dir(s.configFile), 0755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	return s.v.WriteConfigAs(s.configFile)
}

func Validate(cfg domain.Config) error {
	var errs []error
	if cfg.Arbiter.SeekTolerance <= 0 {
		errs = append(errs, fmt.Errorf("arbiter.seekTolerance must be positive, got %s", cfg.Arbiter.SeekTolerance))
	}
	if cfg.Arbiter.FocusTTL <= 0 {
		errs = append(errs, fmt.Errorf("arbiter.focusTTL must be positive, got %s", cfg.Arbiter.FocusTTL))
	}
	if cfg.Register.ChannelKey == "" {
		errs = append(errs, errors.New("register.channelKey is required"))
	}
	if cfg.Register.LedgerKey == "" {
		errs = append(errs, errors.New("register.ledgerKey is required"))
	}
	if cfg.Register.ChannelKey != "" && cfg.Register.ChannelKey == cfg.Register.LedgerKey {
		errs = append(errs, errors.New("register.channelKey and register.ledgerKey must differ"))
	}
	if cfg.Player.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("player.pollInterval must be positive, got %s", cfg.Player.PollInterval))
	}
	for i, site := range cfg.Sites {
		if site.Match == "" {
			errs = append(errs, fmt.Errorf("sites[%d]: match is required", i))
		}
	}
	return errors.Join(errs...)
}

func runtimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}
