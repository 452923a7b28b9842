package cmd

import (
	"github.com/gabrielcapilla/focusguard/internal/domain"
	"github.com/gabrielcapilla/focusguard/internal/services/config"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "focusguard",
	Short: "Keep only the focused player instance playing",
	Long: `focusguard runs media players side by side and lets only the one you are
attending to keep playing. Instances announce playback through a shared
register; every other instance pauses itself unless it holds focus.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.config/focusguard/config.yml)")
}

func loadConfig() (domain.Config, error) {
	return config.NewViperConfigService(configFile).Load()
}
