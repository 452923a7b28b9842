package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gabrielcapilla/focusguard/internal/logger"
	"github.com/gabrielcapilla/focusguard/internal/services/register"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print every change of the shared registers",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := logger.Setup(logger.Options{Level: cfg.LogLevel}); err != nil {
		return err
	}

	store, err := register.OpenFileStore(cfg.Register.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	claims := store.Slot(cfg.Register.ChannelKey)
	cancelClaims := claims.Subscribe(func(_, next []byte) {
		c, err := register.DecodeClaim(next)
		if err != nil {
			logger.Log.Warn().Err(err).Bytes("raw", next).Msg("Undecodable claim")
			return
		}
		logger.Log.Info().Str("sender", c.Sender).Str("action", c.Action).Time("at", c.Timestamp).Msg("Claim")
	})
	defer cancelClaims()

	focus := store.Slot(cfg.Register.LedgerKey)
	cancelFocus := focus.Subscribe(func(_, next []byte) {
		f, err := register.DecodeFocusClaim(next)
		if err != nil {
			logger.Log.Warn().Err(err).Bytes("raw", next).Msg("Undecodable focus claim")
			return
		}
		logger.Log.Info().Str("instance", f.InstanceID).Time("at", f.Timestamp).Msg("Focus")
	})
	defer cancelFocus()

	logger.Log.Info().Str("path", store.Path()).Msg("Watching registers")

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()
	return nil
}
