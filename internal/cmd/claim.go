package cmd

import (
	"fmt"
	"time"

	"github.com/gabrielcapilla/focusguard/internal/domain"
	"github.com/gabrielcapilla/focusguard/internal/instance"
	"github.com/gabrielcapilla/focusguard/internal/services/register"

	"github.com/spf13/cobra"
)

var claimSender string

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Announce playback as if another instance had started playing",
	Args:  cobra.NoArgs,
	RunE:  runClaim,
}

func init() {
	claimCmd.Flags().StringVar(&claimSender, "sender", "", "sender id (default: a fresh id)")
	rootCmd.AddCommand(claimCmd)
}

func runClaim(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := register.OpenFileStore(cfg.Register.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	sender := claimSender
	if sender == "" {
		sender = instance.NewID()
	}

	data, err := register.EncodeClaim(domain.NewClaim(sender, time.Now()))
	if err != nil {
		return err
	}
	if err := store.Slot(cfg.Register.ChannelKey).Publish(data); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "claimed as %s\n", sender)
	return nil
}
