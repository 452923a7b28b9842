package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gabrielcapilla/focusguard/internal/instance"
	"github.com/gabrielcapilla/focusguard/internal/logger"
	"github.com/gabrielcapilla/focusguard/internal/metrics"
	"github.com/gabrielcapilla/focusguard/internal/oracle"
	"github.com/gabrielcapilla/focusguard/internal/ports"
	"github.com/gabrielcapilla/focusguard/internal/services/discovery"
	"github.com/gabrielcapilla/focusguard/internal/services/player"
	"github.com/gabrielcapilla/focusguard/internal/services/register"
	"github.com/gabrielcapilla/focusguard/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var runStrategies []string

var runCmd = &cobra.Command{
	Use:   "run <media-url>",
	Short: "Play a media URL as a guarded instance",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringSliceVar(&runStrategies, "strategies", nil, "allow-while-unfocused strategies in order (seek, ledger)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	if cmd.Flags().Changed("strategies") {
		cfg.Arbiter.Strategies = runStrategies
	}

	logFile, err := logger.Setup(logger.Options{Level: cfg.LogLevel, ToFile: true})
	if err != nil {
		return err
	}
	defer logFile.Close()

	mediaURL := args[0]
	site, err := discovery.ResolveURL(cfg.Sites, mediaURL)
	if errors.Is(err, discovery.ErrUnknownSite) {
		logger.Log.Info().Str("url", mediaURL).Msg("No site adapter, nothing to guard")
		fmt.Fprintf(cmd.OutOrStdout(), "no site adapter matches %s\n", mediaURL)
		return nil
	}
	if err != nil {
		return err
	}

	store, err := register.OpenFileStore(cfg.Register.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	state := oracle.New(true, true)
	statusCh := make(chan instance.Status, 1)

	// mpv starts paused; the first bound connection resumes it so the start
	// is arbitrated like any other play. Later reconnects leave it alone.
	var startOnce sync.Once
	startPlayback := func(el ports.Element) {
		mpv, ok := el.(*player.MpvElement)
		if !ok {
			return
		}
		startOnce.Do(func() {
			go func() {
				if err := mpv.Resume(); err != nil {
					logger.Log.Error().Err(err).Msg("Could not start playback")
				}
			}()
		})
	}

	inst, err := instance.New(instance.Options{
		Claims:   store.Slot(cfg.Register.ChannelKey),
		Ledger:   store.Slot(cfg.Register.LedgerKey),
		Oracle:   state,
		Arbiter:  cfg.Arbiter,
		OnStatus: func(s instance.Status) { replaceLatest(statusCh, s) },
		OnBound:  startPlayback,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	launcher := player.NewLauncher(player.SocketPath(cfg.Player, inst.ID()), cfg.Player)
	if err := launcher.Start(mediaURL, site); err != nil {
		return err
	}
	defer launcher.Close()

	locator := player.NewSocketLocator(launcher.SocketPath())
	defer locator.Close()

	program := tea.NewProgram(
		ui.InitialModel(state, inst, site, cfg.Sites, mediaURL),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	go func() {
		if err := inst.Run(ctx); err != nil && !errors.Is(err, ctx.Err()) {
			logger.Log.Error().Err(err).Msg("Instance loop failed")
		}
	}()

	go func() {
		watcher := discovery.Watcher{Locator: locator, Interval: cfg.Player.PollInterval}
		_ = watcher.Run(ctx, func(el ports.Element) { _ = inst.Bind(el) })
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-statusCh:
				program.Send(ui.StatusMsg(s))
			}
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
		case <-launcher.Exited():
			program.Send(ui.PlayerExitedMsg())
		}
	}()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logger.Log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	_, err = program.Run()
	cancel()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// replaceLatest keeps only the newest status for the view.
func replaceLatest(ch chan instance.Status, s instance.Status) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
