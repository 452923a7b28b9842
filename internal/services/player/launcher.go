package player

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/gabrielcapilla/focusguard/internal/domain"
	"github.com/gabrielcapilla/focusguard/internal/logger"
)

const (
	socketCheckRetries  = 20
	socketCheckInterval = 100 * time.Millisecond
)

var execCommand = exec.Command

// Launcher runs the mpv process an instance arbitrates.
type Launcher struct {
	socketPath string
	config     domain.PlayerConfig
	cmd        *exec.Cmd
	exited     chan struct{}
	mu         sync.Mutex
}

func SocketPath(cfg domain.PlayerConfig, instanceID string) string {
	return filepath.Join(cfg.SocketDir, "focusguard-"+instanceID+".sock")
}

func NewLauncher(socketPath string, cfg domain.PlayerConfig) *Launcher {
	os.Remove(socketPath)
	return &Launcher{socketPath: socketPath, config: cfg}
}

func (l *Launcher) SocketPath() string { return l.socketPath }

func (l *Launcher) isProcessRunning() bool {
	return l.cmd != nil && l.cmd.Process != nil
}

func (l *Launcher) Start(mediaURL string, site domain.SiteAdapter) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.isProcessRunning() {
		select {
		case <-l.exited:
			l.cmd = nil
		default:
			return nil
		}
	}

	logger.Log.Info().Str("site", site.Name).Msg("Starting new mpv process...")
	args := []string{
		"--input-ipc-server=" + l.socketPath,
		"--no-terminal",
		// Playback starts only once focusguard listens to the player.
		"--pause",
	}
	args = append(args, l.config.ExtraArgs...)
	args = append(args, site.MpvArgs...)
	args = append(args, mediaURL)

	mpvPath := l.config.MpvPath
	if mpvPath == "" {
		mpvPath = "mpv"
	}

	l.cmd = execCommand(mpvPath, args...)
	l.cmd.Stdout = logger.Log
	l.cmd.Stderr = logger.Log

	if err := l.cmd.Start(); err != nil {
		l.cmd = nil
		return fmt.Errorf("could not start mpv process: %w", err)
	}

	exited := make(chan struct{})
	l.exited = exited
	go func(cmd *exec.Cmd) {
		if err := cmd.Wait(); err != nil {
			logger.Log.Info().Err(err).Msg("mpv process exited")
		}
		close(exited)
	}(l.cmd)

	for attempt := 0; attempt < socketCheckRetries; attempt++ {
		if _, err := os.Stat(l.socketPath); err == nil {
			logger.Log.Info().Msg("mpv socket detected. Process ready.")
			return nil
		}
		select {
		case <-exited:
			l.cmd = nil
			return fmt.Errorf("mpv exited before creating its socket at %s", l.socketPath)
		case <-time.After(socketCheckInterval):
		}
	}

	logger.Log.Error().Str("socket", l.socketPath).Msg("Timed out waiting for mpv socket.")
	_ = l.cmd.Process.Kill()
	l.cmd = nil
	return fmt.Errorf("mpv process started but socket did not appear at %s", l.socketPath)
}

// Exited is closed when the current mpv process ends.
func (l *Launcher) Exited() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.exited == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return l.exited
}

func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.isProcessRunning() {
		select {
		case <-l.exited:
		default:
			if err := l.cmd.Process.Kill(); err != nil {
				logger.Log.Error().Err(err).Msg("Error terminating mpv process")
			}
		}
	}
	os.Remove(l.socketPath)
	return nil
}
