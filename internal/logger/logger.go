package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger()

type Options struct {
	Level string
	// ToFile sends output to focusguard.log in the user config dir instead
	// of stderr. Needed while the terminal view owns the screen.
	ToFile bool
}

func Setup(opts Options) (io.Closer, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if !opts.ToFile {
		Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
		return nopCloser{}, nil
	}

	logPath := filepath.Join(os.TempDir(), "focusguard.log")
	configDir, err := os.UserConfigDir()
	if err == nil {
		dir := filepath.Join(configDir, "focusguard")
		if err := os.MkdirAll(dir, 0755); err == nil {
			logPath = filepath.Join(dir, "focusguard.log")
		}
	}

	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}

	Log = zerolog.New(file).With().Timestamp().Caller().Logger()
	Log.Info().Str("path", logPath).Msg("Logger initialized")
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
