// Package logging builds the zerolog logger shared by the fuzzdesc commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	EnvLogLevel     = "FUZZDESC_LOG_LEVEL"
	EnvLogTimestamp = "FUZZDESC_LOG_TIMESTAMP"
	EnvLogNoColor   = "FUZZDESC_LOG_NOCOLOR"
)

const (
	consoleTimeFormat = time.Kitchen
	maxLogSizeMB      = 10
	maxLogBackups     = 3
	maxLogAgeDays     = 28
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Options are the settings that come from the command line and the
// configuration file. Environment variables win over both.
type Options struct {
	Level   string
	File    string
	NoColor bool
	// Out receives console output; nil means stderr.
	Out io.Writer
}

type settings struct {
	level     zerolog.Level
	timestamp bool
	noColor   bool
}

// Configure returns a logger for profile. An unknown level in opts is
// reported as an error rather than silently ignored.
func Configure(profile Profile, opts Options) (zerolog.Logger, error) {
	cfg := defaultSettings(profile)
	if opts.Level != "" {
		lvl, ok := parseLevel(opts.Level)
		if !ok {
			return zerolog.Nop(), fmt.Errorf("unknown log level %q", opts.Level)
		}
		cfg.level = lvl
	}
	cfg.noColor = cfg.noColor || opts.NoColor
	applyEnvOverrides(&cfg)

	writers := []io.Writer{consoleWriter(opts.Out, cfg)}
	if opts.File != "" {
		rolling, err := rollingWriter(opts.File)
		if err != nil {
			return zerolog.Nop(), err
		}
		writers = append(writers, rolling)
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(cfg.level).With()
	if cfg.timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger(), nil
}

// ConfigureTests returns the debug logger used by tests, writing to w.
func ConfigureTests(w io.Writer) zerolog.Logger {
	log, _ := Configure(ProfileTest, Options{Out: w, NoColor: true})
	return log
}

func defaultSettings(profile Profile) settings {
	switch profile {
	case ProfileTest:
		return settings{level: zerolog.DebugLevel}
	default:
		return settings{level: zerolog.InfoLevel, timestamp: true}
	}
}

func applyEnvOverrides(cfg *settings) {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.noColor = v
	}
}

func consoleWriter(out io.Writer, cfg settings) io.Writer {
	noColor := cfg.noColor
	if out == nil {
		out = colorable.NewColorable(os.Stderr)
		noColor = noColor || !term.IsTerminal(int(os.Stderr.Fd()))
	}
	w := zerolog.ConsoleWriter{Out: out, NoColor: noColor, TimeFormat: consoleTimeFormat}
	if !cfg.timestamp {
		w.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	return w
}

func rollingWriter(path string) (io.Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("unable to create directories for logfile: %w", err)
		}
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
	}, nil
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
