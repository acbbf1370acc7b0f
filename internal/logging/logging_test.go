package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw    string
		want   zerolog.Level
		wantOK bool
	}{
		{raw: "", want: zerolog.InfoLevel},
		{raw: "DEBUG", want: zerolog.DebugLevel, wantOK: true},
		{raw: " warning ", want: zerolog.WarnLevel, wantOK: true},
		{raw: "off", want: zerolog.Disabled, wantOK: true},
		{raw: "loud", want: zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parseLevel(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestConfigure_Levels(t *testing.T) {
	var out bytes.Buffer
	log, err := Configure(ProfileRuntime, Options{Out: &out, NoColor: true, Level: "warn"})
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown")

	_, err = Configure(ProfileRuntime, Options{Out: &out, Level: "loud"})
	assert.Error(t, err)
}

func TestConfigure_EnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "false")

	var out bytes.Buffer
	log, err := Configure(ProfileRuntime, Options{Out: &out, NoColor: true, Level: "debug"})
	require.NoError(t, err)

	log.Warn().Msg("quiet")
	log.Error().Msg("loud")
	assert.NotContains(t, out.String(), "quiet")
	assert.Contains(t, out.String(), "loud")
}

func TestConfigureTests(t *testing.T) {
	var out bytes.Buffer
	log := ConfigureTests(&out)
	log.Debug().Str("k", "v").Msg("detail")
	assert.Contains(t, out.String(), "detail")
	assert.Contains(t, out.String(), "k=v")
}

func TestConfigure_RollingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "fuzzdesc.log")

	var out bytes.Buffer
	log, err := Configure(ProfileTest, Options{Out: &out, NoColor: true, File: path})
	require.NoError(t, err)
	log.Info().Msg("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)
}
