package spqrlog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewZeroLogger_DefaultIsJSON(t *testing.T) {
	var buf bytes.Buffer

	logger := NewZeroLogger("", "info", false)
	l := logger.Output(&buf)
	l.Info().Msg("test message")

	out := buf.String()

	if !strings.Contains(out, `"level":"info"`) {
		t.Fatalf("expected JSON output with level field, got: %s", out)
	}
	if !strings.Contains(out, `"message":"test message"`) {
		t.Fatalf("expected JSON output with message field, got: %s", out)
	}
}

func TestZeroDefaultLevelIsInfo(t *testing.T) {
	level := Zero.GetLevel()
	if level != zerolog.InfoLevel {
		t.Fatalf("expected default log level to be Info, got: %v", level)
	}
}

func TestParseLevel(t *testing.T) {
	assert := assert.New(t)

	for in, exp := range map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"debug":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"fatal":   zerolog.FatalLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	} {
		assert.Equal(exp, parseLevel(in), in)
	}
}

func TestUpdateZeroLogLevel(t *testing.T) {
	saved := Zero
	defer func() { Zero = saved }()

	assert.NoError(t, UpdateZeroLogLevel("debug"))
	assert.True(t, IsDebugLevel())

	assert.NoError(t, UpdateZeroLogLevel("error"))
	assert.False(t, IsDebugLevel())
}

func TestReloadLoggerWritesToFile(t *testing.T) {
	saved := Zero
	defer func() {
		ReloadLogger("", "info", false)
		Zero = saved
	}()

	path := filepath.Join(t.TempDir(), "insel.log")
	ReloadLogger(path, "info", false)
	Zero.Info().Str("shard", "sh1").Msg("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"shard":"sh1"`)
}

type sample struct {
	Age int
}

func TestGetPointer(t *testing.T) {
	tests := []interface{}{true, 123, "denis", sample{Age: 25}}
	for _, test := range tests {
		expected := fmt.Sprintf("%p", &test)

		result := GetPointer(&test)
		fmtOutput := fmt.Sprintf("0x%x", result)

		assert.Equal(t, expected, fmtOutput)
	}
}
