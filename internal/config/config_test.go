package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)
	viper.SetDefault("copilot.binary", "copilot")
	viper.SetDefault("copilot.timeout_ms", 60000)
	viper.SetDefault("copilot.max_prompt_bytes", 24000)
	viper.SetDefault("log.level", "info")

	s := Load()
	assert.Equal(t, "copilot", s.Binary)
	assert.Equal(t, 60*time.Second, s.Timeout)
	assert.Equal(t, 24000, s.MaxPromptBytes)
	assert.Equal(t, slog.LevelInfo, s.LogLevel)
	assert.False(t, s.AllowAllTools)
	assert.False(t, s.Debug)
}

func TestLoad_NonPositiveTimeoutFallsBack(t *testing.T) {
	resetViper(t)
	viper.Set("copilot.timeout_ms", -5)

	s := Load()
	assert.Equal(t, 60*time.Second, s.Timeout)
}

func TestLoad_NonPositivePromptCapKept(t *testing.T) {
	// A non-positive cap means unlimited and must pass through untouched.
	resetViper(t)
	viper.Set("copilot.max_prompt_bytes", 0)

	s := Load()
	assert.Equal(t, 0, s.MaxPromptBytes)
}

func TestLoad_Overrides(t *testing.T) {
	resetViper(t)
	viper.Set("copilot.binary", "/usr/local/bin/copilot")
	viper.Set("copilot.model", "gpt-5.1")
	viper.Set("copilot.allow_all_tools", true)
	viper.Set("copilot.timeout_ms", 1500)
	viper.Set("log.level", "debug")
	viper.Set("log.file", "/tmp/copilot-mcp.log")
	viper.Set("debug", true)

	s := Load()
	assert.Equal(t, "/usr/local/bin/copilot", s.Binary)
	assert.Equal(t, "gpt-5.1", s.Model)
	assert.True(t, s.AllowAllTools)
	assert.Equal(t, 1500*time.Millisecond, s.Timeout)
	assert.Equal(t, slog.LevelDebug, s.LogLevel)
	assert.Equal(t, "/tmp/copilot-mcp.log", s.LogFile)
	assert.True(t, s.Debug)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
