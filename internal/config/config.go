// Package config resolves typed settings from viper.
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings holds everything the runtime needs, resolved once at startup.
type Settings struct {
	Binary         string
	Model          string
	AllowAllTools  bool
	Timeout        time.Duration
	MaxPromptBytes int
	LogLevel       slog.Level
	LogFile        string
	Debug          bool
}

// Load reads settings from viper, applying defaults for out-of-range values.
// A non-positive timeout falls back to the default; a non-positive prompt
// cap means unlimited and is kept as-is.
func Load() Settings {
	timeoutMS := viper.GetInt("copilot.timeout_ms")
	if timeoutMS <= 0 {
		timeoutMS = 60000
	}

	return Settings{
		Binary:         viper.GetString("copilot.binary"),
		Model:          viper.GetString("copilot.model"),
		AllowAllTools:  viper.GetBool("copilot.allow_all_tools"),
		Timeout:        time.Duration(timeoutMS) * time.Millisecond,
		MaxPromptBytes: viper.GetInt("copilot.max_prompt_bytes"),
		LogLevel:       ParseLevel(viper.GetString("log.level")),
		LogFile:        viper.GetString("log.file"),
		Debug:          viper.GetBool("debug"),
	}
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
