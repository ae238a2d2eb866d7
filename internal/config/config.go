// Package config provides the configuration schema and loader for the Ghost
// assistant core.
package config

import "log/slog"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level converts l to the corresponding slog level. Unrecognised values map
// to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the root configuration structure, typically loaded from a YAML
// file via [Load].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Assistant  AssistantConfig  `yaml:"assistant"`
}

// ServerConfig holds the observability endpoint and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address serving /metrics, /healthz and /readyz
	// (e.g. "127.0.0.1:9090"). Empty disables the HTTP server entirely.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// StoreConfig locates the persistent recognition state.
type StoreConfig struct {
	// DatabasePath is the SQLite file holding training data and query
	// history.
	DatabasePath string `yaml:"database_path"`

	// ModelPath is the serialized classifier artifact.
	ModelPath string `yaml:"model_path"`
}

// RecognizerConfig tunes the recognition pipeline.
type RecognizerConfig struct {
	// ConfidenceThreshold is the minimum classifier confidence accepted
	// before the keyword fallback is consulted. In (0,1].
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	// MinSamplesPerClass is the per-intent example count required before
	// (re)training runs.
	MinSamplesPerClass int `yaml:"min_samples_per_class"`

	// UncertaintyThreshold is the confidence below which logged queries are
	// surfaced for human review. In (0,1].
	UncertaintyThreshold float64 `yaml:"uncertainty_threshold"`
}

// AssistantConfig holds the user-facing persona settings.
type AssistantConfig struct {
	// Name is how the assistant introduces itself.
	Name string `yaml:"name"`

	// Hotword wakes the assistant in console mode. Matched case-insensitively.
	Hotword string `yaml:"hotword"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: "127.0.0.1:9090",
			LogLevel:   LogInfo,
		},
		Store: StoreConfig{
			DatabasePath: "ghost.db",
			ModelPath:    "intent_model.gob",
		},
		Recognizer: RecognizerConfig{
			ConfidenceThreshold:  0.6,
			MinSamplesPerClass:   3,
			UncertaintyThreshold: 0.7,
		},
		Assistant: AssistantConfig{
			Name:    "Ghost",
			Hotword: "ghost",
		},
	}
}
