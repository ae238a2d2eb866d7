package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path, fills unset fields with
// defaults, and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, fills unset fields with
// defaults, and validates the result. Useful in tests where configs are
// constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills zero-valued fields from [Default]. ListenAddr is left
// alone: an explicitly empty address disables the HTTP server.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = def.Server.LogLevel
	}
	if cfg.Store.DatabasePath == "" {
		cfg.Store.DatabasePath = def.Store.DatabasePath
	}
	if cfg.Store.ModelPath == "" {
		cfg.Store.ModelPath = def.Store.ModelPath
	}
	if cfg.Recognizer.ConfidenceThreshold == 0 {
		cfg.Recognizer.ConfidenceThreshold = def.Recognizer.ConfidenceThreshold
	}
	if cfg.Recognizer.MinSamplesPerClass == 0 {
		cfg.Recognizer.MinSamplesPerClass = def.Recognizer.MinSamplesPerClass
	}
	if cfg.Recognizer.UncertaintyThreshold == 0 {
		cfg.Recognizer.UncertaintyThreshold = def.Recognizer.UncertaintyThreshold
	}
	if cfg.Assistant.Name == "" {
		cfg.Assistant.Name = def.Assistant.Name
	}
	if cfg.Assistant.Hotword == "" {
		cfg.Assistant.Hotword = def.Assistant.Hotword
	}
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if t := cfg.Recognizer.ConfidenceThreshold; t <= 0 || t > 1 {
		errs = append(errs, fmt.Errorf("recognizer.confidence_threshold %.2f is out of range (0, 1]", t))
	}
	if t := cfg.Recognizer.UncertaintyThreshold; t <= 0 || t > 1 {
		errs = append(errs, fmt.Errorf("recognizer.uncertainty_threshold %.2f is out of range (0, 1]", t))
	}
	if cfg.Recognizer.MinSamplesPerClass < 1 {
		errs = append(errs, fmt.Errorf("recognizer.min_samples_per_class %d must be at least 1", cfg.Recognizer.MinSamplesPerClass))
	}
	if cfg.Store.DatabasePath == "" {
		errs = append(errs, errors.New("store.database_path is required"))
	}
	if cfg.Store.ModelPath == "" {
		errs = append(errs, errors.New("store.model_path is required"))
	}

	return errors.Join(errs...)
}
