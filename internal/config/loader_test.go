package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ghost-assistant/ghost/internal/config"
)

func TestLoadFromReaderAppliesDefaults(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(`
server:
  listen_addr: "127.0.0.1:9191"
`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != "127.0.0.1:9191" {
		t.Errorf("ListenAddr = %q, want the configured address", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("LogLevel = %q, want default info", cfg.Server.LogLevel)
	}
	if cfg.Recognizer.ConfidenceThreshold != 0.6 {
		t.Errorf("ConfidenceThreshold = %v, want default 0.6", cfg.Recognizer.ConfidenceThreshold)
	}
	if cfg.Recognizer.MinSamplesPerClass != 3 {
		t.Errorf("MinSamplesPerClass = %v, want default 3", cfg.Recognizer.MinSamplesPerClass)
	}
	if cfg.Assistant.Name != "Ghost" {
		t.Errorf("Assistant.Name = %q, want default Ghost", cfg.Assistant.Name)
	}
}

func TestLoadFromReaderEmptyInput(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Store.DatabasePath != "ghost.db" {
		t.Errorf("DatabasePath = %q, want default", cfg.Store.DatabasePath)
	}
}

func TestLoadFromReaderRejectsUnknownKeys(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader(`
recognizer:
  confidance_threshold: 0.5
`))
	if err == nil {
		t.Fatal("expected error for misspelled key, got nil")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Server.LogLevel = "verbose"
	cfg.Recognizer.ConfidenceThreshold = 1.5
	cfg.Recognizer.MinSamplesPerClass = 0

	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("Validate: expected error, got nil")
	}
	for _, want := range []string{"log_level", "confidence_threshold", "min_samples_per_class"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghost.yaml")
	data := `
server:
  log_level: debug
store:
  database_path: /tmp/test-ghost.db
recognizer:
  confidence_threshold: 0.75
assistant:
  name: Wraith
  hotword: wraith
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("LogLevel = %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Recognizer.ConfidenceThreshold != 0.75 {
		t.Errorf("ConfidenceThreshold = %v, want 0.75", cfg.Recognizer.ConfidenceThreshold)
	}
	if cfg.Assistant.Name != "Wraith" {
		t.Errorf("Assistant.Name = %q, want Wraith", cfg.Assistant.Name)
	}
}

func TestLogLevelMapping(t *testing.T) {
	if config.LogLevel("trace").IsValid() {
		t.Error("trace should not be a valid log level")
	}
	if got := config.LogDebug.Level().String(); got != "DEBUG" {
		t.Errorf("LogDebug.Level() = %s, want DEBUG", got)
	}
}
