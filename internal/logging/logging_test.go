package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name      string
		logging   config.LoggingConfig
		override  string
		level     zapcore.Level
		encoding  string
		expectErr bool
	}{
		{"Defaults", config.LoggingConfig{}, "", zapcore.InfoLevel, "json", false},
		{"Configured level", config.LoggingConfig{Level: "warn"}, "", zapcore.WarnLevel, "json", false},
		{"Warning alias", config.LoggingConfig{Level: "warning"}, "", zapcore.WarnLevel, "json", false},
		{"Override wins", config.LoggingConfig{Level: "error"}, "debug", zapcore.DebugLevel, "json", false},
		{"Console", config.LoggingConfig{Format: "console"}, "", zapcore.InfoLevel, "console", false},
		{"Invalid level", config.LoggingConfig{Level: "verbose"}, "", 0, "", true},
		{"Invalid override", config.LoggingConfig{}, "trace", 0, "", true},
		{"Invalid format", config.LoggingConfig{Format: "xml"}, "", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Config(tt.logging, tt.override)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Config() error = %v", err)
			}
			if cfg.Level.Level() != tt.level {
				t.Errorf("level = %v, expected %v", cfg.Level.Level(), tt.level)
			}
			if cfg.Encoding != tt.encoding {
				t.Errorf("encoding = %q, expected %q", cfg.Encoding, tt.encoding)
			}
		})
	}
}

func TestNewWithOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "waterfall.log")
	logger, err := New(config.LoggingConfig{Level: "info", OutputFile: path}, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log output in file")
	}
}
