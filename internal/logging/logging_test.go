package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ircost.log")

	logger, err := New(Config{Level: "debug", Format: "json", File: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("catalog loaded")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"msg":"catalog loaded"`, `"service_name":"ircost"`, `"timestamp":`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %s in log output, got: %s", want, out)
		}
	}
}

func TestForTUI_NoFileIsSilent(t *testing.T) {
	logger, err := ForTUI(Config{Level: "debug"})
	if err != nil {
		t.Fatalf("ForTUI failed: %v", err)
	}
	if logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("Expected a no-op logger without a log file")
	}
}
