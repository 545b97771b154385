package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	logger, err := New("warn", FormatJSON)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("expected info to be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Error("expected warn to be enabled")
	}
}

func TestNewConsole(t *testing.T) {
	logger, err := New("", FormatConsole)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected development config to enable debug")
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New("loud", FormatJSON); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, zapcore.InfoLevel)
	logger.Debug("hidden")
	logger.Info("shown", zap.String("game", "memory"))
	logger.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected debug line to be filtered, got %q", out)
	}
	if !strings.Contains(out, `"game":"memory"`) {
		t.Errorf("expected structured field, got %q", out)
	}
}
