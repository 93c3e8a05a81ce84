package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestWithComponent(t *testing.T) {
	entry := WithComponent("test-component")
	if entry == nil {
		t.Fatal("expected non-nil entry")
	}

	// Check that the component field is set
	if val, ok := entry.Data["component"]; !ok {
		t.Error("expected component field to be set")
	} else if val != "test-component" {
		t.Errorf("expected component 'test-component', got '%v'", val)
	}
}

func TestLoggerInit(t *testing.T) {
	if Logger == nil {
		t.Fatal("expected Logger to be initialized")
	}

	if Logger.Out != os.Stdout {
		t.Error("expected Logger output to be os.Stdout")
	}
}

func TestWithComponentMultiple(t *testing.T) {
	entry1 := WithComponent("component-a")
	entry2 := WithComponent("component-b")

	if entry1.Data["component"] == entry2.Data["component"] {
		t.Error("expected different component values for different entries")
	}
}

func TestConfigure_SetsLevel(t *testing.T) {
	origLevel := Logger.GetLevel()
	defer Logger.SetLevel(origLevel)

	tests := []struct {
		name          string
		level         string
		expectedLevel logrus.Level
	}{
		{"debug level", "debug", logrus.DebugLevel},
		{"warn level", "warn", logrus.WarnLevel},
		{"DEBUG uppercase", "DEBUG", logrus.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closer, err := Configure(tt.level, "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer closer.Close()

			if Logger.GetLevel() != tt.expectedLevel {
				t.Errorf("expected level %v, got %v", tt.expectedLevel, Logger.GetLevel())
			}
		})
	}
}

func TestConfigure_InvalidLevel(t *testing.T) {
	origLevel := Logger.GetLevel()
	defer Logger.SetLevel(origLevel)

	if _, err := Configure("loud", ""); err == nil {
		t.Error("expected error for invalid level")
	}
	if Logger.GetLevel() != origLevel {
		t.Error("expected level to stay unchanged on invalid input")
	}
}

func TestConfigure_WritesLogFile(t *testing.T) {
	origLevel := Logger.GetLevel()
	defer func() {
		Logger.SetLevel(origLevel)
		Logger.SetOutput(os.Stdout)
	}()

	logFile := filepath.Join(t.TempDir(), "logs", "latest.log")
	closer, err := Configure("info", logFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	WithComponent("test").Info("欢迎回家")
	if err := closer.Close(); err != nil {
		t.Fatalf("close log file: %v", err)
	}

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "欢迎回家") {
		t.Errorf("expected log file to contain message, got %q", string(content))
	}
}
