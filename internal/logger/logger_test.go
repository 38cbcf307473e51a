package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

// Property: production log entries are single-line JSON documents
func TestProperty_ProductionLogsAreStructured(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("production entries decode as JSON with level and message", prop.ForAll(
		func(message string, level string) bool {
			var buf bytes.Buffer
			logger := NewWithWriter("production", &buf)

			switch level {
			case "warn":
				logger.Warn(message)
			case "error":
				logger.Error(message)
			default:
				logger.Info(message)
			}
			logger.Sync()

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}
			if entry["level"] != level {
				return false
			}
			if _, ok := entry["ts"]; !ok {
				return false
			}
			return entry["msg"] == message
		},
		gen.AlphaString(),
		gen.OneConstOf("info", "warn", "error"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: typed fields survive encoding
func TestProperty_FieldsAreEncoded(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("string fields appear as JSON keys", prop.ForAll(
		func(path string) bool {
			var buf bytes.Buffer
			logger := NewWithWriter("production", &buf)

			logger.Info("Request completed", zap.String("path", path), zap.Int("status", 200))
			logger.Sync()

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}
			return entry["path"] == path && entry["status"] == float64(200)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestErrorLogsIncludeStacktrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("production", &buf)

	logger.Error("Storage write failed", zap.String("error", "disk full"))
	logger.Sync()

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to decode log entry: %v", err)
	}
	if _, ok := entry["stacktrace"]; !ok {
		t.Error("Expected stacktrace on error level entries")
	}
	if entry["error"] != "disk full" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
}

func TestDevelopmentLogsAreConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("development", &buf)

	logger.Debug("Session initialized")
	logger.Sync()

	out := buf.String()
	if !strings.Contains(out, "Session initialized") {
		t.Fatalf("Expected message in output, got %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Error("Development output should not be JSON")
	}
}

func TestNewBuildsLoggers(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		logger, err := New(env)
		if err != nil {
			t.Fatalf("Failed to create %s logger: %v", env, err)
		}
		if logger == nil {
			t.Fatalf("Logger for %s should not be nil", env)
		}
	}

	if _, err := NewCLI("development"); err != nil {
		t.Fatalf("Failed to create CLI logger: %v", err)
	}
}
