package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerLevels(t *testing.T) {
	logger := NewLogger("debug", "development")
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %v", logger.GetLevel())
	}

	logger = NewLogger("nonsense", "development")
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("expected fallback to info level, got %v", logger.GetLevel())
	}
}

func TestNewLoggerProductionFormatter(t *testing.T) {
	logger := NewLogger("info", "production")
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Error("expected JSON formatter in production")
	}

	logger = NewLogger("info", "development")
	if _, ok := logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Error("expected text formatter in development")
	}
}

func TestRunLoggerFields(t *testing.T) {
	base := logrus.New()
	var buf bytes.Buffer
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})

	rl := NewRunLogger(base, "daily-features")
	rl.LogRowsWritten("data/out.csv", 15)

	out := buf.String()
	for _, want := range []string{"daily-features", "run_id", "data/out.csv"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("expected log output to contain %q, got %s", want, out)
		}
	}
}

func TestRunLoggerUniqueRunIDs(t *testing.T) {
	base := logrus.New()
	a := NewRunLogger(base, "a")
	b := NewRunLogger(base, "b")
	if a.RunID() == b.RunID() {
		t.Error("expected distinct run IDs")
	}
}
