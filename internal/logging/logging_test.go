package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestFormatter_SortsFields(t *testing.T) {
	e := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "[Sources] fetch failed",
		Data:    logrus.Fields{"source": "youtube", "err": "boom"},
	}
	out, err := (&Formatter{}).Format(e)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	got := string(out)
	if !strings.HasPrefix(got, "[2025-01-02 03:04:05] [WARN] [Sources] fetch failed") {
		t.Fatalf("unexpected prefix: %q", got)
	}
	if !strings.Contains(got, "err=boom source=youtube\n") {
		t.Fatalf("expected sorted fields, got %q", got)
	}
}

func TestNew_LevelAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "api.log")
	l, err := New("debug", path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", l.GetLevel())
	}
	l.Info("hello")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("expected message in log file, got %q", string(data))
	}

	l2, err := New("nonsense", "")
	if err != nil || l2.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info fallback, got %v err=%v", l2.GetLevel(), err)
	}
}
