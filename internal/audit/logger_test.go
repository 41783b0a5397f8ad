package audit

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rsa/internal/rsalog"
)

func init() {
	rsalog.Init("error")
}

func TestStdoutLogger(t *testing.T) {
	l := NewStdoutLogger(&Config{Enabled: true, Backend: "stdout"})
	defer l.Close()

	entry := NewEntry().Round(1).Action(ActionRouteBatch).Outcome(OutcomeSuccess).Build()
	if err := l.Log(context.Background(), entry); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStdoutLoggerDisabled(t *testing.T) {
	l := NewStdoutLogger(&Config{Enabled: false})
	defer l.Close()

	if err := l.Log(context.Background(), NewEntry().Build()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	cfg := &Config{Enabled: true, Backend: "file", FilePath: path, BufferSize: 100, FlushPeriod: 100 * time.Millisecond}

	l, err := NewFileLogger(cfg)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}

	entry := NewEntry().Round(2).Demand(7).Action(ActionRouteDemand).Outcome(OutcomeSuccess).Build()
	if err := l.Log(context.Background(), entry); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if err := l.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log file to have content")
	}
	if !bytes.Contains(data, []byte("ROUTE_DEMAND")) {
		t.Error("expected log file to contain the action name")
	}
}

func TestFileLoggerDefaultPath(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(origDir)

	l, err := NewFileLogger(&Config{Enabled: true, Backend: "file"})
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	defer l.Close()
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false}},
		{"stdout backend", &Config{Enabled: true, Backend: "stdout"}},
		{"unknown backend defaults to stdout", &Config{Enabled: true, Backend: "unknown"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if l == nil {
				t.Fatal("expected a non-nil logger")
			}
			l.Close()
		})
	}
}

func TestNoopLogger(t *testing.T) {
	l := &NoopLogger{}
	if err := l.Log(context.Background(), &Entry{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGlobalLogger(t *testing.T) {
	original := Get()
	defer SetGlobal(original)

	newLogger := &NoopLogger{}
	SetGlobal(newLogger)
	if Get() != newLogger {
		t.Error("expected global logger to be updated")
	}

	if err := Log(context.Background(), NewEntry().Build()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
