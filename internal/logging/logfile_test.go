package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogFilename(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"millis", time.Date(2025, 12, 13, 9, 51, 5, 123_000_000, time.UTC), "nixernetes-20251213-095105-123.log"},
		{"midnight", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "nixernetes-20250101-000000-000.log"},
		{"truncates", time.Date(2025, 6, 15, 12, 30, 45, 456_789_000, time.UTC), "nixernetes-20250615-123045-456.log"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LogFilename(tt.in); got != tt.want {
				t.Errorf("LogFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpenLogFile(t *testing.T) {
	dir := t.TempDir()

	for _, out := range []string{"", "-", "none"} {
		lf, err := OpenLogFile(LogConfig{Output: out, Dir: dir})
		if err != nil {
			t.Fatalf("OpenLogFile(%q) error = %v", out, err)
		}
		if lf.Path != "" || lf.Writer() == nil {
			t.Errorf("OpenLogFile(%q) = {Path:%q}, want stream writer", out, lf.Path)
		}
		_ = lf.Close()
	}

	lf, err := OpenLogFile(LogConfig{Output: "sub/run.log", Dir: dir})
	if err != nil {
		t.Fatalf("OpenLogFile() error = %v", err)
	}
	if _, err := lf.Writer().Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := lf.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	want := filepath.Join(dir, "sub", "run.log")
	if lf.Path != want {
		t.Errorf("Path = %q, want %q", lf.Path, want)
	}
	b, err := os.ReadFile(want)
	if err != nil || string(b) != "hello\n" {
		t.Errorf("file content = %q, %v", b, err)
	}

	auto, err := OpenLogFile(LogConfig{Output: "auto", Dir: dir})
	if err != nil {
		t.Fatalf("OpenLogFile(auto) error = %v", err)
	}
	defer auto.Close()
	if !strings.HasPrefix(filepath.Base(auto.Path), "nixernetes-") {
		t.Errorf("auto Path = %q", auto.Path)
	}
}

func TestCleanupOldLogFiles(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().AddDate(0, 0, -10)
	files := map[string]bool{ // name -> should survive
		"nixernetes-20200101-000000-000.log": false,
		"nixernetes-fresh.log":               true,
		"other-20200101.log":                 true,
		"nixernetes-notes.txt":               true,
	}
	for name, keep := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		if !keep || name != "nixernetes-fresh.log" {
			if err := os.Chtimes(p, old, old); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := CleanupOldLogFiles(dir, 7); err != nil {
		t.Fatalf("CleanupOldLogFiles() error = %v", err)
	}
	for name, keep := range files {
		_, err := os.Stat(filepath.Join(dir, name))
		if exists := err == nil; exists != keep {
			t.Errorf("%s exists = %v, want %v", name, exists, keep)
		}
	}
	if err := CleanupOldLogFiles(filepath.Join(dir, "missing"), 7); err != nil {
		t.Errorf("missing dir error = %v", err)
	}
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter("json", slog.LevelInfo, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter() error = %v", err)
	}
	ctx := WithLogger(context.Background(), l.With("cmd", "test"))
	FromContext(ctx).Debug(ctx, "hidden")
	FromContext(ctx).Info(ctx, "shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message leaked at INFO: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"cmd":"test"`) {
		t.Errorf("output = %s", out)
	}
	if Slog(l) == nil {
		t.Error("Slog() = nil")
	}

	if _, err := NewWithWriter("xml", slog.LevelInfo, &buf); err == nil {
		t.Error("NewWithWriter(xml) error = nil, want error")
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{"": slog.LevelInfo, "debug": slog.LevelDebug, "WARN": slog.LevelWarn, "Error": slog.LevelError} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) error = nil")
	}
}
