package logging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const filePrefix = "nixernetes-"

// LogConfig selects where CLI logs go.
//
// Output is one of:
//   - "-" (default): stderr
//   - "none": discard
//   - "auto": a timestamped file in Dir
//   - any other value: a file path, relative paths resolved against Dir
type LogConfig struct {
	Format        string
	Level         string
	Output        string
	Dir           string
	RetentionDays int
}

// LogFile is an opened log destination.
type LogFile struct {
	Path   string
	file   *os.File
	writer io.Writer
}

// OpenLogFile opens the destination described by cfg.
func OpenLogFile(cfg LogConfig) (*LogFile, error) {
	var path string
	switch strings.ToLower(cfg.Output) {
	case "", "-":
		return &LogFile{writer: os.Stderr}, nil
	case "none":
		return &LogFile{writer: io.Discard}, nil
	case "auto":
		path = filepath.Join(cfg.Dir, LogFilename(time.Now().UTC()))
	default:
		path = cfg.Output
		if !filepath.IsAbs(path) && cfg.Dir != "" {
			path = filepath.Join(cfg.Dir, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", path, err)
	}
	return &LogFile{Path: path, file: f, writer: f}, nil
}

// Writer returns the destination writer.
func (lf *LogFile) Writer() io.Writer { return lf.writer }

// Close closes the underlying file, if any.
func (lf *LogFile) Close() error {
	if lf.file == nil {
		return nil
	}
	return lf.file.Close()
}

// LogFilename returns nixernetes-YYYYMMDD-HHMMSS-mmm.log for t.
func LogFilename(t time.Time) string {
	return fmt.Sprintf("%s%s-%03d.log", filePrefix, t.Format("20060102-150405"), t.Nanosecond()/int(time.Millisecond))
}

// CleanupOldLogFiles removes nixernetes-*.log files in dir last modified
// more than retentionDays ago. A missing dir is not an error.
func CleanupOldLogFiles(dir string, retentionDays int) error {
	if retentionDays <= 0 || dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read log directory: %w", err)
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		_ = os.Remove(filepath.Join(dir, name))
	}
	return nil
}
