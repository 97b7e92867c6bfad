package runlog

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Run is the log sink of one pipeline run: a timestamped file in the log
// directory mirrored to stderr.
type Run struct {
	*log.Logger
	Path string
	file *os.File
}

// Open creates logs/scrape-<timestamp>.log. If the directory cannot be created the
// run still logs to stderr and the error is returned alongside the usable Run.
func Open(dir string, now time.Time) (*Run, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return stderrOnly(), fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("scrape-%s.log", now.Format("2006-01-02_15-04-05")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return stderrOnly(), fmt.Errorf("open log file: %w", err)
	}

	return &Run{
		Logger: log.New(io.MultiWriter(os.Stderr, f), "", log.LstdFlags),
		Path:   path,
		file:   f,
	}, nil
}

func stderrOnly() *Run {
	return &Run{Logger: log.New(os.Stderr, "", log.LstdFlags)}
}

// Close flushes and releases the log file.
func (r *Run) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
