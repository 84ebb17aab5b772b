package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	logFilePrefix      = "medfinder-"
	defaultMaxFileSize = 100 * 1024 * 1024
	cleanupInterval    = 24 * time.Hour
)

var numberedFilePattern = regexp.MustCompile(`^medfinder-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingLogger is an io.Writer that starts a new file every ISO week and
// whenever the current file would grow past maxFileSize. Files older than
// the retention period are removed by a background cleanup loop.
type RotatingLogger struct {
	logDir      string
	retention   time.Duration
	maxFileSize int64

	mu          sync.Mutex
	currentFile *os.File
	currentWeek string
	currentSize atomic.Int64

	cancel      context.CancelFunc
	cleanupDone chan struct{}
}

// NewRotatingLogger creates a rotating logger with the default 100MB size limit
func NewRotatingLogger(logDir string, retentionWeeks int) *RotatingLogger {
	return NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, defaultMaxFileSize)
}

func NewRotatingLoggerWithSizeLimit(logDir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	return &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
	}
}

// weekKey returns the ISO week in YYYY-Www format
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// open creates the log directory and the file for the current week
func (rl *RotatingLogger) open() error {
	if err := os.MkdirAll(rl.logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.rotate(weekKey(time.Now()), false)
}

// rotate switches to the file for week. Caller must hold mu.
func (rl *RotatingLogger) rotate(week string, sizeExceeded bool) error {
	if rl.currentFile != nil {
		_ = rl.currentFile.Close()
		rl.currentFile = nil
	}

	name := rl.fileNameFor(week, sizeExceeded)
	path := filepath.Join(rl.logDir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	rl.currentFile = file
	rl.currentWeek = week
	rl.currentSize.Store(0)
	if info, err := file.Stat(); err == nil {
		rl.currentSize.Store(info.Size())
	}

	return nil
}

// fileNameFor picks the base weekly file while it has room, then numbered
// files (_01, _02, ...) for the rest of the week
func (rl *RotatingLogger) fileNameFor(week string, sizeExceeded bool) string {
	highest, size := rl.highestNumbered(week)
	hasRoom := func(n int64) bool { return rl.maxFileSize <= 0 || n < rl.maxFileSize }

	if !sizeExceeded {
		if highest == 0 {
			info, err := os.Stat(filepath.Join(rl.logDir, logFilePrefix+week+".log"))
			if err != nil || hasRoom(info.Size()) {
				return logFilePrefix + week + ".log"
			}
		} else if hasRoom(size) {
			return fmt.Sprintf("%s%s_%02d.log", logFilePrefix, week, highest)
		}
	}

	return fmt.Sprintf("%s%s_%02d.log", logFilePrefix, week, highest+1)
}

// highestNumbered returns the highest sequence number used for week and the
// size of that file
func (rl *RotatingLogger) highestNumbered(week string) (int, int64) {
	matches, _ := filepath.Glob(filepath.Join(rl.logDir, logFilePrefix+week+"_??.log"))

	highest := 0
	var size int64
	for _, match := range matches {
		m := numberedFilePattern.FindStringSubmatch(filepath.Base(match))
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		if num > highest {
			highest = num
			size = 0
			if info, err := os.Stat(match); err == nil {
				size = info.Size()
			}
		}
	}
	return highest, size
}

func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := weekKey(time.Now())
	switch {
	case week != rl.currentWeek || rl.currentFile == nil:
		if err := rl.rotate(week, false); err != nil {
			return 0, err
		}
	case rl.maxFileSize > 0 && rl.currentSize.Load()+int64(len(p)) > rl.maxFileSize:
		if err := rl.rotate(week, true); err != nil {
			return 0, err
		}
	}

	n, err := rl.currentFile.Write(p)
	rl.currentSize.Add(int64(n))
	return n, err
}

// startCleanup runs cleanupOldLogs once a day until Close
func (rl *RotatingLogger) startCleanup() {
	ctx, cancel := context.WithCancel(context.Background())
	rl.cancel = cancel
	rl.cleanupDone = make(chan struct{})

	go func() {
		defer close(rl.cleanupDone)
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := rl.cleanupOldLogs(); err != nil {
					fmt.Fprintf(os.Stderr, "log cleanup failed: %v\n", err)
				}
			}
		}
	}()
}

// cleanupOldLogs removes log files last modified before the retention cutoff
func (rl *RotatingLogger) cleanupOldLogs() (int, error) {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-rl.retention)
	deleted := 0

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		rl.mu.Lock()
		isCurrent := rl.currentFile != nil && filepath.Base(rl.currentFile.Name()) == name
		rl.mu.Unlock()
		if isCurrent {
			continue
		}

		if err := os.Remove(filepath.Join(rl.logDir, name)); err == nil {
			deleted++
		}
	}

	return deleted, nil
}

// Close stops the cleanup loop and closes the current file
func (rl *RotatingLogger) Close() error {
	if rl.cancel != nil {
		rl.cancel()
		select {
		case <-rl.cleanupDone:
		case <-time.After(time.Second):
		}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.currentFile == nil {
		return nil
	}
	err := rl.currentFile.Close()
	rl.currentFile = nil
	return err
}
