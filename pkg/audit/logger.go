package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/newtron-network/cmdref/pkg/util"
)

// Logger is an audit backend.
type Logger interface {
	Log(event *Event) error
	Query(filter Filter) ([]*Event, error)
	Close() error
}

// RotationConfig bounds the log's disk use.
type RotationConfig struct {
	MaxSize    int64 // rotate when the active file reaches this many bytes
	MaxBackups int   // rotated files kept as path.1 (newest) .. path.N
}

// FileLogger writes one JSON object per line. Rotated files are named
// path.1, path.2, ... with path.1 the most recent, and Query reads them
// together with the active file.
type FileLogger struct {
	path     string
	rotation RotationConfig

	mu   sync.Mutex
	file *os.File
	size int64
}

// NewFileLogger opens (or creates) the log at path.
func NewFileLogger(path string, rotation RotationConfig) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}
	l := &FileLogger{path: path, rotation: rotation}
	if err := l.open(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLogger) open() error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("opening audit log: %w", err)
	}
	l.file, l.size = f, info.Size()
	return nil
}

// Log appends one event.
func (l *FileLogger) Log(event *Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding audit event: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("audit log %s is closed", l.path)
	}
	if l.rotation.MaxSize > 0 && l.size > 0 && l.size+int64(len(line)) > l.rotation.MaxSize {
		if err := l.rotate(); err != nil {
			return fmt.Errorf("rotating audit log: %w", err)
		}
	}
	n, err := l.file.Write(line)
	l.size += int64(n)
	return err
}

// rotate shifts path.i to path.i+1, dropping the oldest beyond
// MaxBackups, and starts a new active file. Without MaxBackups the
// active file is truncated.
func (l *FileLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return err
	}
	l.file = nil

	if l.rotation.MaxBackups > 0 {
		os.Remove(l.backup(l.rotation.MaxBackups))
		for i := l.rotation.MaxBackups - 1; i >= 1; i-- {
			if err := os.Rename(l.backup(i), l.backup(i+1)); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
		if err := os.Rename(l.path, l.backup(1)); err != nil {
			return err
		}
	} else if err := os.Truncate(l.path, 0); err != nil {
		return err
	}
	return l.open()
}

func (l *FileLogger) backup(i int) string {
	return fmt.Sprintf("%s.%d", l.path, i)
}

// Query returns matching events, oldest first, across the active file
// and its backups.
func (l *FileLogger) Query(filter Filter) ([]*Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	files := make([]string, 0, l.rotation.MaxBackups+1)
	for i := l.rotation.MaxBackups; i >= 1; i-- {
		files = append(files, l.backup(i))
	}
	files = append(files, l.path)

	var events []*Event
	for _, path := range files {
		matched, err := scanFile(path, filter)
		if err != nil {
			return nil, err
		}
		events = append(events, matched...)
	}
	return page(events, filter), nil
}

func scanFile(path string, filter Filter) ([]*Event, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []*Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for line := 1; scanner.Scan(); line++ {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			util.Warnf("audit: %s:%d: skipping malformed entry: %v", filepath.Base(path), line, err)
			continue
		}
		if e.Matches(filter) {
			events = append(events, &e)
		}
	}
	return events, scanner.Err()
}

// Close closes the active file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// page applies the filter's offset and limit.
func page(events []*Event, f Filter) []*Event {
	if f.Offset > 0 {
		if f.Offset >= len(events) {
			return nil
		}
		events = events[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(events) {
		events = events[:f.Limit]
	}
	return events
}

type holder struct{ Logger }

var defaultLogger atomic.Pointer[holder]

// SetDefaultLogger installs the logger used by Log and Query. Passing nil
// turns auditing off.
func SetDefaultLogger(l Logger) {
	if l == nil {
		defaultLogger.Store(nil)
		return
	}
	defaultLogger.Store(&holder{l})
}

// Log records an event with the default logger, if one is installed.
func Log(event *Event) error {
	if h := defaultLogger.Load(); h != nil {
		return h.Log(event)
	}
	return nil
}

// Query searches the default logger.
func Query(filter Filter) ([]*Event, error) {
	if h := defaultLogger.Load(); h != nil {
		return h.Query(filter)
	}
	return []*Event{}, nil
}
