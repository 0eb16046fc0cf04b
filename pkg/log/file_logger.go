package log

import (
	"fmt"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileExtension is the conventional extension of protocol log files.
const FileExtension = ".hlog"

// FileLogger appends CBOR-encoded events to a file. A log file is a plain
// concatenation of CBOR items, so files written by several runs can be read
// back in one pass.
type FileLogger struct {
	mu      sync.Mutex
	file    *os.File
	enc     *cbor.Encoder
	closed  bool
	dropped int
}

// NewFileLogger opens path for appending, creating it with mode 0644 when
// missing.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening protocol log: %w", err)
	}
	return &FileLogger{file: f, enc: hlogCodec.enc.NewEncoder(f)}, nil
}

// Log writes event. Events that fail to encode or are logged after Close are
// counted as dropped.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.enc.Encode(event) != nil {
		l.dropped++
	}
}

// Dropped returns the number of events that were not written.
func (l *FileLogger) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close closes the file. Calling Close more than once is safe.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}
