package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/botan/internal/errors"
)

// JSONLSink appends one JSON object per line to a file.
type JSONLSink struct {
	path   string
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewJSONLSink creates the parent directory if needed. The file itself is
// created on first append.
func NewJSONLSink(path string, logger *zap.Logger) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONLSink{path: path, logger: logger, now: time.Now}, nil
}

// Path returns the log file path.
func (s *JSONLSink) Path() string { return s.path }

// Append stamps e and writes it as a single line.
func (s *JSONLSink) Append(ctx context.Context, e *Event) error {
	if err := ctx.Err(); err != nil {
		return errors.NewCancelled("event append")
	}
	Stamp(e, s.now())

	line, err := json.Marshal(e)
	if err != nil {
		return errors.NewInternal(err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
	if err != nil {
		return errors.NewInternal(err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return errors.NewInternal(err)
	}
	if err := f.Close(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Read parses the file, skipping blank and malformed lines. A missing file
// reads as empty.
func (s *JSONLSink) Read(ctx context.Context, limit int) ([]*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Event{}, nil
		}
		return nil, errors.NewInternal(err)
	}
	defer f.Close()

	events := []*Event{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if lineNo%1024 == 0 && ctx.Err() != nil {
			return nil, errors.NewCancelled("event read")
		}
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(raw, &e); err != nil {
			s.logger.Debug("skipping malformed event line", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		events = append(events, &e)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return Tail(events, limit), nil
}

// Close is a no-op; the file is opened per call.
func (s *JSONLSink) Close() error { return nil }

// Tail returns the last limit events; limit <= 0 returns all.
func Tail(events []*Event, limit int) []*Event {
	if limit <= 0 || limit >= len(events) {
		return events
	}
	return events[len(events)-limit:]
}
