// Package eventlog records one event per interaction in an append-only log
// and derives usage metrics from it. Events are never rewritten: a rating is
// itself a new "feedback" event pointing at its target.
package eventlog

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/botan/internal/errors"
	"github.com/hpungsan/botan/internal/llm"
)

// Event kinds.
const (
	KindGenerate = "generate"
	KindBridge   = "bridge"
	KindOptimize = "optimize"
	KindCompact  = "compact"
	KindPalette  = "palette"
	KindFeedback = "feedback"
)

// TimeFormat is the timestamp layout: RFC3339, UTC, whole seconds.
const TimeFormat = "2006-01-02T15:04:05Z"

// Input is what the caller asked.
type Input struct {
	Query   string `json:"query,omitempty"`
	Context string `json:"context,omitempty"`
}

// Output is what the provider produced.
type Output struct {
	Text string `json:"text,omitempty"`
}

// Event is one line of the log.
type Event struct {
	ID        string         `json:"id"`
	TS        string         `json:"ts"`
	Kind      string         `json:"kind"`
	Provider  string         `json:"provider,omitempty"`
	Model     string         `json:"model,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
	Input     *Input         `json:"input,omitempty"`
	Output    *Output        `json:"output,omitempty"`
	Usage     *llm.Usage     `json:"usage,omitempty"`
	Rating    *int           `json:"rating,omitempty"`
	Target    string         `json:"target,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Time parses TS. Zero time when TS is missing or malformed.
func (e *Event) Time() time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, e.TS); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Sink is an append-only event store.
type Sink interface {
	Append(ctx context.Context, e *Event) error
	// Read returns the last limit events in append order; limit <= 0 means all.
	Read(ctx context.Context, limit int) ([]*Event, error)
	Close() error
}

// Finder is implemented by sinks that can look an event up by id without
// reading the whole log.
type Finder interface {
	Get(ctx context.Context, id string) (*Event, error)
}

// NewID returns a fresh ULID string.
func NewID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Stamp fills ID and TS when they are empty.
func Stamp(e *Event, now time.Time) {
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.TS == "" {
		e.TS = now.UTC().Format(TimeFormat)
	}
}

// Rate appends a feedback event for target. rating must be -1, 0 or 1 and
// target must exist in the log.
func Rate(ctx context.Context, s Sink, target string, rating int) (*Event, error) {
	if rating < -1 || rating > 1 {
		return nil, errors.NewInvalidRequest("rating must be -1, 0 or 1")
	}
	if target == "" {
		return nil, errors.NewInvalidRequest("event id is required")
	}

	found, err := findRun(ctx, s, target)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NewNotFound("event", target)
	}

	fb := &Event{Kind: KindFeedback, Target: target, Rating: &rating}
	if err := s.Append(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

// findRun reports whether target names a non-feedback event in s.
func findRun(ctx context.Context, s Sink, target string) (bool, error) {
	if f, ok := s.(Finder); ok {
		e, err := f.Get(ctx, target)
		if errors.Is(err, errors.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return e.Kind != KindFeedback, nil
	}

	events, err := s.Read(ctx, 0)
	if err != nil {
		return false, err
	}
	for _, e := range events {
		if e.ID == target && e.Kind != KindFeedback {
			return true, nil
		}
	}
	return false, nil
}
