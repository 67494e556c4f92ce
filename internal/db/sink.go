package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/botan/internal/eventlog"
)

// EventSink is an eventlog.Sink backed by the events table.
type EventSink struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

var (
	_ eventlog.Sink   = (*EventSink)(nil)
	_ eventlog.Finder = (*EventSink)(nil)
)

// OpenEventSink initializes the database under baseDir and wraps it.
func OpenEventSink(baseDir string, logger *zap.Logger) (*EventSink, error) {
	sqlDB, err := Init(baseDir)
	if err != nil {
		return nil, err
	}
	s := NewEventSink(sqlDB, logger)
	if n, err := CountEvents(context.Background(), sqlDB); err == nil {
		s.logger.Debug("event log opened", zap.String("backend", "sqlite"), zap.Int("events", n))
	}
	return s, nil
}

// NewEventSink wraps an initialized database. Close closes it.
func NewEventSink(sqlDB *sql.DB, logger *zap.Logger) *EventSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventSink{db: sqlDB, logger: logger, now: time.Now}
}

// Append stamps and inserts e.
func (s *EventSink) Append(ctx context.Context, e *eventlog.Event) error {
	eventlog.Stamp(e, s.now())
	if err := InsertEvent(ctx, s.db, e); err != nil {
		s.logger.Warn("event insert failed", zap.String("id", e.ID), zap.Error(err))
		return err
	}
	return nil
}

// Read returns the last limit events in append order.
func (s *EventSink) Read(ctx context.Context, limit int) ([]*eventlog.Event, error) {
	return ListEvents(ctx, s.db, limit)
}

// Get returns the event with id, or NOT_FOUND.
func (s *EventSink) Get(ctx context.Context, id string) (*eventlog.Event, error) {
	return GetEvent(ctx, s.db, id)
}

// Close closes the underlying database.
func (s *EventSink) Close() error {
	return s.db.Close()
}
