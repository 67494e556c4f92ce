package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/botan/internal/errors"
	"github.com/hpungsan/botan/internal/eventlog"
)

// EventsListInput contains parameters for the EventsList operation.
type EventsListInput struct {
	Limit int    // default 20, max 1000
	Kind  string // optional filter
}

// EventsListOutput contains the result of the EventsList operation.
type EventsListOutput struct {
	Events []*eventlog.Event `json:"events"`
	Count  int               `json:"count"`
}

// EventsList returns the most recent events, oldest first.
func EventsList(ctx context.Context, env *Env, input EventsListInput) (*EventsListOutput, error) {
	sink, err := requireSink(env)
	if err != nil {
		return nil, err
	}
	limit := clampLimit(input.Limit)
	kind := strings.ToLower(strings.TrimSpace(input.Kind))

	// A kind filter must look at the whole log, not just the tail.
	readLimit := limit
	if kind != "" {
		readLimit = 0
	}
	events, err := sink.Read(ctx, readLimit)
	if err != nil {
		return nil, err
	}
	if kind != "" {
		filtered := make([]*eventlog.Event, 0, len(events))
		for _, e := range events {
			if e.Kind == kind {
				filtered = append(filtered, e)
			}
		}
		events = eventlog.Tail(filtered, limit)
	}
	if events == nil {
		events = []*eventlog.Event{}
	}
	return &EventsListOutput{Events: events, Count: len(events)}, nil
}

// EventsStatsInput contains parameters for the EventsStats operation.
type EventsStatsInput struct {
	Bucket string // day (default) | hour
}

// EventsStatsOutput contains the result of the EventsStats operation.
type EventsStatsOutput struct {
	Events           int                       `json:"events"`
	KPIs             eventlog.KPIs             `json:"kpis"`
	TokensByProvider []eventlog.ProviderTokens `json:"tokens_by_provider"`
	RunsOverTime     []eventlog.Bucket         `json:"runs_over_time"`
}

// EventsStats computes dashboard metrics over the whole log.
func EventsStats(ctx context.Context, env *Env, input EventsStatsInput) (*EventsStatsOutput, error) {
	sink, err := requireSink(env)
	if err != nil {
		return nil, err
	}
	bucket := strings.ToLower(strings.TrimSpace(input.Bucket))
	switch bucket {
	case "":
		bucket = "day"
	case "day", "hour":
	default:
		return nil, errors.NewInvalidRequest("bucket must be one of: day, hour")
	}

	events, err := sink.Read(ctx, 0)
	if err != nil {
		return nil, err
	}
	return &EventsStatsOutput{
		Events:           len(events),
		KPIs:             eventlog.ComputeKPIs(events),
		TokensByProvider: eventlog.TokensByProvider(events),
		RunsOverTime:     eventlog.RunsOverTime(events, bucket),
	}, nil
}

// EventsRateInput contains parameters for the EventsRate operation.
type EventsRateInput struct {
	ID     string
	Rating int
}

// EventsRate appends a feedback event rating an earlier run.
func EventsRate(ctx context.Context, env *Env, input EventsRateInput) (*eventlog.Event, error) {
	sink, err := requireSink(env)
	if err != nil {
		return nil, err
	}
	return eventlog.Rate(ctx, sink, strings.TrimSpace(input.ID), input.Rating)
}

func requireSink(env *Env) (eventlog.Sink, error) {
	if env == nil || env.Sink == nil {
		return nil, errors.NewInvalidRequest("event log is not configured")
	}
	return env.Sink, nil
}
