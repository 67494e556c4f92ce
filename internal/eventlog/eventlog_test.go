package eventlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/botan/internal/errors"
	"github.com/hpungsan/botan/internal/llm"
)

func newSink(t *testing.T) *JSONLSink {
	t.Helper()
	s, err := NewJSONLSink(filepath.Join(t.TempDir(), "data", "events.jsonl"), nil)
	require.NoError(t, err)
	return s
}

func TestJSONLSink_AppendRead(t *testing.T) {
	ctx := context.Background()
	s := newSink(t)
	s.now = func() time.Time { return time.Date(2025, 10, 15, 14, 12, 3, 999, time.FixedZone("x", 3600)) }

	usage := llm.NewUsage(10, 5)
	e := &Event{Kind: KindGenerate, Provider: "mock", Model: "mock",
		Input: &Input{Query: "q"}, Output: &Output{Text: "a"}, Usage: &usage}
	require.NoError(t, s.Append(ctx, e))
	require.Len(t, e.ID, 26)
	require.Equal(t, "2025-10-15T13:12:03Z", e.TS)

	got, err := s.Read(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, e.ID, got[0].ID)
	require.Equal(t, "q", got[0].Input.Query)
	require.Equal(t, 15, *got[0].Usage.TotalTokens)
}

func TestJSONLSink_ReadMissingFile(t *testing.T) {
	got, err := newSink(t).Read(context.Background(), 5)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestJSONLSink_SkipsMalformedLines(t *testing.T) {
	ctx := context.Background()
	s := newSink(t)
	require.NoError(t, s.Append(ctx, &Event{Kind: KindGenerate}))

	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, s.Append(ctx, &Event{Kind: KindCompact}))

	got, err := s.Read(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, KindCompact, got[1].Kind)
}

func TestJSONLSink_ReadLimitKeepsTail(t *testing.T) {
	ctx := context.Background()
	s := newSink(t)
	for _, p := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Append(ctx, &Event{Kind: KindGenerate, Provider: p}))
	}
	got, err := s.Read(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "c", got[0].Provider)
	require.Equal(t, "d", got[1].Provider)
}

func TestJSONLSink_AppendOnly(t *testing.T) {
	ctx := context.Background()
	s := newSink(t)
	require.NoError(t, s.Append(ctx, &Event{Kind: KindGenerate}))
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	require.NoError(t, s.Append(ctx, &Event{Kind: KindGenerate}))
	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.Equal(t, string(before), string(after[:len(before)]))
}

func TestRate(t *testing.T) {
	ctx := context.Background()
	s := newSink(t)
	run := &Event{Kind: KindGenerate, Provider: "mock"}
	require.NoError(t, s.Append(ctx, run))

	fb, err := Rate(ctx, s, run.ID, 1)
	require.NoError(t, err)
	require.Equal(t, KindFeedback, fb.Kind)
	require.Equal(t, run.ID, fb.Target)

	events, err := s.Read(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Nil(t, events[0].Rating)
	require.Equal(t, 1, Ratings(events)[run.ID])
}

func TestRate_Invalid(t *testing.T) {
	ctx := context.Background()
	s := newSink(t)

	_, err := Rate(ctx, s, "x", 2)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Rate(ctx, s, "", 1)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Rate(ctx, s, "01MISSING", 1)
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestEvent_Time(t *testing.T) {
	tests := []struct {
		ts   string
		zero bool
	}{
		{"2025-10-15T14:12:03Z", false},
		{"2025-10-15T14:12:03.123456Z", false},
		{"2025-10-15T14:12:03", false},
		{"2025-10-15 14:12:03", false},
		{"yesterday", true},
		{"", true},
	}
	for _, tt := range tests {
		e := &Event{TS: tt.ts}
		if got := e.Time().IsZero(); got != tt.zero {
			t.Errorf("Time(%q).IsZero() = %v, want %v", tt.ts, got, tt.zero)
		}
	}
}
