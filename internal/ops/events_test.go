package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/botan/internal/errors"
	"github.com/hpungsan/botan/internal/eventlog"
	"github.com/hpungsan/botan/internal/llm"
)

// seedEvents records two generate runs and one compact run.
func seedEvents(t *testing.T) (*Env, []string) {
	t.Helper()
	gpt := &fakeProvider{name: "openai", reply: "a", usage: llm.NewUsage(30, 10)}
	local := &fakeProvider{name: "ollama", reply: "b", usage: llm.NewUsage(8, 2)}
	env := withProviders(newTestEnv(t), map[string]llm.Provider{"openai": gpt, "ollama": local})
	ctx := context.Background()

	var ids []string
	g1, err := Generate(ctx, env, GenerateInput{Provider: "openai", Prompt: "one"})
	require.NoError(t, err)
	ids = append(ids, g1.EventID)

	c, err := Compact(ctx, env, CompactInput{Text: "please summarize this"})
	require.NoError(t, err)
	ids = append(ids, c.EventID)

	g2, err := Generate(ctx, env, GenerateInput{Provider: "ollama", Prompt: "two"})
	require.NoError(t, err)
	ids = append(ids, g2.EventID)
	return env, ids
}

func TestEventsList(t *testing.T) {
	env, ids := seedEvents(t)

	out, err := EventsList(context.Background(), env, EventsListInput{})
	require.NoError(t, err)
	require.Equal(t, 3, out.Count)
	for i, e := range out.Events {
		require.Equal(t, ids[i], e.ID)
	}

	out, err = EventsList(context.Background(), env, EventsListInput{Limit: 1})
	require.NoError(t, err)
	require.Len(t, out.Events, 1)
	require.Equal(t, ids[2], out.Events[0].ID)
}

func TestEventsList_KindFilter(t *testing.T) {
	env, ids := seedEvents(t)

	out, err := EventsList(context.Background(), env, EventsListInput{Kind: "Generate"})
	require.NoError(t, err)
	require.Equal(t, 2, out.Count)
	require.Equal(t, ids[0], out.Events[0].ID)
	require.Equal(t, ids[2], out.Events[1].ID)

	// The filter applies before the limit.
	out, err = EventsList(context.Background(), env, EventsListInput{Kind: "compact", Limit: 1})
	require.NoError(t, err)
	require.Len(t, out.Events, 1)
	require.Equal(t, ids[1], out.Events[0].ID)

	out, err = EventsList(context.Background(), env, EventsListInput{Kind: "bridge"})
	require.NoError(t, err)
	require.NotNil(t, out.Events)
	require.Zero(t, out.Count)
}

func TestEventsStats(t *testing.T) {
	env, ids := seedEvents(t)
	_, err := EventsRate(context.Background(), env, EventsRateInput{ID: ids[0], Rating: 1})
	require.NoError(t, err)

	out, err := EventsStats(context.Background(), env, EventsStatsInput{})
	require.NoError(t, err)
	require.Equal(t, 4, out.Events)
	require.Equal(t, 3, out.KPIs.Runs)
	require.Equal(t, eventlog.Feedback{Positive: 1, Neutral: 2}, out.KPIs.Feedback)
	require.Equal(t, 1, out.KPIs.Providers["openai"])
	require.Equal(t, 1, out.KPIs.Providers["ollama"])

	require.Equal(t, []eventlog.ProviderTokens{
		{Provider: "openai", AvgTokens: 40},
		{Provider: "ollama", AvgTokens: 10},
	}, out.TokensByProvider)
	require.Equal(t, []eventlog.Bucket{{Date: "2025-10-15", Runs: 3}}, out.RunsOverTime)

	out, err = EventsStats(context.Background(), env, EventsStatsInput{Bucket: "hour"})
	require.NoError(t, err)
	require.Equal(t, []eventlog.Bucket{{Date: "2025-10-15 14:00", Runs: 3}}, out.RunsOverTime)

	_, err = EventsStats(context.Background(), env, EventsStatsInput{Bucket: "week"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestEventsRate(t *testing.T) {
	env, ids := seedEvents(t)

	fb, err := EventsRate(context.Background(), env, EventsRateInput{ID: " " + ids[1] + " ", Rating: -1})
	require.NoError(t, err)
	require.Equal(t, eventlog.KindFeedback, fb.Kind)
	require.Equal(t, ids[1], fb.Target)
	require.Equal(t, -1, *fb.Rating)

	_, err = EventsRate(context.Background(), env, EventsRateInput{ID: ids[1], Rating: 2})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = EventsRate(context.Background(), env, EventsRateInput{ID: "01JUNKNOWN", Rating: 1})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	// Feedback events cannot themselves be rated.
	_, err = EventsRate(context.Background(), env, EventsRateInput{ID: fb.ID, Rating: 1})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestEvents_NoSink(t *testing.T) {
	ctx := context.Background()
	_, err := EventsList(ctx, nil, EventsListInput{})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	_, err = EventsStats(ctx, &Env{}, EventsStatsInput{})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	_, err = EventsRate(ctx, nil, EventsRateInput{ID: "x", Rating: 1})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}
