package ops

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/botan/internal/compact"
	"github.com/hpungsan/botan/internal/errors"
	"github.com/hpungsan/botan/internal/eventlog"
)

func TestCompact_RecordsEvent(t *testing.T) {
	env := newTestEnv(t)
	in := "Hello! Could you please make a summary of this text? Thanks"

	out, err := Compact(context.Background(), env, CompactInput{Text: in, LiteSpellFix: boolPtr(false), Diff: true})
	require.NoError(t, err)
	require.Equal(t, "summarize this text?", out.Text)
	require.Equal(t, "mistral", out.Model)
	require.Less(t, out.Stats.TokensAfter, out.Stats.TokensBefore)
	require.Equal(t, compact.EstimateCost(out.Stats.TokensAfter, "mistral"), out.Cost)
	require.NotEmpty(t, out.Diff)
	require.Contains(t, out.DiffText, "{+summarize+}")

	events := readEvents(t, env)
	require.Len(t, events, 1)
	e := events[0]
	require.Equal(t, eventlog.KindCompact, e.Kind)
	require.Equal(t, out.EventID, e.ID)
	require.Equal(t, in, e.Input.Query)
	require.Equal(t, "summarize this text?", e.Output.Text)
	require.Equal(t, "mistral", e.Model)
}

func TestCompact_AddConstraint(t *testing.T) {
	out, err := Compact(context.Background(), nil, CompactInput{Text: "explain bees", AddConstraint: true})
	require.NoError(t, err)
	require.Equal(t, "explain bees\n\nConstraints: answer in 5 concise points (max 120 words).", out.Text)
}

func TestCompact_Structured(t *testing.T) {
	out, err := Compact(context.Background(), nil, CompactInput{
		Text:             "please explain bees",
		Structured:       true,
		StructuredFields: []string{"answer", " "},
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out.Text, "Role: concise and precise assistant.\nTask:\nexplain bees\n"))
	require.True(t, strings.HasSuffix(out.Text, "{\n  \"answer\": \"...\"\n}"))
}

func TestCompact_EmptyInput(t *testing.T) {
	out, err := Compact(context.Background(), nil, CompactInput{})
	require.NoError(t, err)
	require.Empty(t, out.Text)
	require.True(t, out.Stats.BudgetRespected)
	require.Empty(t, out.Stats.Steps)
}

func TestCompact_TooLarge(t *testing.T) {
	_, err := Compact(context.Background(), nil, CompactInput{Text: strings.Repeat("a", MaxPromptChars+1)})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestCompactOptions(t *testing.T) {
	env := newTestEnv(t)
	env.Config.BudgetTokens = 40
	env.Config.Aggressive = true

	opts := CompactOptions(env, CompactInput{})
	require.Equal(t, "mistral", opts.Model)
	require.True(t, opts.Aggressive)
	require.True(t, opts.LiteSpellFix)
	require.NotNil(t, opts.BudgetTokens)
	require.Equal(t, 40, *opts.BudgetTokens)

	opts = CompactOptions(env, CompactInput{
		Model:        "llama3",
		BudgetTokens: intPtr(0),
		Aggressive:   boolPtr(false),
		LiteSpellFix: boolPtr(false),
	})
	require.Equal(t, "llama3", opts.Model)
	require.False(t, opts.Aggressive)
	require.False(t, opts.LiteSpellFix)
	require.Nil(t, opts.BudgetTokens, "an explicit zero budget disables the budget loop")

	opts = CompactOptions(env, CompactInput{BudgetTokens: intPtr(12)})
	require.Equal(t, 12, *opts.BudgetTokens)
}

func TestEstimate(t *testing.T) {
	out, err := Estimate(nil, EstimateInput{Prompt: "abcdefgh", Context: "abcd", Model: "llama3"})
	require.NoError(t, err)
	require.Equal(t, "llama3", out.Model)
	require.Equal(t, compact.Pair{Prompt: 2, Context: 1, Total: 3}, out.Tokens)
	require.Equal(t, compact.EstimateCost(3, "llama3"), out.Cost)

	out, err = Estimate(nil, EstimateInput{Prompt: "abcdefgh"})
	require.NoError(t, err)
	require.Equal(t, "mistral", out.Model)
	require.Equal(t, 2, out.Tokens.Total)
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate(TemplateInput{
		Name: "summary",
		Vars: map[string]string{"n_sentences": "2", "context": "Bees make honey."},
	})
	require.NoError(t, err)
	require.Equal(t, "summary", out.Name)
	require.Equal(t, []string{"context", "n_sentences"}, out.Variables)
	require.Contains(t, out.User, "at most 2 sentence(s)")
	require.Contains(t, out.User, "Bees make honey.")

	_, err = RenderTemplate(TemplateInput{Name: "summary"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = RenderTemplate(TemplateInput{Name: "haiku"})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}
