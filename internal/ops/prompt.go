package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/botan/internal/compact"
	"github.com/hpungsan/botan/internal/errors"
	"github.com/hpungsan/botan/internal/eventlog"
	"github.com/hpungsan/botan/internal/llm"
)

// MaxPromptChars caps text accepted by the prompt operations.
const MaxPromptChars = 200_000

// CompactInput contains parameters for the Compact operation.
// Nil fields take the configured defaults.
type CompactInput struct {
	Text         string
	Model        string
	BudgetTokens *int
	Aggressive   *bool
	LiteSpellFix *bool
	Diff         bool
	// AddConstraint appends the "answer in N points" guard to the result.
	AddConstraint bool
	// Structured wraps the result in a role/task frame asking for a JSON
	// answer with StructuredFields (default objective, constraints, output_format).
	Structured       bool
	StructuredFields []string
}

// CompactOutput contains the result of the Compact operation.
type CompactOutput struct {
	Text     string            `json:"text"`
	Model    string            `json:"model"`
	Stats    compact.Stats     `json:"stats"`
	Cost     compact.Cost      `json:"cost"`
	Diff     []compact.Segment `json:"diff,omitempty"`
	DiffText string            `json:"diff_text,omitempty"`
	EventID  string            `json:"event_id,omitempty"`
}

// Compact shrinks a prompt with the deterministic rewrite pipeline.
func Compact(ctx context.Context, env *Env, input CompactInput) (*CompactOutput, error) {
	if len(input.Text) > MaxPromptChars {
		return nil, errors.NewInvalidRequest("text is too large")
	}
	opts := CompactOptions(env, input)

	text, stats := compact.Compact(input.Text, opts)
	if input.AddConstraint {
		cfg := env.config()
		text = compact.AddConstraint(text, cfg.NPoints, cfg.MaxWords)
	}
	if input.Structured {
		text = compact.WrapStructured(text, cleanList(input.StructuredFields)...)
	}

	out := &CompactOutput{
		Text:  text,
		Model: compact.ProfileFor(opts.Model).Name,
		Stats: stats,
		Cost:  compact.EstimateCost(stats.TokensAfter, opts.Model),
	}
	if input.Diff {
		out.Diff = compact.WordDiff(input.Text, text)
		out.DiffText = compact.RenderDiff(out.Diff)
	}

	params := map[string]any{
		"model":          out.Model,
		"aggressive":     opts.Aggressive,
		"lite_spell_fix": opts.LiteSpellFix,
	}
	if opts.BudgetTokens != nil {
		params["budget_tokens"] = *opts.BudgetTokens
	}
	if input.Structured {
		params["structured"] = true
	}
	out.EventID = env.record(ctx, &eventlog.Event{
		Kind:   eventlog.KindCompact,
		Model:  out.Model,
		Params: params,
		Input:  &eventlog.Input{Query: input.Text},
		Output: &eventlog.Output{Text: text},
		Meta: map[string]any{
			"steps":        stats.Steps,
			"tokens_saved": stats.TokensSaved(),
			"pct_saved":    stats.PctSaved(),
		},
	})
	return out, nil
}

// CompactOptions resolves compactor options from the input and config.
func CompactOptions(env *Env, input CompactInput) compact.Options {
	cfg := env.config()
	opts := compact.Options{
		Model:        cfg.DefaultModel,
		Aggressive:   cfg.Aggressive,
		LiteSpellFix: cfg.LiteSpellFix,
	}
	if m := strings.TrimSpace(input.Model); m != "" {
		opts.Model = m
	}
	if input.Aggressive != nil {
		opts.Aggressive = *input.Aggressive
	}
	if input.LiteSpellFix != nil {
		opts.LiteSpellFix = *input.LiteSpellFix
	}
	switch {
	case input.BudgetTokens != nil && *input.BudgetTokens > 0:
		b := *input.BudgetTokens
		opts.BudgetTokens = &b
	case input.BudgetTokens == nil && cfg.BudgetTokens > 0:
		b := cfg.BudgetTokens
		opts.BudgetTokens = &b
	}
	return opts
}

// EstimateInput contains parameters for the Estimate operation.
type EstimateInput struct {
	Prompt  string
	Context string
	Model   string
}

// EstimateOutput contains the result of the Estimate operation.
type EstimateOutput struct {
	Model  string       `json:"model"`
	Tokens compact.Pair `json:"tokens"`
	Cost   compact.Cost `json:"cost"`
}

// Estimate counts tokens for a prompt and its context and prices them.
func Estimate(env *Env, input EstimateInput) (*EstimateOutput, error) {
	if len(input.Prompt)+len(input.Context) > MaxPromptChars {
		return nil, errors.NewInvalidRequest("text is too large")
	}
	model := strings.TrimSpace(input.Model)
	if model == "" {
		model = env.config().DefaultModel
	}
	pair := compact.EstimatePair(input.Prompt, input.Context, model)
	return &EstimateOutput{
		Model:  compact.ProfileFor(model).Name,
		Tokens: pair,
		Cost:   compact.EstimateCost(pair.Total, model),
	}, nil
}

// TemplateInput contains parameters for the RenderTemplate operation.
type TemplateInput struct {
	Name string
	Vars map[string]string
}

// TemplateOutput contains the result of the RenderTemplate operation.
type TemplateOutput struct {
	Name      string   `json:"name"`
	Variables []string `json:"variables"`
	System    string   `json:"system"`
	User      string   `json:"user"`
}

// RenderTemplate fills a named prompt template.
func RenderTemplate(input TemplateInput) (*TemplateOutput, error) {
	t, err := llm.LookupTemplate(input.Name)
	if err != nil {
		return nil, err
	}
	r, err := t.Render(input.Vars)
	if err != nil {
		return nil, err
	}
	return &TemplateOutput{
		Name:      t.Name,
		Variables: t.Variables(),
		System:    r.System,
		User:      r.User,
	}, nil
}
