package llm

import (
	"context"
	"fmt"
	"strings"
)

const smartSystem = "You are an assistant that REWRITES prompts for LLMs. " +
	"Goal: reduce the token count, keep the intent, drop what is superfluous, " +
	"state useful constraints (format, length) without adding explanations."

const smartUserTemplate = `Rewrite the prompt below so that it is shorter, explicit and usable by an LLM,
without changing its intent. Remove politeness and useless context. If relevant, add
a FORMAT CONSTRAINT (e.g. "answer in X concise points", "≤ %d words").

Length constraint (desired, not mandatory): output ≤ ~%d tokens.

Original prompt:
----
%s
----
Return only the rewritten prompt, nothing else.`

// OptimizeOptions tune Optimize. Zero values take the defaults.
type OptimizeOptions struct {
	TargetTokens int
	MaxWords     int
	MaxTokens    int
	Temperature  *float64
}

// OptimizeResult compares the original and rewritten prompts by word count.
type OptimizeResult struct {
	Optimized  string `json:"optimized"`
	TokensIn   int    `json:"tokens_in"`
	TokensOut  int    `json:"tokens_out"`
	GainTokens int    `json:"gain_tokens"`
}

// Optimize asks p to rewrite raw into a shorter prompt.
func Optimize(ctx context.Context, p Provider, raw string, opts OptimizeOptions) (*OptimizeResult, error) {
	if opts.TargetTokens <= 0 {
		opts.TargetTokens = 120
	}
	if opts.MaxWords <= 0 {
		opts.MaxWords = 120
	}
	user := fmt.Sprintf(smartUserTemplate, opts.MaxWords, opts.TargetTokens, strings.TrimSpace(raw))

	c, err := p.Generate(ctx, Request{
		Prompt:      smartSystem + "\n\n" + user,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(c.Text)
	in, out := wordTokens(raw), wordTokens(text)
	return &OptimizeResult{Optimized: text, TokensIn: in, TokensOut: out, GainTokens: in - out}, nil
}

// wordTokens counts whitespace-separated words, at least 1.
func wordTokens(s string) int {
	return max(1, len(strings.Fields(s)))
}
