package llm

import (
	"context"
	"fmt"
	"strings"
)

// BuildAskPrompt frames a question with optional context.
func BuildAskPrompt(query, context string) string {
	if strings.TrimSpace(context) == "" {
		return query
	}
	return "Context:\n" + context + "\n\nTask: Answer concisely and helpfully using the context.\nQuestion: " + query
}

// Ask answers query with p, grounding it on context when given.
func Ask(ctx context.Context, p Provider, query, context string, maxTokens int, temperature *float64) (*Completion, error) {
	return p.Generate(ctx, Request{
		Prompt:      BuildAskPrompt(query, context),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
}

// BridgeMode selects how the two hosted providers are chained.
type BridgeMode string

const (
	ClaudeThenGPT BridgeMode = "claude_then_gpt"
	GPTThenClaude BridgeMode = "gpt_then_claude"
	SoloGPT       BridgeMode = "solo_gpt"
	SoloClaude    BridgeMode = "solo_claude"
)

// ParseBridgeMode validates a mode name; empty means claude_then_gpt.
func ParseBridgeMode(s string) (BridgeMode, error) {
	switch m := BridgeMode(s); m {
	case "":
		return ClaudeThenGPT, nil
	case ClaudeThenGPT, GPTThenClaude, SoloGPT, SoloClaude:
		return m, nil
	default:
		return "", fmt.Errorf("unknown bridge mode %q (want claude_then_gpt, gpt_then_claude, solo_gpt or solo_claude)", s)
	}
}

// BridgeStep is the output of one provider in a chain.
type BridgeStep struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Text     string `json:"text"`
	Usage    Usage  `json:"usage"`
}

// BridgeResult is the final text plus every step that produced it.
type BridgeResult struct {
	Mode  BridgeMode   `json:"mode"`
	Text  string       `json:"text"`
	Steps []BridgeStep `json:"steps"`
	Usage Usage        `json:"usage"`
}

// Bridge chains a GPT-style and a Claude-style provider. The first step
// drafts; the second edits the draft.
type Bridge struct {
	GPT         Provider
	Claude      Provider
	MaxTokens   int
	Temperature *float64
}

const (
	draftSystem  = "You produce a structured, factual first draft."
	editorSystem = "You are an excellent editor: clear, concise and precise."
	gptDraft     = "You produce a useful first draft."
	reviewSystem = "You are a meticulous, factual and structured reviewer."
)

// Run executes mode on prompt. Custom system prompts override the defaults
// for the first and second step.
func (b *Bridge) Run(ctx context.Context, prompt string, mode BridgeMode, systemFirst, systemSecond string) (*BridgeResult, error) {
	type stage struct {
		p      Provider
		prompt func(prev string) string
		system string
	}

	var stages []stage
	switch mode {
	case SoloGPT:
		stages = []stage{{b.GPT, func(string) string { return prompt }, systemFirst}}
	case SoloClaude:
		stages = []stage{{b.Claude, func(string) string { return prompt }, systemFirst}}
	case ClaudeThenGPT:
		stages = []stage{
			{b.Claude, func(string) string { return "Initial draft.\n\nUser question:\n" + prompt }, pick(systemFirst, draftSystem)},
			{b.GPT, func(prev string) string {
				return "Improve, clarify and condense the following text without losing information:\n\n" + prev
			}, pick(systemSecond, editorSystem)},
		}
	case GPTThenClaude:
		stages = []stage{
			{b.GPT, func(string) string { return "Initial draft.\n\nUser question:\n" + prompt }, pick(systemFirst, gptDraft)},
			{b.Claude, func(prev string) string {
				return "Review the following draft, correct it, structure it and tighten its rigour:\n\n" + prev
			}, pick(systemSecond, reviewSystem)},
		}
	default:
		return nil, fmt.Errorf("unknown bridge mode %q", mode)
	}

	res := &BridgeResult{Mode: mode, Steps: make([]BridgeStep, 0, len(stages))}
	prev := ""
	for _, s := range stages {
		if s.p == nil {
			return nil, &Failure{Kind: FailureUnavailable, Provider: string(mode), Detail: "provider not configured"}
		}
		c, err := s.p.Generate(ctx, Request{
			Prompt:      s.prompt(prev),
			System:      s.system,
			MaxTokens:   b.MaxTokens,
			Temperature: b.Temperature,
		})
		if err != nil {
			return nil, err
		}
		res.Steps = append(res.Steps, BridgeStep{Provider: c.Provider, Model: c.Model, Text: c.Text, Usage: c.Usage})
		res.Usage = res.Usage.Add(c.Usage)
		prev = c.Text
	}
	res.Text = prev
	return res, nil
}
