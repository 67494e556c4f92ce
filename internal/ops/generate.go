package ops

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/botan/internal/compact"
	"github.com/hpungsan/botan/internal/errors"
	"github.com/hpungsan/botan/internal/eventlog"
	"github.com/hpungsan/botan/internal/llm"
)

// GenerateInput contains parameters for the Generate operation.
type GenerateInput struct {
	Provider string // mock (default) | ollama | openai | anthropic
	Model    string // overrides the configured model for the provider
	Prompt   string
	Context  string
	System   string
	// Template renders a built-in template with Vars; its user text
	// replaces Prompt and its system text fills System when empty.
	Template    string
	Vars        map[string]string
	MaxTokens   int
	Temperature *float64
	// Compact runs the prompt through the compactor before sending.
	Compact bool
	// AddConstraint appends the answer-shape guard. Nil uses cfg.AddConstraint.
	AddConstraint *bool
	// MaxChars clips the completion text when > 0.
	MaxChars int
}

// GenerateOutput contains the result of the Generate operation.
type GenerateOutput struct {
	Text      string    `json:"text"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`
	Usage     llm.Usage `json:"usage"`
	Clipped   bool      `json:"clipped,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
	EventID   string    `json:"event_id,omitempty"`
}

// Generate sends one prompt to a provider.
func Generate(ctx context.Context, env *Env, input GenerateInput) (*GenerateOutput, error) {
	cfg := env.config()

	prompt, system := input.Prompt, input.System
	if input.Template != "" {
		t, err := RenderTemplate(TemplateInput{Name: input.Template, Vars: input.Vars})
		if err != nil {
			return nil, err
		}
		prompt = t.User
		if system == "" {
			system = t.System
		}
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.NewInvalidRequest("prompt is required")
	}
	if len(prompt)+len(input.Context) > MaxPromptChars {
		return nil, errors.NewInvalidRequest("prompt is too large")
	}

	if input.Compact {
		prompt, _ = compact.Compact(prompt, CompactOptions(env, CompactInput{}))
	}
	addConstraint := cfg.AddConstraint
	if input.AddConstraint != nil {
		addConstraint = *input.AddConstraint
	}
	if addConstraint {
		prompt = compact.AddConstraint(prompt, cfg.NPoints, cfg.MaxWords)
	}

	p, err := env.provider(input.Provider, input.Model)
	if err != nil {
		return nil, err
	}

	start := env.now()
	var c *llm.Completion
	if system == "" {
		c, err = llm.Ask(ctx, p, prompt, input.Context, input.MaxTokens, input.Temperature)
	} else {
		c, err = p.Generate(ctx, llm.Request{
			Prompt:      llm.BuildAskPrompt(prompt, input.Context),
			System:      system,
			MaxTokens:   input.MaxTokens,
			Temperature: input.Temperature,
		})
	}
	latency := env.now().Sub(start).Milliseconds()
	if err != nil {
		env.logger().Warn("generation failed",
			zap.String("provider", p.Name()),
			zap.String("model", p.Model()),
			zap.Error(err))
		return nil, llm.ToBotanError(err)
	}

	text, clipped := compact.EnforceLimits(c.Text, 0, input.MaxChars)
	out := &GenerateOutput{
		Text:      text,
		Provider:  c.Provider,
		Model:     c.Model,
		Prompt:    prompt,
		Usage:     c.Usage,
		Clipped:   clipped,
		LatencyMs: latency,
	}

	usage := c.Usage
	out.EventID = env.record(ctx, &eventlog.Event{
		Kind:      eventlog.KindGenerate,
		Provider:  c.Provider,
		Model:     c.Model,
		Params:    generationParams(input.MaxTokens, input.Temperature, input.Template),
		Input:     &eventlog.Input{Query: prompt, Context: input.Context},
		Output:    &eventlog.Output{Text: text},
		Usage:     &usage,
		LatencyMs: latency,
	})
	return out, nil
}

func generationParams(maxTokens int, temperature *float64, template string) map[string]any {
	params := map[string]any{}
	if maxTokens <= 0 {
		maxTokens = llm.DefaultMaxTokens
	}
	params["max_tokens"] = maxTokens
	if temperature != nil {
		params["temperature"] = *temperature
	} else {
		params["temperature"] = llm.DefaultTemperature
	}
	if template != "" {
		params["template"] = template
	}
	return params
}

// BridgeInput contains parameters for the Bridge operation.
type BridgeInput struct {
	Prompt       string
	Mode         string // claude_then_gpt (default) | gpt_then_claude | solo_gpt | solo_claude
	SystemFirst  string
	SystemSecond string
	MaxTokens    int
	Temperature  *float64
}

// BridgeOutput contains the result of the Bridge operation.
type BridgeOutput struct {
	*llm.BridgeResult
	LatencyMs int64  `json:"latency_ms"`
	EventID   string `json:"event_id,omitempty"`
}

// Bridge chains the two hosted providers on one prompt.
func Bridge(ctx context.Context, env *Env, input BridgeInput) (*BridgeOutput, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, errors.NewInvalidRequest("prompt is required")
	}
	mode, err := llm.ParseBridgeMode(strings.ToLower(strings.TrimSpace(input.Mode)))
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	b, err := newBridge(env, mode)
	if err != nil {
		return nil, err
	}
	b.MaxTokens = input.MaxTokens
	b.Temperature = input.Temperature

	start := env.now()
	res, err := b.Run(ctx, input.Prompt, mode, input.SystemFirst, input.SystemSecond)
	latency := env.now().Sub(start).Milliseconds()
	if err != nil {
		env.logger().Warn("bridge failed", zap.String("mode", string(mode)), zap.Error(err))
		return nil, llm.ToBotanError(err)
	}

	providers := make([]string, len(res.Steps))
	models := make([]string, len(res.Steps))
	for i, s := range res.Steps {
		providers[i] = s.Provider
		models[i] = s.Model
	}
	params := generationParams(input.MaxTokens, input.Temperature, "")
	params["mode"] = string(mode)
	usage := res.Usage

	out := &BridgeOutput{BridgeResult: res, LatencyMs: latency}
	out.EventID = env.record(ctx, &eventlog.Event{
		Kind:      eventlog.KindBridge,
		Provider:  strings.Join(providers, "+"),
		Model:     strings.Join(models, "+"),
		Params:    params,
		Input:     &eventlog.Input{Query: input.Prompt},
		Output:    &eventlog.Output{Text: res.Text},
		Usage:     &usage,
		LatencyMs: latency,
	})
	return out, nil
}

func newBridge(env *Env, mode llm.BridgeMode) (*llm.Bridge, error) {
	if env == nil || env.NewProvider == nil {
		b, err := llm.NewBridge(mode, env.config(), env.logger())
		if err != nil {
			return nil, llm.ToBotanError(err)
		}
		return b, nil
	}
	b := &llm.Bridge{}
	if mode != llm.SoloClaude {
		p, err := env.NewProvider(llm.NameOpenAI, "")
		if err != nil {
			return nil, err
		}
		b.GPT = p
	}
	if mode != llm.SoloGPT {
		p, err := env.NewProvider(llm.NameAnthropic, "")
		if err != nil {
			return nil, err
		}
		b.Claude = p
	}
	return b, nil
}

// OptimizeInput contains parameters for the Optimize operation.
type OptimizeInput struct {
	Provider     string
	Model        string
	Prompt       string
	TargetTokens int
	MaxWords     int // default: cfg.MaxWords
	MaxTokens    int
	Temperature  *float64
}

// OptimizeOutput contains the result of the Optimize operation.
type OptimizeOutput struct {
	*llm.OptimizeResult
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	LatencyMs int64  `json:"latency_ms"`
	EventID   string `json:"event_id,omitempty"`
}

// Optimize asks a provider to rewrite a prompt shorter.
func Optimize(ctx context.Context, env *Env, input OptimizeInput) (*OptimizeOutput, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, errors.NewInvalidRequest("prompt is required")
	}
	if len(input.Prompt) > MaxPromptChars {
		return nil, errors.NewInvalidRequest("prompt is too large")
	}
	p, err := env.provider(input.Provider, input.Model)
	if err != nil {
		return nil, err
	}
	maxWords := input.MaxWords
	if maxWords <= 0 {
		maxWords = env.config().MaxWords
	}

	start := env.now()
	res, err := llm.Optimize(ctx, p, input.Prompt, llm.OptimizeOptions{
		TargetTokens: input.TargetTokens,
		MaxWords:     maxWords,
		MaxTokens:    input.MaxTokens,
		Temperature:  input.Temperature,
	})
	latency := env.now().Sub(start).Milliseconds()
	if err != nil {
		env.logger().Warn("optimize failed", zap.String("provider", p.Name()), zap.Error(err))
		return nil, llm.ToBotanError(err)
	}

	out := &OptimizeOutput{OptimizeResult: res, Provider: p.Name(), Model: p.Model(), LatencyMs: latency}
	params := generationParams(input.MaxTokens, input.Temperature, "")
	params["max_words"] = maxWords
	out.EventID = env.record(ctx, &eventlog.Event{
		Kind:      eventlog.KindOptimize,
		Provider:  p.Name(),
		Model:     p.Model(),
		Params:    params,
		Input:     &eventlog.Input{Query: input.Prompt},
		Output:    &eventlog.Output{Text: res.Optimized},
		LatencyMs: latency,
		Meta: map[string]any{
			"tokens_in":   res.TokensIn,
			"tokens_out":  res.TokensOut,
			"gain_tokens": res.GainTokens,
		},
	})
	return out, nil
}
