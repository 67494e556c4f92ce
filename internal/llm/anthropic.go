package llm

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// DefaultAnthropicModel is used when HostedConfig.Model is empty.
const DefaultAnthropicModel = "claude-3-5-sonnet-latest"

// Anthropic generates text with the messages API.
type Anthropic struct {
	client anthropic.Client
	model  string
	logger *zap.Logger
}

// NewAnthropic creates an Anthropic provider. An empty API key is rejected
// up front as an unavailable provider.
func NewAnthropic(cfg HostedConfig, logger *zap.Logger) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, &Failure{Kind: FailureUnavailable, Provider: "anthropic", Detail: "ANTHROPIC_API_KEY is not set"}
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Anthropic{client: anthropic.NewClient(opts...), model: model, logger: logger}, nil
}

func (p *Anthropic) Name() string  { return "anthropic" }
func (p *Anthropic) Model() string { return p.model }

// Generate sends the user prompt with an optional system block and joins the
// text blocks of the reply.
func (p *Anthropic) Generate(ctx context.Context, req Request) (*Completion, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(req.maxTokens()),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(withContext(req))),
		},
		Temperature: anthropic.Float(req.temperature()),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		f := p.failure(ctx, err)
		p.logger.Warn("anthropic generation failed", zap.Error(f))
		return nil, f
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return nil, &Failure{Kind: FailureEmpty, Provider: p.Name(), Detail: "no text content in response"}
	}

	return &Completion{
		Text:     text,
		Provider: p.Name(),
		Model:    p.model,
		Usage:    NewUsage(int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens)),
	}, nil
}

func (p *Anthropic) failure(ctx context.Context, err error) *Failure {
	if f := contextFailure(ctx, p.Name(), err); f != nil {
		return f
	}
	var apiErr *anthropic.Error
	if stderrors.As(err, &apiErr) {
		return &Failure{Kind: FailureHTTP, Provider: p.Name(), Status: apiErr.StatusCode, Detail: apiErr.Error(), Err: err}
	}
	return &Failure{Kind: FailureUnavailable, Provider: p.Name(), Detail: err.Error(), Err: err}
}
