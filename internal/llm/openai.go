package llm

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// HostedConfig configures a hosted chat API provider.
type HostedConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	// MaxRetries is passed to the SDK's own retry loop.
	MaxRetries int
}

// OpenAI generates text with the chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// DefaultOpenAIModel is used when HostedConfig.Model is empty.
const DefaultOpenAIModel = "gpt-4o-mini"

// NewOpenAI creates an OpenAI provider. An empty API key is rejected up
// front as an unavailable provider.
func NewOpenAI(cfg HostedConfig, logger *zap.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, &Failure{Kind: FailureUnavailable, Provider: "openai", Detail: "OPENAI_API_KEY is not set"}
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
		model = DefaultOpenAIModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAI{client: openai.NewClient(opts...), model: model, logger: logger}, nil
}

func (p *OpenAI) Name() string  { return "openai" }
func (p *OpenAI) Model() string { return p.model }

// Generate sends an optional system message and the user prompt.
func (p *OpenAI) Generate(ctx context.Context, req Request) (*Completion, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(withContext(req)))

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   openai.Int(int64(req.maxTokens())),
		Temperature: openai.Float(req.temperature()),
	})
	if err != nil {
		f := p.failure(ctx, err)
		p.logger.Warn("openai generation failed", zap.Error(f))
		return nil, f
	}
	if len(resp.Choices) == 0 {
		return nil, &Failure{Kind: FailureEmpty, Provider: p.Name(), Detail: "no choices in response"}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, &Failure{Kind: FailureEmpty, Provider: p.Name(), Detail: "empty completion"}
	}

	return &Completion{
		Text:     text,
		Provider: p.Name(),
		Model:    p.model,
		Usage:    NewUsage(int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens)),
	}, nil
}

func (p *OpenAI) failure(ctx context.Context, err error) *Failure {
	if f := contextFailure(ctx, p.Name(), err); f != nil {
		return f
	}
	var apiErr *openai.Error
	if stderrors.As(err, &apiErr) {
		return &Failure{Kind: FailureHTTP, Provider: p.Name(), Status: apiErr.StatusCode, Detail: apiErr.Message, Err: err}
	}
	return &Failure{Kind: FailureUnavailable, Provider: p.Name(), Detail: err.Error(), Err: err}
}
