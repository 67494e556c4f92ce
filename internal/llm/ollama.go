package llm

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OllamaConfig configures the local inference endpoint.
type OllamaConfig struct {
	URL     string
	Model   string
	Timeout time.Duration
	// Retries is the number of extra attempts after the first.
	Retries int
	// Backoff is multiplied by the attempt number before each retry.
	Backoff time.Duration
}

// Ollama calls a local Ollama daemon's /api/generate endpoint.
type Ollama struct {
	cfg    OllamaConfig
	client *http.Client
	logger *zap.Logger
}

// NewOllama creates an Ollama provider. A nil logger disables logging.
func NewOllama(cfg OllamaConfig, logger *zap.Logger) *Ollama {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "mistral"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.Retries = max(cfg.Retries, 0)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ollama{cfg: cfg, client: &http.Client{}, logger: logger}
}

func (o *Ollama) Name() string  { return "ollama" }
func (o *Ollama) Model() string { return o.cfg.Model }

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaResponse struct {
	Response        string `json:"response"`
	PromptEvalCount *int   `json:"prompt_eval_count"`
	EvalCount       *int   `json:"eval_count"`
	Error           string `json:"error"`
}

// Generate posts the prompt, retrying transport errors, timeouts, 429 and
// 5xx responses with linear backoff.
func (o *Ollama) Generate(ctx context.Context, req Request) (*Completion, error) {
	payload, err := json.Marshal(ollamaRequest{
		Model:  o.cfg.Model,
		Prompt: withContext(req),
		Stream: false,
		Options: ollamaOptions{
			Temperature: req.temperature(),
			NumPredict:  req.maxTokens(),
		},
	})
	if err != nil {
		return nil, &Failure{Kind: FailureAPI, Provider: o.Name(), Detail: err.Error(), Err: err}
	}

	var fail *Failure
	for attempt := 0; attempt <= o.cfg.Retries; attempt++ {
		c, f := o.attempt(ctx, payload)
		if f == nil {
			return c, nil
		}
		fail = f
		if !f.Retryable() || attempt == o.cfg.Retries {
			break
		}

		wait := o.cfg.Backoff * time.Duration(attempt+1)
		o.logger.Debug("ollama retry",
			zap.Int("attempt", attempt+1),
			zap.String("kind", string(f.Kind)),
			zap.Int("status", f.Status),
			zap.Duration("wait", wait))
		if cf := sleep(ctx, o.Name(), wait); cf != nil {
			return nil, cf
		}
	}
	o.logger.Warn("ollama generation failed", zap.Error(fail))
	return nil, fail
}

func (o *Ollama) attempt(ctx context.Context, payload []byte) (*Completion, *Failure) {
	actx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	endpoint := strings.TrimRight(o.cfg.URL, "/") + "/api/generate"
	httpReq, err := http.NewRequestWithContext(actx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &Failure{Kind: FailureUnavailable, Provider: o.Name(), Detail: err.Error(), Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, contextFailure(ctx, o.Name(), ctx.Err())
		}
		if stderrors.Is(actx.Err(), context.DeadlineExceeded) {
			return nil, &Failure{Kind: FailureTimeout, Provider: o.Name(),
				Detail: fmt.Sprintf("no response within %s", o.cfg.Timeout), Err: err}
		}
		return nil, &Failure{Kind: FailureUnavailable, Provider: o.Name(), Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, &Failure{Kind: FailureUnavailable, Provider: o.Name(), Detail: err.Error(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Failure{Kind: FailureHTTP, Provider: o.Name(), Status: resp.StatusCode,
			Detail: truncateRunes(strings.TrimSpace(string(body)), 300)}
	}

	var out ollamaResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &Failure{Kind: FailureAPI, Provider: o.Name(), Detail: "invalid JSON response", Err: err}
	}
	if out.Error != "" {
		return nil, &Failure{Kind: FailureAPI, Provider: o.Name(), Detail: out.Error}
	}
	if strings.TrimSpace(out.Response) == "" {
		return nil, &Failure{Kind: FailureEmpty, Provider: o.Name(), Detail: "empty response"}
	}

	usage := Usage{PromptTokens: out.PromptEvalCount, CompletionTokens: out.EvalCount}
	if total, ok := usage.Total(); ok {
		usage.TotalTokens = &total
	}
	return &Completion{Text: out.Response, Provider: o.Name(), Model: o.cfg.Model, Usage: usage}, nil
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, provider string, d time.Duration) *Failure {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return contextFailure(ctx, provider, ctx.Err())
	case <-t.C:
		return nil
	}
}
