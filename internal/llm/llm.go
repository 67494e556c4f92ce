// Package llm defines the text-generation collaborators: a deterministic
// mock, a local Ollama endpoint and two hosted chat APIs, plus the pipeline,
// bridge and prompt helpers built on top of them.
//
// Providers never panic or leak transport errors: every failure crosses the
// boundary as a *Failure.
package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/hpungsan/botan/internal/errors"
)

// Defaults applied when a Request leaves a field zero.
const (
	DefaultMaxTokens   = 256
	DefaultTemperature = 0.2
)

// Request is one generation call.
type Request struct {
	Prompt string `json:"prompt"`
	// Context is optional background text. Providers that have no native
	// slot for it fold it into the prompt.
	Context     string   `json:"context,omitempty"`
	System      string   `json:"system,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

func (r Request) maxTokens() int {
	if r.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return r.MaxTokens
}

func (r Request) temperature() float64 {
	if r.Temperature == nil {
		return DefaultTemperature
	}
	return *r.Temperature
}

// Usage reports token counts. Any field may be absent.
type Usage struct {
	PromptTokens     *int `json:"prompt_tokens,omitempty"`
	CompletionTokens *int `json:"completion_tokens,omitempty"`
	TotalTokens      *int `json:"total_tokens,omitempty"`
}

// NewUsage builds a Usage with all three counts set.
func NewUsage(prompt, completion int) Usage {
	total := prompt + completion
	return Usage{PromptTokens: &prompt, CompletionTokens: &completion, TotalTokens: &total}
}

// Total returns TotalTokens, or the sum of the parts that are present.
func (u Usage) Total() (int, bool) {
	if u.TotalTokens != nil {
		return *u.TotalTokens, true
	}
	if u.PromptTokens == nil && u.CompletionTokens == nil {
		return 0, false
	}
	n := 0
	if u.PromptTokens != nil {
		n += *u.PromptTokens
	}
	if u.CompletionTokens != nil {
		n += *u.CompletionTokens
	}
	return n, true
}

// Add sums two usages field by field. A field stays absent only when it is
// absent on both sides.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokens:     addPtr(u.PromptTokens, o.PromptTokens),
		CompletionTokens: addPtr(u.CompletionTokens, o.CompletionTokens),
		TotalTokens:      addPtr(u.TotalTokens, o.TotalTokens),
	}
}

func addPtr(a, b *int) *int {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		v := *b
		return &v
	case b == nil:
		v := *a
		return &v
	default:
		v := *a + *b
		return &v
	}
}

// Completion is a successful generation.
type Completion struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Usage    Usage  `json:"usage"`
}

// Provider generates text.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req Request) (*Completion, error)
}

// FailureKind classifies a provider failure.
type FailureKind string

const (
	FailureUnavailable FailureKind = "unavailable" // transport error, no response
	FailureTimeout     FailureKind = "timeout"
	FailureHTTP        FailureKind = "http"  // non-2xx status
	FailureAPI         FailureKind = "api"   // malformed or error payload
	FailureEmpty       FailureKind = "empty" // no text in the response
	FailureCancelled   FailureKind = "cancelled"
)

// Failure is the error variant returned by every provider.
type Failure struct {
	Kind     FailureKind
	Provider string
	Status   int
	Detail   string
	Err      error
}

func (f *Failure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", f.Provider, f.Kind, f.Status, f.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", f.Provider, f.Kind, f.Detail)
}

func (f *Failure) Unwrap() error { return f.Err }

// Retryable reports whether another attempt may succeed.
func (f *Failure) Retryable() bool {
	switch f.Kind {
	case FailureUnavailable, FailureTimeout:
		return true
	case FailureHTTP:
		return f.Status >= 500 || f.Status == http.StatusTooManyRequests
	default:
		return false
	}
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if stderrors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// ToBotanError maps a provider error onto the service error model.
func ToBotanError(err error) error {
	if err == nil {
		return nil
	}
	f, ok := AsFailure(err)
	if !ok {
		return errors.NewInternal(err)
	}
	if f.Kind == FailureCancelled {
		return errors.NewCancelled(f.Provider + " generation")
	}
	be := errors.NewProviderFailed(f.Provider, string(f.Kind), f.Detail)
	if f.Status != 0 {
		be.Details["status"] = f.Status
	}
	return be
}

// contextFailure converts a context error into a Failure, or returns nil.
func contextFailure(ctx context.Context, provider string, err error) *Failure {
	switch {
	case stderrors.Is(err, context.Canceled) || stderrors.Is(ctx.Err(), context.Canceled):
		return &Failure{Kind: FailureCancelled, Provider: provider, Detail: "request cancelled", Err: err}
	case stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return &Failure{Kind: FailureTimeout, Provider: provider, Detail: "request timed out", Err: err}
	}
	return nil
}

// withContext folds optional context into the prompt.
func withContext(req Request) string {
	if req.Context == "" {
		return req.Prompt
	}
	return "Context:\n" + req.Context + "\n\nQuestion:\n" + req.Prompt
}
