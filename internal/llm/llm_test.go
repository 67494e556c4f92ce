package llm

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hpungsan/botan/internal/config"
	"github.com/hpungsan/botan/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func intp(v int) *int { return &v }

func TestUsage_Total(t *testing.T) {
	tests := []struct {
		name  string
		u     Usage
		want  int
		known bool
	}{
		{"empty", Usage{}, 0, false},
		{"explicit total", Usage{TotalTokens: intp(9)}, 9, true},
		{"prompt only", Usage{PromptTokens: intp(4)}, 4, true},
		{"both parts", Usage{PromptTokens: intp(4), CompletionTokens: intp(3)}, 7, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.u.Total()
			if got != tt.want || ok != tt.known {
				t.Errorf("Total() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.known)
			}
		})
	}
}

func TestUsage_Add(t *testing.T) {
	sum := NewUsage(10, 5).Add(Usage{PromptTokens: intp(2)})
	require.Equal(t, 12, *sum.PromptTokens)
	require.Equal(t, 5, *sum.CompletionTokens)
	require.Equal(t, 15, *sum.TotalTokens)

	none := Usage{}.Add(Usage{})
	require.Nil(t, none.PromptTokens)
	require.Nil(t, none.TotalTokens)
}

func TestFailure_Retryable(t *testing.T) {
	tests := []struct {
		f    Failure
		want bool
	}{
		{Failure{Kind: FailureUnavailable}, true},
		{Failure{Kind: FailureTimeout}, true},
		{Failure{Kind: FailureHTTP, Status: 503}, true},
		{Failure{Kind: FailureHTTP, Status: 429}, true},
		{Failure{Kind: FailureHTTP, Status: 400}, false},
		{Failure{Kind: FailureAPI}, false},
		{Failure{Kind: FailureEmpty}, false},
		{Failure{Kind: FailureCancelled}, false},
	}
	for _, tt := range tests {
		if got := tt.f.Retryable(); got != tt.want {
			t.Errorf("%s/%d Retryable() = %v, want %v", tt.f.Kind, tt.f.Status, got, tt.want)
		}
	}
}

func TestToBotanError(t *testing.T) {
	require.NoError(t, ToBotanError(nil))

	err := ToBotanError(&Failure{Kind: FailureHTTP, Provider: "ollama", Status: 502, Detail: "bad gateway"})
	require.True(t, errors.Is(err, errors.ErrProviderFailed))
	var be *errors.BotanError
	require.True(t, stderrors.As(err, &be))
	require.Equal(t, "ollama", be.Details["provider"])
	require.Equal(t, "http", be.Details["kind"])
	require.Equal(t, 502, be.Details["status"])

	err = ToBotanError(&Failure{Kind: FailureCancelled, Provider: "mock"})
	require.True(t, errors.Is(err, errors.ErrCancelled))

	err = ToBotanError(stderrors.New("boom"))
	require.True(t, errors.Is(err, errors.ErrInternal))
}

func TestContextFailure(t *testing.T) {
	require.Nil(t, contextFailure(context.Background(), "x", stderrors.New("other")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := contextFailure(ctx, "x", ctx.Err())
	require.NotNil(t, f)
	require.Equal(t, FailureCancelled, f.Kind)

	f = contextFailure(context.Background(), "x", context.DeadlineExceeded)
	require.NotNil(t, f)
	require.Equal(t, FailureTimeout, f.Kind)
}

func TestWithContext(t *testing.T) {
	require.Equal(t, "q", withContext(Request{Prompt: "q"}))
	require.Equal(t, "Context:\nc\n\nQuestion:\nq", withContext(Request{Prompt: "q", Context: "c"}))
}

func TestNew(t *testing.T) {
	cfg := config.DefaultConfig()

	p, err := New("", "", cfg, nil)
	require.NoError(t, err)
	require.Equal(t, NameMock, p.Name())

	p, err = New("Ollama", "llama3", cfg, nil)
	require.NoError(t, err)
	require.Equal(t, NameOllama, p.Name())
	require.Equal(t, "llama3", p.Model())

	p, err = New("ollama", "", cfg, nil)
	require.NoError(t, err)
	require.Equal(t, "mistral", p.Model())

	_, err = New("nope", "", cfg, nil)
	require.Error(t, err)
}

func TestNew_HostedKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := New(NameOpenAI, "", nil, nil)
	f, ok := AsFailure(err)
	require.True(t, ok)
	require.Equal(t, FailureUnavailable, f.Kind)

	_, err = New("claude", "", nil, nil)
	f, ok = AsFailure(err)
	require.True(t, ok)
	require.Equal(t, "anthropic", f.Provider)

	t.Setenv("OPENAI_API_KEY", "sk-test")
	p, err := New("gpt", "", nil, nil)
	require.NoError(t, err)
	require.Equal(t, DefaultOpenAIModel, p.Model())
}

func TestNewBridge(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "")

	b, err := NewBridge(SoloGPT, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, b.GPT)
	require.Nil(t, b.Claude)

	_, err = NewBridge(ClaudeThenGPT, nil, nil)
	require.Error(t, err)
}
