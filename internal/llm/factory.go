package llm

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/botan/internal/config"
)

// Provider names accepted by New.
const (
	NameMock      = "mock"
	NameOllama    = "ollama"
	NameOpenAI    = "openai"
	NameAnthropic = "anthropic"
)

// ProviderNames lists the names accepted by New.
var ProviderNames = []string{NameMock, NameOllama, NameOpenAI, NameAnthropic}

// New builds a provider by name from cfg. Hosted providers read their API
// key from OPENAI_API_KEY or ANTHROPIC_API_KEY. model overrides the configured
// model when non-empty.
func New(name, model string, cfg *config.Config, logger *zap.Logger) (Provider, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameMock:
		return NewMock(), nil
	case NameOllama:
		return NewOllama(OllamaConfig{
			URL:     cfg.OllamaURL,
			Model:   pick(model, cfg.OllamaModel),
			Timeout: time.Duration(cfg.OllamaTimeoutSeconds) * time.Second,
			Retries: cfg.OllamaRetries,
			Backoff: time.Duration(cfg.OllamaBackoffMs) * time.Millisecond,
		}, logger), nil
	case NameOpenAI, "gpt":
		return NewOpenAI(HostedConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   pick(model, cfg.OpenAIModel),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		}, logger)
	case NameAnthropic, "claude":
		return NewAnthropic(HostedConfig{
			APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
			Model:   pick(model, cfg.AnthropicModel),
			BaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
		}, logger)
	default:
		return nil, fmt.Errorf("unknown provider %q (want %s)", name, strings.Join(ProviderNames, ", "))
	}
}

// NewBridge builds a Bridge over the hosted providers a mode needs. Solo
// modes leave the unused side nil so a missing key for it is not an error.
func NewBridge(mode BridgeMode, cfg *config.Config, logger *zap.Logger) (*Bridge, error) {
	b := &Bridge{}
	if mode != SoloClaude {
		p, err := New(NameOpenAI, "", cfg, logger)
		if err != nil {
			return nil, err
		}
		b.GPT = p
	}
	if mode != SoloGPT {
		p, err := New(NameAnthropic, "", cfg, logger)
		if err != nil {
			return nil, err
		}
		b.Claude = p
	}
	return b, nil
}

func pick(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
