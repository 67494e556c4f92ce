package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
//
// It is passed explicitly into request construction; no package reads
// preferences from process-wide state.
type Config struct {
	// DefaultModel selects the chars-per-token profile used by the compactor
	// and cost estimates (mistral, llama3, gpt-4o-mini).
	DefaultModel string `json:"default_model,omitempty"`

	// BudgetTokens enables the compactor's budget loop when > 0.
	BudgetTokens int `json:"budget_tokens,omitempty"`

	// Aggressive enables the second greeting/sign-off strip.
	Aggressive bool `json:"aggressive,omitempty"`

	// LiteSpellFix enables the typo correction table.
	LiteSpellFix bool `json:"lite_spell_fix,omitempty"`

	// AddConstraint appends the "answer in N points" guard to prompts sent to providers.
	AddConstraint bool `json:"add_constraint,omitempty"`
	NPoints       int  `json:"n_points,omitempty"`
	MaxWords      int  `json:"max_words,omitempty"`

	// Palette request defaults.
	MaxPlants       int      `json:"max_plants,omitempty"`
	Exposures       []string `json:"exposures,omitempty"`
	HeightMinCm     int      `json:"height_min_cm,omitempty"`
	HeightMaxCm     int      `json:"height_max_cm,omitempty"`
	AvoidInvasive   bool     `json:"avoid_invasive,omitempty"`
	InvasiveMarkers []string `json:"invasive_markers,omitempty"`

	// CatalogPath points at a JSON or YAML catalog replacing the built-in one.
	CatalogPath string `json:"catalog_path,omitempty"`

	// Local inference endpoint.
	OllamaURL            string `json:"ollama_url,omitempty"`
	OllamaModel          string `json:"ollama_model,omitempty"`
	OllamaTimeoutSeconds int    `json:"ollama_timeout_seconds,omitempty"`
	OllamaRetries        int    `json:"ollama_retries,omitempty"`
	OllamaBackoffMs      int    `json:"ollama_backoff_ms,omitempty"`

	// Hosted chat APIs. Keys come from OPENAI_API_KEY / ANTHROPIC_API_KEY.
	OpenAIModel    string `json:"openai_model,omitempty"`
	AnthropicModel string `json:"anthropic_model,omitempty"`

	// LogBackend is "jsonl" (default) or "sqlite".
	LogBackend string `json:"log_backend,omitempty"`

	// LogPath overrides the JSONL event log location (default <baseDir>/events.jsonl).
	LogPath string `json:"log_path,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type prefixes to disable entirely.
	// Known types: "palette", "prompt", "llm", "format", "events".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultModel:         "mistral",
		LiteSpellFix:         true,
		AddConstraint:        true,
		NPoints:              5,
		MaxWords:             120,
		MaxPlants:            6,
		Exposures:            []string{"sun", "partial_shade"},
		HeightMinCm:          60,
		HeightMaxCm:          220,
		AvoidInvasive:        true,
		InvasiveMarkers:      []string{"Buddleja"},
		OllamaURL:            "http://localhost:11434",
		OllamaModel:          "mistral",
		OllamaTimeoutSeconds: 30,
		OllamaRetries:        2,
		OllamaBackoffMs:      800,
		OpenAIModel:          "gpt-4o-mini",
		AnthropicModel:       "claude-3-5-sonnet-latest",
		LogBackend:           "jsonl",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.botan.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.botan) and repo (.botan) directories.
// Repo config is found by walking upward from startDir to find the nearest .botan/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .botan/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".botan", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated,
// except palette exposures which an overlay replaces outright.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		DefaultModel:         pickString(base.DefaultModel, overlay.DefaultModel),
		BudgetTokens:         pickInt(base.BudgetTokens, overlay.BudgetTokens),
		NPoints:              pickInt(base.NPoints, overlay.NPoints),
		MaxWords:             pickInt(base.MaxWords, overlay.MaxWords),
		MaxPlants:            pickInt(base.MaxPlants, overlay.MaxPlants),
		HeightMinCm:          pickInt(base.HeightMinCm, overlay.HeightMinCm),
		HeightMaxCm:          pickInt(base.HeightMaxCm, overlay.HeightMaxCm),
		CatalogPath:          pickString(base.CatalogPath, overlay.CatalogPath),
		OllamaURL:            pickString(base.OllamaURL, overlay.OllamaURL),
		OllamaModel:          pickString(base.OllamaModel, overlay.OllamaModel),
		OllamaTimeoutSeconds: pickInt(base.OllamaTimeoutSeconds, overlay.OllamaTimeoutSeconds),
		OllamaRetries:        pickInt(base.OllamaRetries, overlay.OllamaRetries),
		OllamaBackoffMs:      pickInt(base.OllamaBackoffMs, overlay.OllamaBackoffMs),
		OpenAIModel:          pickString(base.OpenAIModel, overlay.OpenAIModel),
		AnthropicModel:       pickString(base.AnthropicModel, overlay.AnthropicModel),
		LogBackend:           pickString(base.LogBackend, overlay.LogBackend),
		LogPath:              pickString(base.LogPath, overlay.LogPath),
	}

	// Booleans: overlay wins if true, else base
	result.Aggressive = base.Aggressive || overlay.Aggressive
	result.LiteSpellFix = base.LiteSpellFix || overlay.LiteSpellFix
	result.AddConstraint = base.AddConstraint || overlay.AddConstraint
	result.AvoidInvasive = base.AvoidInvasive || overlay.AvoidInvasive

	// A repo that restricts exposures means exactly those exposures.
	result.Exposures = mergeStringSlice(base.Exposures, nil)
	if len(overlay.Exposures) > 0 {
		result.Exposures = mergeStringSlice(overlay.Exposures, nil)
	}

	result.InvasiveMarkers = mergeStringSlice(base.InvasiveMarkers, overlay.InvasiveMarkers)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func pickInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func pickString(base, overlay string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
