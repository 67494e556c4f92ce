package compact

import (
	"math"
	"slices"
	"strings"
	"unicode/utf8"
)

// DefaultModel is the profile used when a model is empty or unknown.
const DefaultModel = "mistral"

// Profile is the estimation profile of a target model.
type Profile struct {
	Name          string  `json:"name"`
	CharsPerToken float64 `json:"chars_per_token"`
}

var profiles = map[string]Profile{
	"mistral":     {Name: "mistral", CharsPerToken: 4.0},
	"llama3":      {Name: "llama3", CharsPerToken: 4.2},
	"gpt-4o-mini": {Name: "gpt-4o-mini", CharsPerToken: 3.8},
}

// ProfileFor returns the profile for model, falling back to DefaultModel.
func ProfileFor(model string) Profile {
	if p, ok := profiles[strings.ToLower(strings.TrimSpace(model))]; ok {
		return p
	}
	return profiles[DefaultModel]
}

// Models lists the known profile names in sorted order.
func Models() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// EstimateTokens approximates a token count:
// ceil(runes / charsPerToken) + floor(0.2 × (newlines + semicolons + colons)).
func EstimateTokens(text, model string) int {
	cpt := max(ProfileFor(model).CharsPerToken, 1.0)
	tokens := int(math.Ceil(float64(utf8.RuneCountInString(text)) / cpt))
	heavy := strings.Count(text, "\n") + strings.Count(text, ";") + strings.Count(text, ":")
	return max(0, tokens+int(math.Floor(float64(heavy)*0.2)))
}

// Pair is the token estimate of a prompt and its context.
type Pair struct {
	Prompt  int `json:"prompt"`
	Context int `json:"context"`
	Total   int `json:"total"`
}

// EstimatePair estimates a prompt and its context separately.
func EstimatePair(prompt, context, model string) Pair {
	p := EstimateTokens(prompt, model)
	c := EstimateTokens(context, model)
	return Pair{Prompt: p, Context: c, Total: p + c}
}

// Rates are USD prices per 1k tokens.
type Rates struct {
	Prompt     float64 `json:"prompt"`
	Completion float64 `json:"completion"`
}

var rates = map[string]Rates{
	"mistral":     {Prompt: 0.002, Completion: 0.002},
	"llama3":      {Prompt: 0.0005, Completion: 0.0005},
	"gpt-4o-mini": {Prompt: 0.005, Completion: 0.015},
}

// Cost is an estimated price for a token count.
type Cost struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	USD              float64 `json:"usd"`
}

// EstimateCost splits tokens 70/30 between prompt and completion and prices
// them with the model's rates. Unknown models use gpt-4o-mini rates.
func EstimateCost(tokens int, model string) Cost {
	r, ok := rates[strings.ToLower(strings.TrimSpace(model))]
	if !ok {
		r = rates["gpt-4o-mini"]
	}
	tokens = max(tokens, 0)
	prompt := int(float64(tokens) * 0.7)
	completion := tokens - prompt
	usd := (float64(prompt)*r.Prompt + float64(completion)*r.Completion) / 1000
	return Cost{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		USD:              math.Round(usd*1e6) / 1e6,
	}
}
