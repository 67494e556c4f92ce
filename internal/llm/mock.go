package llm

import (
	"context"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

var (
	sentenceEnd = regexp.MustCompile(`[.!?]\s+`)
	wordRe      = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// Mock is a deterministic offline provider. Prompts asking for a summary get
// the opening of the final sentences back; anything else gets a keyword list.
type Mock struct{}

// NewMock returns the mock provider.
func NewMock() *Mock { return &Mock{} }

func (*Mock) Name() string  { return "mock" }
func (*Mock) Model() string { return "mock" }

// Generate never fails unless ctx is already done.
func (m *Mock) Generate(ctx context.Context, req Request) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, contextFailure(ctx, m.Name(), err)
	}

	body := strings.TrimSpace(withContext(req))
	maxTokens := req.maxTokens()

	var text string
	if wantsSummary(body) {
		sents := sentences(body)
		if len(sents) > 5 {
			sents = sents[len(sents)-5:]
		}
		if len(sents) == 0 {
			sents = []string{body}
		}
		if len(sents) > 3 {
			sents = sents[:3]
		}
		text = "Summary (mock): " + truncateRunes(strings.Join(sents, " "), maxTokens*4)
	} else {
		words := wordRe.FindAllString(strings.ToLower(body), -1)
		slices.Sort(words)
		words = slices.Compact(words)
		if len(words) > 8 {
			words = words[:8]
		}
		text = "Answer (mock): Short answer. Keywords: " + strings.Join(words, ", ")
	}

	prompt := min(4096, utf8.RuneCountInString(body)/4+1)
	completion := min(maxTokens, max(16, utf8.RuneCountInString(text)/4))
	return &Completion{
		Text:     text,
		Provider: m.Name(),
		Model:    m.Model(),
		Usage:    NewUsage(prompt, completion),
	}, nil
}

func wantsSummary(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "résume") || strings.Contains(lower, "résumé") || strings.Contains(lower, "summar")
}

// sentences splits after ., ! or ? followed by whitespace.
func sentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := text[start : loc[0]+1]; s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := text[start:]; s != "" {
		out = append(out, s)
	}
	return out
}

func truncateRunes(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
