// Package compact shrinks prompts with a fixed, deterministic pipeline of
// text rewrites and estimates their token cost.
//
// Compact is a total function: it never fails, performs no I/O and keeps no
// state between calls.
package compact

import (
	"encoding/json"
	"fmt"
	"math"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Step names recorded in Stats.Steps.
const (
	StepSpellFix          = "spell_fix"
	StepSoftStrip         = "soft_strip"
	StepFillers           = "fillers"
	StepSafeRewrites      = "safe_rewrites"
	StepDomainCompactions = "domain_compactions"
	StepDedupeLines       = "dedupe_lines"
	StepTighten           = "tighten"
	StepAggressive        = "aggressive"
	StepFinalCleanup      = "final_cleanup"
)

// MaxBudgetPasses bounds the extra compression rounds run for a token budget.
const MaxBudgetPasses = 3

// Options tune a compaction.
type Options struct {
	// Model selects the estimation profile only.
	Model string
	// BudgetTokens enables the budget loop when non-nil.
	BudgetTokens *int
	Aggressive   bool
	LiteSpellFix bool
}

// Stats describes a compaction. Character counts are in runes.
type Stats struct {
	CharsBefore     int      `json:"chars_before"`
	CharsAfter      int      `json:"chars_after"`
	TokensBefore    int      `json:"tokens_before"`
	TokensAfter     int      `json:"tokens_after"`
	Steps           []string `json:"steps"`
	BudgetRespected bool     `json:"budget_respected"`
}

// CharsSaved is never negative.
func (s Stats) CharsSaved() int {
	return max(0, s.CharsBefore-s.CharsAfter)
}

// PctSaved is the share of characters removed, rounded to one decimal.
func (s Stats) PctSaved() float64 {
	if s.CharsBefore == 0 {
		return 0
	}
	pct := float64(s.CharsBefore-s.CharsAfter) * 100 / float64(s.CharsBefore)
	return math.Round(pct*10) / 10
}

// TokensSaved is never negative.
func (s Stats) TokensSaved() int {
	return max(0, s.TokensBefore-s.TokensAfter)
}

// statsFields drops the MarshalJSON method so the tagged fields encode as-is.
type statsFields Stats

// MarshalJSON adds the derived savings. Decoding uses the struct tags and
// ignores the derived keys.
func (s Stats) MarshalJSON() ([]byte, error) {
	if s.Steps == nil {
		s.Steps = []string{}
	}
	return json.Marshal(struct {
		statsFields
		CharsSaved  int     `json:"chars_saved"`
		PctSaved    float64 `json:"pct_saved"`
		TokensSaved int     `json:"tokens_saved"`
	}{statsFields(s), s.CharsSaved(), s.PctSaved(), s.TokensSaved()})
}

type pass struct {
	name string
	fn   func(string) string
	on   bool
}

// Compact runs the rewrite pipeline over text.
func Compact(text string, opts Options) (string, Stats) {
	if text == "" {
		return "", Stats{Steps: []string{}, BudgetRespected: true}
	}

	stats := Stats{
		CharsBefore:  utf8.RuneCountInString(text),
		TokensBefore: EstimateTokens(text, opts.Model),
		Steps:        []string{},
	}

	out := norm.NFKC.String(text)
	run := func(name string, fn func(string) string) {
		if next := fn(out); next != out {
			out = next
			stats.Steps = append(stats.Steps, name)
		}
	}

	passes := []pass{
		{StepSpellFix, func(s string) string { return applyAll(s, spellFixes) }, opts.LiteSpellFix},
		{StepSoftStrip, stripSoft, true},
		{StepFillers, stripFillers, true},
		{StepSafeRewrites, func(s string) string { return applyAll(s, safeRewrites) }, true},
		{StepDomainCompactions, func(s string) string { return applyAll(s, domainCompactions) }, true},
		{StepDedupeLines, dedupeLines, true},
		{StepTighten, tighten, true},
		{StepAggressive, func(s string) string { return tighten(stripGreetings(s)) }, opts.Aggressive},
	}
	for _, p := range passes {
		if p.on {
			run(p.name, p.fn)
		}
	}

	if opts.BudgetTokens != nil {
		budget := *opts.BudgetTokens
		for i := 1; i <= MaxBudgetPasses; i++ {
			if EstimateTokens(out, opts.Model) <= budget {
				break
			}
			next := budgetPass(out)
			if next == out {
				break
			}
			out = next
			stats.Steps = append(stats.Steps, fmt.Sprintf("budget_pass_%d", i))
		}
	}

	out = finalCleanup(out)
	stats.Steps = append(stats.Steps, StepFinalCleanup)

	stats.CharsAfter = utf8.RuneCountInString(out)
	stats.TokensAfter = EstimateTokens(out, opts.Model)
	stats.BudgetRespected = opts.BudgetTokens == nil || stats.TokensAfter <= *opts.BudgetTokens
	return out, stats
}
