package palette

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hpungsan/botan/internal/catalog"
)

// Tone selects the analysis intro line.
type Tone string

const (
	ToneNeutral      Tone = "neutral"
	ToneEnthusiastic Tone = "enthusiastic"
	ToneShort        Tone = "short"
)

var toneIntro = map[Tone]string{
	ToneNeutral:      "Summary of the generated palette:",
	ToneEnthusiastic: "Lovely palette! Here is the summary:",
	ToneShort:        "Quick recap:",
}

// AnalysisOptions tunes Analyze. Detail runs 1..5; 3 and above add explanation.
type AnalysisOptions struct {
	Tone   Tone
	Detail int
}

// Analyze renders a deterministic markdown synthesis of a selection.
func Analyze(res *Result, target catalog.SeasonSet, opts AnalysisOptions) string {
	intro, ok := toneIntro[opts.Tone]
	if !ok {
		intro = toneIntro[ToneNeutral]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", intro)

	if res == nil || len(res.Plants) == 0 {
		b.WriteString("- No plant passed the filters.\n")
		if !target.Empty() {
			fmt.Fprintf(&b, "- Seasons to strengthen: %s\n", joinOrDash(catalog.Names(target)))
		}
		return b.String()
	}
	plants := res.Plants

	var months catalog.MonthSet
	var covered catalog.SeasonSet
	strata := map[catalog.Stratum]int{}
	lowMaintenance := 0
	for _, p := range plants {
		months = months.Union(p.BloomMonths)
		covered = covered.Union(p.Seasons())
		strata[p.Stratum()]++
		if p.Maintenance == catalog.MaintenanceLow {
			lowMaintenance++
		}
	}

	fmt.Fprintf(&b, "- Seasons covered: %s (target: %s)\n",
		joinOrDash(catalog.Names(covered)), joinOrDash(catalog.Names(target)))
	if missing := target.Minus(covered); !missing.Empty() {
		fmt.Fprintf(&b, "- Seasons to strengthen: %s\n", strings.Join(catalog.Names(missing), ", "))
	}

	monthLabels := make([]string, 0, months.Len())
	for _, m := range months.Months() {
		monthLabels = append(monthLabels, fmt.Sprintf("%02d", m))
	}
	fmt.Fprintf(&b, "- Months covered: %s\n", joinOrDash(monthLabels))
	fmt.Fprintf(&b, "- Strata: low %d, medium %d, high %d\n",
		strata[catalog.StratumLow], strata[catalog.StratumMedium], strata[catalog.StratumHigh])
	fmt.Fprintf(&b, "- Low maintenance: %d/%d plants\n", lowMaintenance, len(plants))
	if soils := topSoils(plants, 3); len(soils) > 0 {
		fmt.Fprintf(&b, "- Dominant soils: %s\n", strings.Join(soils, ", "))
	}
	fmt.Fprintf(&b, "- Colour mood: %s\n", dominantFamily(plants))

	var explain []string
	if opts.Detail >= 3 {
		explain = append(explain, "The composition spreads flowering over time and mixes heights.")
	}
	if opts.Detail >= 4 {
		explain = append(explain, "The dominant hues drive the harmony and readability of the bed.")
	}
	if opts.Detail >= 5 {
		explain = append(explain, "Match sun/shade and soil (draining/normal) to the site for best vigour.")
	}
	if len(explain) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(explain, " "))
		b.WriteString("\n")
	}
	return b.String()
}

// topSoils returns "name (count)" for the n most common soils.
// Ties keep soil enum order.
func topSoils(plants []catalog.Plant, n int) []string {
	counts := map[catalog.Soil]int{}
	for _, p := range plants {
		for _, s := range p.Soil.Items() {
			counts[s]++
		}
	}
	soils := make([]catalog.Soil, 0, len(counts))
	for s := range counts {
		soils = append(soils, s)
	}
	slices.SortFunc(soils, func(a, b catalog.Soil) int {
		if d := counts[b] - counts[a]; d != 0 {
			return d
		}
		return int(a) - int(b)
	})
	if len(soils) > n {
		soils = soils[:n]
	}
	out := make([]string, len(soils))
	for i, s := range soils {
		out[i] = fmt.Sprintf("%s (%d)", s, counts[s])
	}
	return out
}

// dominantFamily is the most frequent colour family; ties go to the first seen.
func dominantFamily(plants []catalog.Plant) catalog.ColorFamily {
	counts := map[catalog.ColorFamily]int{}
	var order []catalog.ColorFamily
	for _, p := range plants {
		f := catalog.FamilyOf(p.Color)
		if counts[f] == 0 {
			order = append(order, f)
		}
		counts[f]++
	}
	best := catalog.FamilyNeutral
	bestCount := 0
	for _, f := range order {
		if counts[f] > bestCount {
			best, bestCount = f, counts[f]
		}
	}
	return best
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
