package eventlog

import (
	"cmp"
	"maps"
	"slices"
)

// Feedback counts the latest rating of each rated run.
type Feedback struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// AvgTokens are averages over the runs that report each count.
type AvgTokens struct {
	Prompt     float64 `json:"prompt"`
	Completion float64 `json:"completion"`
	Total      float64 `json:"total"`
}

// KPIs summarizes a log.
type KPIs struct {
	Runs      int            `json:"runs"`
	Feedback  Feedback       `json:"feedback"`
	AvgTokens AvgTokens      `json:"avg_tokens"`
	Providers map[string]int `json:"providers"`
	Models    map[string]int `json:"models"`
}

// ProviderTokens is the mean total tokens of one provider.
type ProviderTokens struct {
	Provider  string  `json:"provider"`
	AvgTokens float64 `json:"avg_tokens"`
}

// Bucket is a run count for one time slot.
type Bucket struct {
	Date string `json:"date"`
	Runs int    `json:"runs"`
}

// Runs drops feedback events.
func Runs(events []*Event) []*Event {
	out := make([]*Event, 0, len(events))
	for _, e := range events {
		if e.Kind != KindFeedback {
			out = append(out, e)
		}
	}
	return out
}

// Ratings resolves the effective rating per run id: the last feedback event
// for a target wins, then any rating stored on the run itself.
func Ratings(events []*Event) map[string]int {
	out := map[string]int{}
	for _, e := range events {
		if e.Kind != KindFeedback && e.Rating != nil {
			out[e.ID] = *e.Rating
		}
	}
	for _, e := range events {
		if e.Kind == KindFeedback && e.Target != "" && e.Rating != nil {
			out[e.Target] = *e.Rating
		}
	}
	return out
}

// ComputeKPIs aggregates runs, ratings, average token usage and counts per
// provider and model. Runs without a rating count as neutral.
func ComputeKPIs(events []*Event) KPIs {
	runs := Runs(events)
	ratings := Ratings(events)
	k := KPIs{Runs: len(runs), Providers: map[string]int{}, Models: map[string]int{}}

	var ps, cs, ts, pn, cn, tn int
	for _, e := range runs {
		k.Providers[e.Provider]++
		k.Models[e.Model]++

		switch r, ok := ratings[e.ID]; {
		case ok && r == 1:
			k.Feedback.Positive++
		case ok && r == -1:
			k.Feedback.Negative++
		default:
			k.Feedback.Neutral++
		}

		if e.Usage == nil {
			continue
		}
		if e.Usage.PromptTokens != nil {
			ps += *e.Usage.PromptTokens
			pn++
		}
		if e.Usage.CompletionTokens != nil {
			cs += *e.Usage.CompletionTokens
			cn++
		}
		if t, ok := e.Usage.Total(); ok {
			ts += t
			tn++
		}
	}
	k.AvgTokens = AvgTokens{Prompt: avg(ps, pn), Completion: avg(cs, cn), Total: avg(ts, tn)}
	return k
}

// TokensByProvider averages total tokens per provider, highest first. Ties
// sort by provider name.
func TokensByProvider(events []*Event) []ProviderTokens {
	sum := map[string]int{}
	n := map[string]int{}
	for _, e := range Runs(events) {
		if e.Usage == nil {
			continue
		}
		if t, ok := e.Usage.Total(); ok {
			sum[e.Provider] += t
			n[e.Provider]++
		}
	}

	rows := make([]ProviderTokens, 0, len(sum))
	for _, p := range slices.Sorted(maps.Keys(sum)) {
		rows = append(rows, ProviderTokens{Provider: p, AvgTokens: avg(sum[p], n[p])})
	}
	slices.SortStableFunc(rows, func(a, b ProviderTokens) int {
		return cmp.Compare(b.AvgTokens, a.AvgTokens)
	})
	return rows
}

// RunsOverTime counts runs per "day" (2006-01-02) or "hour" (2006-01-02 15:00),
// in chronological order. Events with unparseable timestamps are skipped.
func RunsOverTime(events []*Event, bucket string) []Bucket {
	layout, suffix := "2006-01-02", ""
	if bucket == "hour" {
		layout, suffix = "2006-01-02 15", ":00"
	}
	counts := map[string]int{}
	for _, e := range Runs(events) {
		t := e.Time()
		if t.IsZero() {
			continue
		}
		counts[t.Format(layout)+suffix]++
	}

	rows := make([]Bucket, 0, len(counts))
	for _, k := range slices.Sorted(maps.Keys(counts)) {
		rows = append(rows, Bucket{Date: k, Runs: counts[k]})
	}
	return rows
}

func avg(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}
