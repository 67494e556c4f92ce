// Package palette selects a bounded set of plants from a catalog that covers
// a target set of bloom seasons, either greedily or under per-stratum quotas.
//
// Everything here is a pure function of its arguments: no logging, no I/O,
// no package-level mutable state.
package palette

import (
	"math"
	"slices"
	"strings"

	"github.com/hpungsan/botan/internal/catalog"
	"github.com/hpungsan/botan/internal/errors"
)

// Strategy names a selection algorithm.
type Strategy string

const (
	StrategyGreedy   Strategy = "greedy"
	StrategyBalanced Strategy = "balanced"
)

// Filters are the optional advanced candidate constraints.
type Filters struct {
	LowMaintenanceOnly  bool
	RequireDrainingSoil bool
	DroughtTolerantOnly bool
	AvoidSpreadingRoots bool
	AvoidInvasive       bool
	// InvasiveMarkers are case-insensitive name fragments flagging invasive species.
	InvasiveMarkers []string
	// Exclude lists plant names to drop, case-insensitively.
	Exclude []string
}

// Quotas caps picks per stratum during the balanced phase.
type Quotas struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

func (q Quotas) of(s catalog.Stratum) int {
	switch s {
	case catalog.StratumLow:
		return q.Low
	case catalog.StratumMedium:
		return q.Medium
	default:
		return q.High
	}
}

// Total returns the sum of positive quotas.
func (q Quotas) Total() int {
	return max(q.Low, 0) + max(q.Medium, 0) + max(q.High, 0)
}

// Request describes a palette selection. The zero Height.Max means no upper bound.
type Request struct {
	Seasons   catalog.SeasonSet
	Exposures catalog.ExposureSet
	Height    catalog.HeightRange
	MaxPlants int
	Filters   Filters
	// Quotas selects the balanced strategy when non-nil.
	Quotas *Quotas
	// Class restricts candidates to one plant class when non-nil.
	Class *catalog.PlantClass
}

// Strategy reports which algorithm the request selects.
func (r Request) Strategy() Strategy {
	if r.Quotas != nil {
		return StrategyBalanced
	}
	return StrategyGreedy
}

// Result is the outcome of a selection, in selection order. Covered is every
// season the chosen plants bloom in, which may exceed the target.
type Result struct {
	Plants     []catalog.Plant
	Covered    catalog.SeasonSet
	Uncovered  catalog.SeasonSet
	Strategy   Strategy
	Candidates int
}

// balancedPriority is the stratum order tried on every balanced pick.
var balancedPriority = []catalog.Stratum{catalog.StratumMedium, catalog.StratumHigh, catalog.StratumLow}

type candidate struct {
	plant   catalog.Plant
	index   int
	seasons catalog.SeasonSet
}

// Select filters plants and picks up to req.MaxPlants of them.
// A non-positive MaxPlants is the only rejected input.
func Select(plants []catalog.Plant, req Request) (*Result, error) {
	if req.MaxPlants <= 0 {
		return nil, errors.NewInvalidRequest("max_plants must be >= 1")
	}

	res := &Result{Strategy: req.Strategy(), Plants: []catalog.Plant{}}
	if req.Seasons.Empty() {
		return res, nil
	}

	cands := candidates(plants, req)
	res.Candidates = len(cands)

	var chosen []candidate
	if req.Quotas != nil {
		chosen = balancedCover(cands, req.Seasons, req.MaxPlants, *req.Quotas)
	} else {
		chosen = greedyCover(cands, req.Seasons, req.MaxPlants)
	}

	for _, c := range chosen {
		res.Plants = append(res.Plants, c.plant)
		res.Covered = res.Covered.Union(c.seasons)
	}
	res.Uncovered = req.Seasons.Minus(res.Covered)
	return res, nil
}

// Filter returns the plants passing every request constraint, in catalog order.
func Filter(plants []catalog.Plant, req Request) []catalog.Plant {
	out := make([]catalog.Plant, 0, len(plants))
	for _, p := range plants {
		if req.Accepts(p) {
			out = append(out, p)
		}
	}
	return out
}

// Accepts reports whether p passes the request's filters.
func (r Request) Accepts(p catalog.Plant) bool {
	if r.Class != nil && p.Class != *r.Class {
		return false
	}
	if p.Exposure.Intersect(r.Exposures).Empty() {
		return false
	}

	bounds := r.Height
	if bounds.Max == 0 {
		bounds.Max = math.MaxInt
	}
	if !p.Height.Overlaps(bounds) {
		return false
	}

	f := r.Filters
	if f.LowMaintenanceOnly && p.Maintenance != catalog.MaintenanceLow {
		return false
	}
	if f.RequireDrainingSoil && !p.Soil.Has(catalog.SoilDraining) {
		return false
	}
	if f.DroughtTolerantOnly && p.Drought != catalog.DroughtGood {
		return false
	}
	if f.AvoidSpreadingRoots && (p.Roots == catalog.RootSuckering || p.Roots == catalog.RootSpreading) {
		return false
	}
	if f.AvoidInvasive && matchesAny(p.Name, f.InvasiveMarkers) {
		return false
	}
	for _, name := range f.Exclude {
		if strings.EqualFold(strings.TrimSpace(name), p.Name) {
			return false
		}
	}
	return true
}

func matchesAny(name string, markers []string) bool {
	lower := strings.ToLower(name)
	for _, m := range markers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" && strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func candidates(plants []catalog.Plant, req Request) []candidate {
	out := make([]candidate, 0, len(plants))
	for i, p := range plants {
		if req.Accepts(p) {
			out = append(out, candidate{plant: p, index: i, seasons: p.Seasons()})
		}
	}
	return out
}

// greedyCover repeatedly takes the candidate adding the most uncovered
// seasons. Candidates that add nothing are set aside and stay eligible for
// the fill phase.
func greedyCover(cands []candidate, target catalog.SeasonSet, maxPlants int) []candidate {
	remaining := target
	pool := slices.Clone(cands)
	chosen := make([]candidate, 0, maxPlants)
	var skipped []candidate

	for !remaining.Empty() && len(pool) > 0 && len(chosen) < maxPlants {
		sortByContribution(pool, remaining)
		best := pool[0]
		pool = pool[1:]
		if best.seasons.Intersect(remaining).Empty() {
			skipped = append(skipped, best)
			continue
		}
		chosen = append(chosen, best)
		remaining = remaining.Minus(best.seasons)
	}

	return fill(chosen, slices.Concat(pool, skipped), maxPlants)
}

// balancedCover picks from strata in medium, high, low order while quotas
// last, then fills remaining slots ignoring quotas.
func balancedCover(cands []candidate, target catalog.SeasonSet, maxPlants int, quotas Quotas) []candidate {
	remaining := target
	chosen := make([]candidate, 0, maxPlants)

	buckets := make(map[catalog.Stratum][]candidate, len(catalog.AllStrata))
	left := make(map[catalog.Stratum]int, len(catalog.AllStrata))
	for _, s := range catalog.AllStrata {
		left[s] = max(quotas.of(s), 0)
	}
	for _, c := range cands {
		s := c.plant.Stratum()
		buckets[s] = append(buckets[s], c)
	}

	for len(chosen) < maxPlants {
		picked := false
		for _, s := range balancedPriority {
			if left[s] <= 0 || len(buckets[s]) == 0 {
				continue
			}
			sortByContribution(buckets[s], remaining)
			c := buckets[s][0]
			buckets[s] = buckets[s][1:]

			chosen = append(chosen, c)
			left[s]--
			remaining = remaining.Minus(c.seasons)
			picked = true
			break
		}
		if !picked {
			break
		}
	}

	taken := make(map[int]bool, len(chosen))
	for _, c := range chosen {
		taken[c.index] = true
	}
	rest := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if !taken[c.index] {
			rest = append(rest, c)
		}
	}
	return fill(chosen, rest, maxPlants)
}

// fill tops up chosen from leftover by descending total season count.
func fill(chosen, leftover []candidate, maxPlants int) []candidate {
	if len(chosen) >= maxPlants || len(leftover) == 0 {
		return chosen
	}
	leftover = slices.Clone(leftover)
	slices.SortStableFunc(leftover, func(a, b candidate) int {
		if d := b.seasons.Len() - a.seasons.Len(); d != 0 {
			return d
		}
		return a.index - b.index
	})

	taken := make(map[int]bool, len(chosen))
	for _, c := range chosen {
		taken[c.index] = true
	}
	for _, c := range leftover {
		if len(chosen) >= maxPlants {
			break
		}
		if taken[c.index] {
			continue
		}
		chosen = append(chosen, c)
		taken[c.index] = true
	}
	return chosen
}

// sortByContribution orders by seasons added to remaining, then catalog order.
func sortByContribution(pool []candidate, remaining catalog.SeasonSet) {
	slices.SortStableFunc(pool, func(a, b candidate) int {
		ca := a.seasons.Intersect(remaining).Len()
		cb := b.seasons.Intersect(remaining).Len()
		if ca != cb {
			return cb - ca
		}
		return a.index - b.index
	})
}

// BalancedQuotas splits maxPlants evenly across the allowed strata, handing
// the remainder out one by one in medium, high, low order.
func BalancedQuotas(maxPlants int, allowed []catalog.Stratum) Quotas {
	var q Quotas
	if len(allowed) == 0 || maxPlants <= 0 {
		return q
	}
	isAllowed := make(map[catalog.Stratum]bool, len(allowed))
	for _, s := range allowed {
		isAllowed[s] = true
	}

	base := maxPlants / len(isAllowed)
	counts := map[catalog.Stratum]int{}
	for s := range isAllowed {
		counts[s] = base
	}
	leftover := maxPlants - base*len(isAllowed)
	for _, s := range balancedPriority {
		if leftover == 0 {
			break
		}
		if isAllowed[s] {
			counts[s]++
			leftover--
		}
	}

	q.Low = counts[catalog.StratumLow]
	q.Medium = counts[catalog.StratumMedium]
	q.High = counts[catalog.StratumHigh]
	return q
}
