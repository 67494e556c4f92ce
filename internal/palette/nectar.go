package palette

import (
	"fmt"

	"github.com/hpungsan/botan/internal/catalog"
)

// NectarMode selects how each plant is weighted in monthly nectar scores.
type NectarMode string

const (
	NectarEqual  NectarMode = "equal"  // every plant weighs 1
	NectarHeight NectarMode = "height" // height midpoint / 100
	NectarClass  NectarMode = "class"  // shrub 1.0, perennial 0.7
	NectarCustom NectarMode = "custom" // the plant's own nectar weight
)

// ParseNectarMode validates a mode name; empty means equal.
func ParseNectarMode(s string) (NectarMode, error) {
	switch m := NectarMode(s); m {
	case "":
		return NectarEqual, nil
	case NectarEqual, NectarHeight, NectarClass, NectarCustom:
		return m, nil
	default:
		return "", fmt.Errorf("unknown nectar mode %q (want equal, height, class or custom)", s)
	}
}

// NectarScores sums plant weights over each bloom month. Index 0 is January.
func NectarScores(plants []catalog.Plant, mode NectarMode) [12]float64 {
	var scores [12]float64
	for _, p := range plants {
		w := nectarWeight(p, mode)
		for _, m := range p.BloomMonths.Months() {
			scores[m-1] += w
		}
	}
	return scores
}

func nectarWeight(p catalog.Plant, mode NectarMode) float64 {
	switch mode {
	case NectarHeight:
		return p.Height.Mid() / 100
	case NectarClass:
		if p.Class == catalog.ClassPerennial {
			return 0.7
		}
		return 1.0
	case NectarCustom:
		return p.Nectar
	default:
		return 1.0
	}
}

// NormalizeScores rescales scores to 0-100 against the peak month.
// All-zero input is returned unchanged.
func NormalizeScores(scores [12]float64) [12]float64 {
	peak := 0.0
	for _, s := range scores {
		peak = max(peak, s)
	}
	if peak <= 0 {
		return scores
	}
	var out [12]float64
	for i, s := range scores {
		out[i] = s / peak * 100
	}
	return out
}
