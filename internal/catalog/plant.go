package catalog

import "strings"

// HeightRange is a plant's mature height in centimetres.
type HeightRange struct {
	Min int
	Max int
}

// Mid returns the midpoint of the range.
func (h HeightRange) Mid() float64 {
	return float64(h.Min+h.Max) / 2
}

// Overlaps reports whether two ranges share at least one value.
func (h HeightRange) Overlaps(o HeightRange) bool {
	return h.Max >= o.Min && h.Min <= o.Max
}

// Plant is a flowering plant record. Seasons and Stratum are derived on
// every call and never stored.
type Plant struct {
	Name        string
	Class       PlantClass
	Color       string
	BloomMonths MonthSet
	Exposure    ExposureSet
	Height      HeightRange
	Maintenance Maintenance
	Soil        SoilSet
	Drought     Drought
	Roots       RootBehavior
	RootNotes   string
	Notes       string
	// Nectar is the custom weight used by the "custom" nectar mode.
	Nectar float64
}

// Seasons maps the bloom months onto seasons.
func (p Plant) Seasons() SeasonSet {
	return p.BloomMonths.Seasons()
}

// Stratum classifies the plant by height midpoint:
// below 60cm is low, up to 120cm is medium, above is high.
func (p Plant) Stratum() Stratum {
	mid := p.Height.Mid()
	switch {
	case mid < 60:
		return StratumLow
	case mid <= 120:
		return StratumMedium
	default:
		return StratumHigh
	}
}

// CalendarLine renders months 1..12 as a 12-rune strip: █ in bloom, · otherwise.
func CalendarLine(months MonthSet) string {
	var b strings.Builder
	for m := 1; m <= 12; m++ {
		if months.Has(m) {
			b.WriteRune('█')
		} else {
			b.WriteRune('·')
		}
	}
	return b.String()
}

// ColorFamily is a coarse colour mood used by the palette analysis.
type ColorFamily string

const (
	FamilyWarm    ColorFamily = "warm"
	FamilyNeutral ColorFamily = "neutral"
	FamilySoft    ColorFamily = "soft"
	FamilyCool    ColorFamily = "cool"
)

// colorKeywords is checked in order; the first keyword found in the colour wins.
var colorKeywords = []struct {
	keyword string
	family  ColorFamily
}{
	{"yellow", FamilyWarm}, {"jaune", FamilyWarm},
	{"gold", FamilyWarm},
	{"orange", FamilyWarm},
	{"red", FamilyWarm}, {"rouge", FamilyWarm},
	{"white", FamilyNeutral}, {"blanc", FamilyNeutral},
	{"cream", FamilyNeutral}, {"crème", FamilyNeutral},
	{"green", FamilyNeutral}, {"vert", FamilyNeutral},
	{"pink", FamilySoft}, {"rose", FamilySoft},
	{"mauve", FamilyCool},
	{"violet", FamilyCool}, {"purple", FamilyCool},
	{"blue", FamilyCool}, {"bleu", FamilyCool},
}

// FamilyOf maps a free-form colour description to a family.
// Unknown or empty colours are neutral.
func FamilyOf(color string) ColorFamily {
	c := strings.ToLower(color)
	if c == "" {
		return FamilyNeutral
	}
	for _, kw := range colorKeywords {
		if strings.Contains(c, kw.keyword) {
			return kw.family
		}
	}
	return FamilyNeutral
}
