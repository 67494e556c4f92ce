package catalog

import (
	"fmt"
	"math/bits"
	"strings"
)

// Season is one of the four bloom seasons.
type Season uint8

const (
	Winter Season = iota
	Spring
	Summer
	Autumn
)

// AllSeasons lists seasons in calendar order starting with winter.
var AllSeasons = []Season{Winter, Spring, Summer, Autumn}

var seasonNames = []string{"winter", "spring", "summer", "autumn"}

var seasonAliases = map[string]uint8{
	"hiver": 0, "printemps": 1, "été": 2, "ete": 2, "automne": 3, "fall": 3,
}

func (s Season) String() string { return enumName(seasonNames, uint8(s)) }

// ParseSeason accepts the canonical English name or a French alias.
func ParseSeason(s string) (Season, error) {
	v, err := parseEnum("season", s, seasonNames, seasonAliases)
	return Season(v), err
}

func (s Season) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Season) UnmarshalText(b []byte) error {
	v, err := ParseSeason(string(b))
	*s = v
	return err
}

// seasonOfMonth maps months 1..12 to seasons (index 0 unused).
var seasonOfMonth = [13]Season{
	1:  Winter,
	2:  Winter,
	3:  Spring,
	4:  Spring,
	5:  Spring,
	6:  Summer,
	7:  Summer,
	8:  Summer,
	9:  Autumn,
	10: Autumn,
	11: Autumn,
	12: Winter,
}

// SeasonOfMonth returns the season for a month in 1..12.
func SeasonOfMonth(m int) (Season, bool) {
	if m < 1 || m > 12 {
		return 0, false
	}
	return seasonOfMonth[m], true
}

// Exposure is a light exposure a plant tolerates.
type Exposure uint8

const (
	ExposureSun Exposure = iota
	ExposurePartialShade
	ExposureShade
)

var exposureNames = []string{"sun", "partial_shade", "shade"}

var exposureAliases = map[string]uint8{
	"soleil": 0, "full_sun": 0,
	"mi-ombre": 1, "partialshade": 1, "partial-shade": 1, "partial shade": 1,
	"ombre": 2,
}

func (e Exposure) String() string { return enumName(exposureNames, uint8(e)) }

// ParseExposure accepts the canonical name or a French alias.
func ParseExposure(s string) (Exposure, error) {
	v, err := parseEnum("exposure", s, exposureNames, exposureAliases)
	return Exposure(v), err
}

func (e Exposure) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

func (e *Exposure) UnmarshalText(b []byte) error {
	v, err := ParseExposure(string(b))
	*e = v
	return err
}

// Soil is a soil type a plant tolerates.
type Soil uint8

const (
	SoilDraining Soil = iota
	SoilNormal
	SoilHeavy
)

var soilNames = []string{"draining", "normal", "heavy"}

var soilAliases = map[string]uint8{"drainant": 0, "lourd": 2, "clay": 2}

func (s Soil) String() string { return enumName(soilNames, uint8(s)) }

func ParseSoil(s string) (Soil, error) {
	v, err := parseEnum("soil", s, soilNames, soilAliases)
	return Soil(v), err
}

// Maintenance is the care effort a plant needs.
type Maintenance uint8

const (
	MaintenanceLow Maintenance = iota
	MaintenanceMedium
	MaintenanceHigh
)

var maintenanceNames = []string{"low", "medium", "high"}

var maintenanceAliases = map[string]uint8{"faible": 0, "moyen": 1, "élevé": 2, "eleve": 2}

func (m Maintenance) String() string { return enumName(maintenanceNames, uint8(m)) }

func ParseMaintenance(s string) (Maintenance, error) {
	v, err := parseEnum("maintenance", s, maintenanceNames, maintenanceAliases)
	return Maintenance(v), err
}

// Drought is a plant's drought tolerance.
type Drought uint8

const (
	DroughtGood Drought = iota
	DroughtMedium
	DroughtPoor
)

var droughtNames = []string{"good", "medium", "poor"}

var droughtAliases = map[string]uint8{"bonne": 0, "moyenne": 1, "faible": 2}

func (d Drought) String() string { return enumName(droughtNames, uint8(d)) }

func ParseDrought(s string) (Drought, error) {
	v, err := parseEnum("drought", s, droughtNames, droughtAliases)
	return Drought(v), err
}

// RootBehavior describes how a root system spreads.
type RootBehavior uint8

const (
	RootFibrous RootBehavior = iota
	RootSuckering
	RootSpreading
)

var rootNames = []string{"fibrous", "suckering", "spreading"}

var rootAliases = map[string]uint8{"fibreux": 0, "drageonnant": 1, "traçant": 2, "tracant": 2}

func (r RootBehavior) String() string { return enumName(rootNames, uint8(r)) }

func ParseRootBehavior(s string) (RootBehavior, error) {
	v, err := parseEnum("root behavior", s, rootNames, rootAliases)
	return RootBehavior(v), err
}

// PlantClass distinguishes woody shrubs from herbaceous perennials.
type PlantClass uint8

const (
	ClassShrub PlantClass = iota
	ClassPerennial
)

var classNames = []string{"shrub", "perennial"}

var classAliases = map[string]uint8{"arbuste": 0, "vivace": 1}

func (c PlantClass) String() string { return enumName(classNames, uint8(c)) }

func ParsePlantClass(s string) (PlantClass, error) {
	v, err := parseEnum("plant class", s, classNames, classAliases)
	return PlantClass(v), err
}

func (c PlantClass) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *PlantClass) UnmarshalText(b []byte) error {
	v, err := ParsePlantClass(string(b))
	*c = v
	return err
}

// Stratum is the height class derived from a plant's height midpoint.
type Stratum uint8

const (
	StratumLow Stratum = iota
	StratumMedium
	StratumHigh
)

// AllStrata lists strata from lowest to highest.
var AllStrata = []Stratum{StratumLow, StratumMedium, StratumHigh}

var stratumNames = []string{"low", "medium", "high"}

var stratumAliases = map[string]uint8{"basse": 0, "moyenne": 1, "haute": 2}

func (s Stratum) String() string { return enumName(stratumNames, uint8(s)) }

func ParseStratum(s string) (Stratum, error) {
	v, err := parseEnum("stratum", s, stratumNames, stratumAliases)
	return Stratum(v), err
}

func (s Stratum) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Stratum) UnmarshalText(b []byte) error {
	v, err := ParseStratum(string(b))
	*s = v
	return err
}

func enumName(names []string, v uint8) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("unknown(%d)", v)
}

func parseEnum(kind, s string, names []string, aliases map[string]uint8) (uint8, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if key == n {
			return uint8(i), nil
		}
	}
	if v, ok := aliases[key]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("unknown %s %q (want one of: %s)", kind, s, strings.Join(names, ", "))
}

// Set is a small bitset over one of the enum types above.
type Set[E ~uint8] uint16

type (
	SeasonSet   = Set[Season]
	ExposureSet = Set[Exposure]
	SoilSet     = Set[Soil]
)

// SetOf builds a set from its members.
func SetOf[E ~uint8](items ...E) Set[E] {
	var s Set[E]
	for _, e := range items {
		s = s.With(e)
	}
	return s
}

func (s Set[E]) Has(e E) bool { return s&(1<<uint(e)) != 0 }
func (s Set[E]) With(e E) Set[E] { return s | 1<<uint(e) }
func (s Set[E]) Intersect(o Set[E]) Set[E] { return s & o }
func (s Set[E]) Union(o Set[E]) Set[E] { return s | o }
func (s Set[E]) Minus(o Set[E]) Set[E] { return s &^ o }
func (s Set[E]) Len() int { return bits.OnesCount16(uint16(s)) }
func (s Set[E]) Empty() bool { return s == 0 }

// Items returns members in ascending enum order.
func (s Set[E]) Items() []E {
	items := make([]E, 0, s.Len())
	for i := 0; i < 16; i++ {
		if s&(1<<uint(i)) != 0 {
			items = append(items, E(i))
		}
	}
	return items
}

// Names renders set members as their canonical names, in enum order.
func Names[E interface {
	~uint8
	String() string
}](s Set[E]) []string {
	items := s.Items()
	names := make([]string, len(items))
	for i, e := range items {
		names[i] = e.String()
	}
	return names
}

// ParseSet parses a list of names with the given enum parser.
func ParseSet[E ~uint8](names []string, parse func(string) (E, error)) (Set[E], error) {
	var s Set[E]
	for _, n := range names {
		e, err := parse(n)
		if err != nil {
			return 0, err
		}
		s = s.With(e)
	}
	return s, nil
}

// MonthSet is a set of months 1..12.
type MonthSet uint16

// MonthsOf builds a month set, ignoring values outside 1..12.
func MonthsOf(months ...int) MonthSet {
	var s MonthSet
	for _, m := range months {
		if m >= 1 && m <= 12 {
			s |= 1 << uint(m)
		}
	}
	return s
}

func (s MonthSet) Has(m int) bool { return m >= 1 && m <= 12 && s&(1<<uint(m)) != 0 }
func (s MonthSet) Len() int { return bits.OnesCount16(uint16(s)) }
func (s MonthSet) Union(o MonthSet) MonthSet { return s | o }

// Months returns the months in ascending order.
func (s MonthSet) Months() []int {
	out := make([]int, 0, s.Len())
	for m := 1; m <= 12; m++ {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

// Seasons maps each month through the fixed month-to-season table.
func (s MonthSet) Seasons() SeasonSet {
	var out SeasonSet
	for _, m := range s.Months() {
		out = out.With(seasonOfMonth[m])
	}
	return out
}
