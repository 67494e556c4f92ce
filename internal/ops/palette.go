package ops

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/botan/internal/catalog"
	"github.com/hpungsan/botan/internal/errors"
	"github.com/hpungsan/botan/internal/eventlog"
	"github.com/hpungsan/botan/internal/palette"
	"github.com/hpungsan/botan/internal/report"
)

// DefaultDetail is the analysis detail level when none is given.
const DefaultDetail = 3

// PaletteInput contains parameters for the PaletteSelect operation.
// Nil or empty fields take the configured defaults.
type PaletteInput struct {
	Seasons     []string // default: all four
	Exposures   []string // default: cfg.Exposures
	HeightMinCm *int
	HeightMaxCm *int
	MaxPlants   *int
	Strategy    string // greedy (default) | balanced
	// Quotas are explicit balanced quotas. With the balanced strategy and no
	// quotas, MaxPlants is split over Strata.
	Quotas *palette.Quotas
	Strata []string // default: low, medium, high
	Class  string   // shrub | perennial, empty for both

	LowMaintenanceOnly  bool
	RequireDrainingSoil bool
	DroughtTolerantOnly bool
	AvoidSpreadingRoots bool
	AvoidInvasive       *bool // default: cfg.AvoidInvasive
	Exclude             []string

	Tone       string // neutral | enthusiastic | short
	Detail     int    // 1..5, default 3
	NectarMode string // equal | height | class | custom
	Format     string // json | csv | markdown | html
	// OutputPath writes the rendered report to a file when set.
	OutputPath string
	// NectarPath writes the monthly nectar profile as CSV when set.
	NectarPath string
}

// PaletteOutput contains the result of the PaletteSelect operation.
type PaletteOutput struct {
	Report     *report.Report  `json:"report"`
	Format     string          `json:"format"`
	Rendered   string          `json:"rendered,omitempty"`
	Candidates int             `json:"candidates"`
	Quotas     *palette.Quotas `json:"quotas,omitempty"`
	NectarMode string          `json:"nectar_mode"`
	Nectar     [12]float64     `json:"nectar_scores"`
	Path       string          `json:"path,omitempty"`
	NectarPath string          `json:"nectar_path,omitempty"`
	EventID    string          `json:"event_id,omitempty"`
}

// PaletteSelect filters the catalog, selects a palette and renders it.
func PaletteSelect(ctx context.Context, env *Env, input PaletteInput) (*PaletteOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("palette selection")
	}

	req, err := BuildRequest(env, input)
	if err != nil {
		return nil, err
	}
	format, err := report.ParseFormat(input.Format)
	if err != nil {
		return nil, err
	}
	if input.OutputPath != "" && input.Format == "" {
		if f, err := report.ParseFormat(filepath.Ext(input.OutputPath)); err == nil {
			format = f
		}
	}
	mode, err := palette.ParseNectarMode(input.NectarMode)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	cat, err := loadCatalog(env.config())
	if err != nil {
		return nil, err
	}

	res, err := palette.Select(cat.Plants(), req)
	if err != nil {
		return nil, err
	}

	detail := input.Detail
	if detail == 0 {
		detail = DefaultDetail
	}
	if detail < 1 || detail > 5 {
		return nil, errors.NewInvalidRequest("detail must be between 1 and 5")
	}
	analysis := palette.Analyze(res, req.Seasons, palette.AnalysisOptions{
		Tone:   palette.Tone(strings.ToLower(input.Tone)),
		Detail: detail,
	})

	rep := report.New(res, analysis)
	out := &PaletteOutput{
		Report:     rep,
		Format:     string(format),
		Candidates: res.Candidates,
		Quotas:     req.Quotas,
		NectarMode: string(mode),
		Nectar:     palette.NormalizeScores(palette.NectarScores(res.Plants, mode)),
	}

	if format != report.FormatJSON || input.OutputPath != "" {
		data, err := rep.Render(format)
		if err != nil {
			return nil, err
		}
		if format != report.FormatJSON {
			out.Rendered = string(data)
		}
		if input.OutputPath != "" {
			if err := ValidatePath(input.OutputPath, PathCheckWrite, reportExts); err != nil {
				return nil, err
			}
			if err := writeFileAtomic(input.OutputPath, data); err != nil {
				return nil, err
			}
			out.Path = input.OutputPath
		}
	}

	if input.NectarPath != "" {
		if err := ValidatePath(input.NectarPath, PathCheckWrite, []string{".csv"}); err != nil {
			return nil, err
		}
		data, err := report.NectarCSV(out.Nectar)
		if err != nil {
			return nil, err
		}
		if err := writeFileAtomic(input.NectarPath, data); err != nil {
			return nil, err
		}
		out.NectarPath = input.NectarPath
	}

	names := make([]string, len(res.Plants))
	for i, p := range res.Plants {
		names[i] = p.Name
	}
	out.EventID = env.record(ctx, &eventlog.Event{
		Kind: eventlog.KindPalette,
		Params: map[string]any{
			"seasons":    catalog.Names(req.Seasons),
			"exposures":  catalog.Names(req.Exposures),
			"max_plants": req.MaxPlants,
			"strategy":   string(res.Strategy),
		},
		Output: &eventlog.Output{Text: strings.Join(names, ", ")},
		Meta: map[string]any{
			"covered":    rep.Covered,
			"uncovered":  rep.Uncovered,
			"candidates": res.Candidates,
		},
	})
	return out, nil
}

// BuildRequest turns an input into a selection request, applying the
// configured defaults.
func BuildRequest(env *Env, input PaletteInput) (palette.Request, error) {
	cfg := env.config()
	var req palette.Request

	seasonNames := cleanList(input.Seasons)
	if len(seasonNames) == 0 {
		seasonNames = []string{"winter", "spring", "summer", "autumn"}
	}
	seasons, err := catalog.ParseSet(seasonNames, catalog.ParseSeason)
	if err != nil {
		return req, errors.NewInvalidRequest(err.Error())
	}
	req.Seasons = seasons

	exposureNames := cleanList(input.Exposures)
	if len(exposureNames) == 0 {
		exposureNames = cfg.Exposures
	}
	exposures, err := catalog.ParseSet(exposureNames, catalog.ParseExposure)
	if err != nil {
		return req, errors.NewInvalidRequest(err.Error())
	}
	req.Exposures = exposures

	req.Height = catalog.HeightRange{Min: cfg.HeightMinCm, Max: cfg.HeightMaxCm}
	if input.HeightMinCm != nil {
		req.Height.Min = *input.HeightMinCm
	}
	if input.HeightMaxCm != nil {
		req.Height.Max = *input.HeightMaxCm
	}
	if req.Height.Max > 0 && req.Height.Min > req.Height.Max {
		return req, errors.NewInvalidRequest("height_min_cm must not exceed height_max_cm")
	}

	req.MaxPlants = cfg.MaxPlants
	if input.MaxPlants != nil {
		req.MaxPlants = *input.MaxPlants
	}
	if req.MaxPlants <= 0 {
		return req, errors.NewInvalidRequest("max_plants must be >= 1")
	}

	if input.Class != "" {
		class, err := catalog.ParsePlantClass(input.Class)
		if err != nil {
			return req, errors.NewInvalidRequest(err.Error())
		}
		req.Class = &class
	}

	avoidInvasive := cfg.AvoidInvasive
	if input.AvoidInvasive != nil {
		avoidInvasive = *input.AvoidInvasive
	}
	req.Filters = palette.Filters{
		LowMaintenanceOnly:  input.LowMaintenanceOnly,
		RequireDrainingSoil: input.RequireDrainingSoil,
		DroughtTolerantOnly: input.DroughtTolerantOnly,
		AvoidSpreadingRoots: input.AvoidSpreadingRoots,
		AvoidInvasive:       avoidInvasive,
		InvasiveMarkers:     cfg.InvasiveMarkers,
		Exclude:             cleanList(input.Exclude),
	}

	switch palette.Strategy(strings.ToLower(strings.TrimSpace(input.Strategy))) {
	case "", palette.StrategyGreedy:
		if input.Quotas != nil {
			return req, errors.NewInvalidRequest("quotas require the balanced strategy")
		}
	case palette.StrategyBalanced:
		if input.Quotas != nil {
			q := *input.Quotas
			req.Quotas = &q
			break
		}
		strata, err := parseStrata(input.Strata)
		if err != nil {
			return req, err
		}
		q := palette.BalancedQuotas(req.MaxPlants, strata)
		req.Quotas = &q
	default:
		return req, errors.NewInvalidRequest(fmt.Sprintf("unknown strategy %q (want greedy or balanced)", input.Strategy))
	}

	return req, nil
}

// DefaultReportPath names a report file in <baseDir>/exports, e.g.
// exports/palette-winter-summer-2025-10-15T141203.html.
func DefaultReportPath(baseDir, label string, format report.Format, now time.Time) string {
	ext := map[report.Format]string{
		report.FormatCSV:      ".csv",
		report.FormatJSON:     ".json",
		report.FormatMarkdown: ".md",
		report.FormatHTML:     ".html",
	}[format]
	if ext == "" {
		ext = ".json"
	}
	name := "palette-" + SanitizeForFilename(strings.ToLower(label)) + "-" + now.Format("2006-01-02T150405") + ext
	return filepath.Join(baseDir, "exports", name)
}

func parseStrata(names []string) ([]catalog.Stratum, error) {
	names = cleanList(names)
	if len(names) == 0 {
		return []catalog.Stratum{catalog.StratumLow, catalog.StratumMedium, catalog.StratumHigh}, nil
	}
	strata := make([]catalog.Stratum, 0, len(names))
	for _, n := range names {
		s, err := catalog.ParseStratum(n)
		if err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		strata = append(strata, s)
	}
	return strata, nil
}

// CatalogEntry is a catalog record plus its derived attributes.
type CatalogEntry struct {
	catalog.PlantDoc
	Seasons []string `json:"seasons"`
	Stratum string   `json:"stratum"`
}

// CatalogListInput contains parameters for the CatalogList operation.
type CatalogListInput struct {
	Name    string // exact plant name, case-insensitive; NOT_FOUND when absent
	Class   string // optional filter
	Season  string // optional filter
	Stratum string // optional filter
}

// CatalogListOutput contains the result of the CatalogList operation.
type CatalogListOutput struct {
	Source string         `json:"source"`
	Plants []CatalogEntry `json:"plants"`
	Count  int            `json:"count"`
}

// CatalogList returns the active catalog, optionally filtered.
func CatalogList(env *Env, input CatalogListInput) (*CatalogListOutput, error) {
	cfg := env.config()
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	var class *catalog.PlantClass
	if input.Class != "" {
		c, err := catalog.ParsePlantClass(input.Class)
		if err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		class = &c
	}
	var season *catalog.Season
	if input.Season != "" {
		s, err := catalog.ParseSeason(input.Season)
		if err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		season = &s
	}
	var stratum *catalog.Stratum
	if input.Stratum != "" {
		s, err := catalog.ParseStratum(input.Stratum)
		if err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		stratum = &s
	}

	out := &CatalogListOutput{Source: "builtin", Plants: []CatalogEntry{}}
	if cfg.CatalogPath != "" {
		out.Source = cfg.CatalogPath
	}
	plants := cat.Plants()
	if name := strings.TrimSpace(input.Name); name != "" {
		p, ok := cat.Lookup(name)
		if !ok {
			return nil, errors.NewNotFound("plant", name)
		}
		plants = []catalog.Plant{p}
	}

	for _, p := range plants {
		if class != nil && p.Class != *class {
			continue
		}
		if season != nil && !p.Seasons().Has(*season) {
			continue
		}
		if stratum != nil && p.Stratum() != *stratum {
			continue
		}
		out.Plants = append(out.Plants, CatalogEntry{
			PlantDoc: catalog.DocOf(p),
			Seasons:  catalog.Names(p.Seasons()),
			Stratum:  p.Stratum().String(),
		})
	}
	out.Count = len(out.Plants)
	return out, nil
}

// CatalogSchema returns the JSON Schema of catalog files.
func CatalogSchema() (map[string]any, error) {
	doc, err := catalog.SchemaDocument()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return doc, nil
}
