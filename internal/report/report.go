// Package report renders palette selections as CSV, JSON, Markdown or HTML.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/botan/internal/catalog"
	"github.com/hpungsan/botan/internal/errors"
	"github.com/hpungsan/botan/internal/palette"
)

// Format is an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return FormatCSV, nil
	case "", "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", errors.NewInvalidRequest(fmt.Sprintf("unsupported report format %q (want csv, json, markdown or html)", s))
	}
}

// Row is one exported plant.
type Row struct {
	Rank        int    `json:"rank"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Calendar    string `json:"bloom_months_1_12"`
	Seasons     string `json:"seasons"`
	Exposure    string `json:"exposure"`
	HeightCm    string `json:"height_cm"`
	RootNotes   string `json:"root_notes"`
	Notes       string `json:"notes"`
	Maintenance string `json:"maintenance"`
	Soil        string `json:"soil"`
	Drought     string `json:"drought"`
	RootType    string `json:"root_type"`
	Class       string `json:"class"`
	Stratum     string `json:"stratum"`
}

var csvHeader = []string{
	"rank", "name", "color", "bloom_months_1_12", "seasons", "exposure", "height_cm",
	"root_notes", "notes", "maintenance", "soil", "drought", "root_type", "class", "stratum",
}

func (r Row) record() []string {
	return []string{
		strconv.Itoa(r.Rank), r.Name, r.Color, r.Calendar, r.Seasons, r.Exposure, r.HeightCm,
		r.RootNotes, r.Notes, r.Maintenance, r.Soil, r.Drought, r.RootType, r.Class, r.Stratum,
	}
}

// Rows converts plants to rows ranked from 1 in selection order.
func Rows(plants []catalog.Plant) []Row {
	rows := make([]Row, len(plants))
	for i, p := range plants {
		rows[i] = Row{
			Rank:        i + 1,
			Name:        p.Name,
			Color:       p.Color,
			Calendar:    catalog.CalendarLine(p.BloomMonths),
			Seasons:     strings.Join(catalog.Names(p.Seasons()), ", "),
			Exposure:    strings.Join(catalog.Names(p.Exposure), ", "),
			HeightCm:    fmt.Sprintf("%d–%d", p.Height.Min, p.Height.Max),
			RootNotes:   p.RootNotes,
			Notes:       p.Notes,
			Maintenance: p.Maintenance.String(),
			Soil:        strings.Join(catalog.Names(p.Soil), ", "),
			Drought:     p.Drought.String(),
			RootType:    p.Roots.String(),
			Class:       p.Class.String(),
			Stratum:     p.Stratum().String(),
		}
	}
	return rows
}

// Report is a rendered palette: rows plus the analysis text.
type Report struct {
	Rows      []Row    `json:"rows"`
	Covered   []string `json:"covered"`
	Uncovered []string `json:"uncovered"`
	Strategy  string   `json:"strategy"`
	Analysis  string   `json:"analysis,omitempty"`
}

// New builds a report from a selection result.
func New(res *palette.Result, analysis string) *Report {
	return &Report{
		Rows:      Rows(res.Plants),
		Covered:   catalog.Names(res.Covered),
		Uncovered: catalog.Names(res.Uncovered),
		Strategy:  string(res.Strategy),
		Analysis:  analysis,
	}
}

// Render encodes the report in the given format.
func (r *Report) Render(format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return r.CSV()
	case FormatJSON:
		return json.MarshalIndent(r, "", "  ")
	case FormatMarkdown:
		return []byte(r.Markdown()), nil
	case FormatHTML:
		return r.HTML()
	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unsupported report format %q", format))
	}
}

// CSV writes a header line and one record per row.
func (r *Report) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, row := range r.Rows {
		if err := w.Write(row.record()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Markdown renders the analysis followed by a table of rows.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Palette\n\n")
	if r.Analysis != "" {
		b.WriteString(strings.TrimRight(r.Analysis, "\n"))
		b.WriteString("\n\n")
	}
	if len(r.Rows) == 0 {
		b.WriteString("_No plant selected._\n")
		return b.String()
	}
	b.WriteString("| # | Name | Bloom (1→12) | Seasons | Exposure | Height (cm) | Stratum | Maintenance |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, row := range r.Rows {
		fmt.Fprintf(&b, "| %d | %s | `%s` | %s | %s | %s | %s | %s |\n",
			row.Rank, cell(row.Name), row.Calendar, row.Seasons, row.Exposure,
			row.HeightCm, row.Stratum, row.Maintenance)
	}
	return b.String()
}

// HTML renders Markdown as a standalone HTML document.
func (r *Report) HTML() ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := md.Convert([]byte(r.Markdown()), &body); err != nil {
		return nil, errors.NewInternal(err)
	}
	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Palette</title>\n</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// NectarCSV writes month,score lines for months 1..12.
func NectarCSV(scores [12]float64) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"month", "score"}); err != nil {
		return nil, err
	}
	for i, s := range scores {
		if err := w.Write([]string{strconv.Itoa(i + 1), strconv.FormatFloat(s, 'f', -1, 64)}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
