package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// File is the on-disk catalog document (JSON or YAML).
type File struct {
	Plants []PlantDoc `json:"plants" yaml:"plants" jsonschema:"minItems=1"`
}

// PlantDoc is the serialized form of a Plant. Enumerations use canonical
// English names; French aliases are accepted when decoding.
type PlantDoc struct {
	Name        string    `json:"name" yaml:"name" jsonschema:"minLength=1"`
	Class       string    `json:"class" yaml:"class" jsonschema:"enum=shrub,enum=perennial"`
	Color       string    `json:"color,omitempty" yaml:"color,omitempty"`
	BloomMonths []int     `json:"bloom_months" yaml:"bloom_months" jsonschema:"minItems=1,uniqueItems=true"`
	Exposure    []string  `json:"exposure" yaml:"exposure" jsonschema:"minItems=1,uniqueItems=true"`
	HeightCm    HeightDoc `json:"height_cm" yaml:"height_cm"`
	Maintenance string    `json:"maintenance" yaml:"maintenance" jsonschema:"enum=low,enum=medium,enum=high"`
	Soil        []string  `json:"soil" yaml:"soil" jsonschema:"minItems=1,uniqueItems=true"`
	Drought     string    `json:"drought" yaml:"drought" jsonschema:"enum=good,enum=medium,enum=poor"`
	Roots       string    `json:"roots" yaml:"roots" jsonschema:"enum=fibrous,enum=suckering,enum=spreading"`
	RootNotes   string    `json:"root_notes,omitempty" yaml:"root_notes,omitempty"`
	Notes       string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	Nectar      float64   `json:"nectar,omitempty" yaml:"nectar,omitempty" jsonschema:"minimum=0"`
}

// HeightDoc is a height range in centimetres.
type HeightDoc struct {
	Min int `json:"min" yaml:"min" jsonschema:"minimum=1"`
	Max int `json:"max" yaml:"max" jsonschema:"minimum=1"`
}

// ToPlant converts and validates a document record.
func (d PlantDoc) ToPlant() (Plant, error) {
	p := Plant{
		Name:        strings.TrimSpace(d.Name),
		Color:       d.Color,
		BloomMonths: MonthsOf(d.BloomMonths...),
		Height:      HeightRange{Min: d.HeightCm.Min, Max: d.HeightCm.Max},
		RootNotes:   d.RootNotes,
		Notes:       d.Notes,
		Nectar:      d.Nectar,
	}
	if p.Nectar == 0 {
		p.Nectar = 1.0
	}

	for _, m := range d.BloomMonths {
		if m < 1 || m > 12 {
			return Plant{}, fmt.Errorf("plant %q: bloom month %d out of range 1..12", p.Name, m)
		}
	}

	var err error
	if p.Class, err = ParsePlantClass(d.Class); err != nil {
		return Plant{}, fmt.Errorf("plant %q: %w", p.Name, err)
	}
	if p.Exposure, err = ParseSet(d.Exposure, ParseExposure); err != nil {
		return Plant{}, fmt.Errorf("plant %q: %w", p.Name, err)
	}
	if p.Soil, err = ParseSet(d.Soil, ParseSoil); err != nil {
		return Plant{}, fmt.Errorf("plant %q: %w", p.Name, err)
	}
	if p.Maintenance, err = ParseMaintenance(d.Maintenance); err != nil {
		return Plant{}, fmt.Errorf("plant %q: %w", p.Name, err)
	}
	if p.Drought, err = ParseDrought(d.Drought); err != nil {
		return Plant{}, fmt.Errorf("plant %q: %w", p.Name, err)
	}
	if p.Roots, err = ParseRootBehavior(d.Roots); err != nil {
		return Plant{}, fmt.Errorf("plant %q: %w", p.Name, err)
	}

	if err := Validate(p); err != nil {
		return Plant{}, err
	}
	return p, nil
}

// DocOf converts a Plant to its serialized form.
func DocOf(p Plant) PlantDoc {
	return PlantDoc{
		Name:        p.Name,
		Class:       p.Class.String(),
		Color:       p.Color,
		BloomMonths: p.BloomMonths.Months(),
		Exposure:    Names(p.Exposure),
		HeightCm:    HeightDoc{Min: p.Height.Min, Max: p.Height.Max},
		Maintenance: p.Maintenance.String(),
		Soil:        Names(p.Soil),
		Drought:     p.Drought.String(),
		Roots:       p.Roots.String(),
		RootNotes:   p.RootNotes,
		Notes:       p.Notes,
		Nectar:      p.Nectar,
	}
}

// MarshalJSON encodes a Plant in catalog document form.
func (p Plant) MarshalJSON() ([]byte, error) {
	return json.Marshal(DocOf(p))
}

// UnmarshalJSON decodes and validates a catalog document record.
func (p *Plant) UnmarshalJSON(data []byte) error {
	var d PlantDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	plant, err := d.ToPlant()
	if err != nil {
		return err
	}
	*p = plant
	return nil
}

// Schema returns the JSON Schema of the catalog file format.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	s := r.Reflect(&File{})
	s.Version = ""
	s.Title = "botan plant catalog"
	return s
}

// SchemaDocument returns Schema as a generic JSON document, suitable for
// the format validator.
func SchemaDocument() (map[string]any, error) {
	b, err := json.Marshal(Schema())
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
