// Package catalog holds the read-only plant catalog consumed by the
// palette selector: record types, derived attributes, the embedded
// built-in catalog, and JSON/YAML catalog files.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/botan/internal/errors"
)

//go:embed plants.yaml
var builtinYAML []byte

var builtin = mustParse(builtinYAML)

// Catalog is an immutable, ordered collection of plants with unique names.
// Catalog order is the tie-break order used by the selector.
type Catalog struct {
	plants []Plant
	index  map[string]int
}

// New validates plants and builds a catalog. The slice is copied.
func New(plants []Plant) (*Catalog, error) {
	c := &Catalog{
		plants: slices.Clone(plants),
		index:  make(map[string]int, len(plants)),
	}
	for i, p := range c.plants {
		if err := Validate(p); err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		key := nameKey(p.Name)
		if _, dup := c.index[key]; dup {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("duplicate plant name %q", p.Name))
		}
		c.index[key] = i
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return builtin
}

// Plants returns a copy of the catalog in catalog order.
func (c *Catalog) Plants() []Plant {
	return slices.Clone(c.plants)
}

// Len returns the number of plants.
func (c *Catalog) Len() int {
	return len(c.plants)
}

// Lookup finds a plant by name, case-insensitively.
func (c *Catalog) Lookup(name string) (Plant, bool) {
	i, ok := c.index[nameKey(name)]
	if !ok {
		return Plant{}, false
	}
	return c.plants[i], true
}

// Validate checks a single record's invariants.
func Validate(p Plant) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("plant name is required")
	case p.BloomMonths.Len() == 0:
		return fmt.Errorf("plant %q: bloom months must not be empty", p.Name)
	case p.Exposure.Empty():
		return fmt.Errorf("plant %q: exposure must not be empty", p.Name)
	case p.Soil.Empty():
		return fmt.Errorf("plant %q: soil must not be empty", p.Name)
	case p.Height.Min <= 0 || p.Height.Max <= 0:
		return fmt.Errorf("plant %q: heights must be positive", p.Name)
	case p.Height.Min > p.Height.Max:
		return fmt.Errorf("plant %q: height min %d exceeds max %d", p.Name, p.Height.Min, p.Height.Max)
	}
	return nil
}

// Parse decodes a catalog document. format is "json" or "yaml".
// Unknown fields are rejected.
func Parse(data []byte, format string) (*Catalog, error) {
	var file File
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, errors.NewParseError("json", err)
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return nil, errors.NewParseError("yaml", err)
		}
	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unsupported catalog format %q", format))
	}

	plants := make([]Plant, 0, len(file.Plants))
	for _, d := range file.Plants {
		p, err := d.ToPlant()
		if err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		plants = append(plants, p)
	}
	return New(plants)
}

// LoadFile reads a catalog from a .json, .yaml or .yml file.
func LoadFile(path string) (*Catalog, error) {
	var format string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		format = "json"
	case ".yaml", ".yml":
		format = "yaml"
	default:
		return nil, errors.NewInvalidRequest("catalog file must have extension .json, .yaml or .yml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, errors.NewInternal(err)
	}
	return Parse(data, format)
}

// Encode serializes a catalog as a File document in the given format.
func Encode(c *Catalog, format string) ([]byte, error) {
	file := File{Plants: make([]PlantDoc, len(c.plants))}
	for i, p := range c.plants {
		file.Plants[i] = DocOf(p)
	}
	switch format {
	case "json":
		return json.MarshalIndent(file, "", "  ")
	case "yaml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(file); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unsupported catalog format %q", format))
	}
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func mustParse(data []byte) *Catalog {
	c, err := Parse(data, "yaml")
	if err != nil {
		panic(fmt.Sprintf("built-in catalog: %v", err))
	}
	return c
}
