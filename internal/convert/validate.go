package convert

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/hpungsan/botan/internal/catalog"
	"github.com/hpungsan/botan/internal/errors"
)

// Violation is one schema failure.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Validate checks doc against schema. Both are plain Go values (maps,
// slices, scalars). An empty slice means the document is valid.
func Validate(schema, doc any) ([]Violation, error) {
	res, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid schema: %v", err))
	}

	out := make([]Violation, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		out = append(out, Violation{Path: RenderPath(e.Context().String()), Message: e.Description()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Message < out[j].Message
	})
	return out, nil
}

// RenderPath turns "(root).items.3.name" into "root.items[3].name".
func RenderPath(ctx string) string {
	parts := strings.Split(ctx, ".")
	var b strings.Builder
	for i, p := range parts {
		switch {
		case i == 0 && p == "(root)":
			b.WriteString("root")
		case isIndex(p):
			b.WriteString("[" + p + "]")
		default:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(p)
		}
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CatalogSchema is the JSON Schema of catalog files as a plain document.
func CatalogSchema() (map[string]any, error) {
	doc, err := catalog.SchemaDocument()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return doc, nil
}

// ValidateCatalog checks a parsed catalog document against CatalogSchema.
func ValidateCatalog(doc any) ([]Violation, error) {
	schema, err := CatalogSchema()
	if err != nil {
		return nil, err
	}
	return Validate(schema, doc)
}
