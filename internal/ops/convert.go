package ops

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hpungsan/botan/internal/convert"
	"github.com/hpungsan/botan/internal/errors"
)

// ConvertInput contains parameters for the ConvertFile operation.
type ConvertInput struct {
	Src string
	// Dst defaults to Src with the target format's extension.
	Dst string
	// To is the target format. Empty means the opposite of the source, or
	// the format implied by Dst.
	To string
}

// ConvertOutput contains the result of the ConvertFile operation.
type ConvertOutput struct {
	Src   string `json:"src"`
	Dst   string `json:"dst"`
	From  string `json:"from"`
	To    string `json:"to"`
	Bytes int    `json:"bytes"`
}

// ConvertFile converts a JSON document to YAML or back, writing the result
// next to the source unless Dst is given.
func ConvertFile(input ConvertInput) (*ConvertOutput, error) {
	if err := ValidatePath(input.Src, PathCheckRead, documentExts); err != nil {
		return nil, err
	}
	from, err := convert.Detect(input.Src)
	if err != nil {
		return nil, err
	}

	var to convert.Format
	switch {
	case input.To != "":
		if to, err = convert.ParseFormat(input.To); err != nil {
			return nil, err
		}
	case input.Dst != "":
		if to, err = convert.Detect(input.Dst); err != nil {
			return nil, err
		}
	default:
		to = from.Opposite()
	}

	dst := input.Dst
	if dst == "" {
		dst = strings.TrimSuffix(input.Src, filepath.Ext(input.Src)) + to.Ext()
	}
	if filepath.Clean(dst) == filepath.Clean(input.Src) {
		return nil, errors.NewInvalidRequest("destination must differ from source")
	}
	if err := ValidatePath(dst, PathCheckWrite, documentExts); err != nil {
		return nil, err
	}

	data, err := readFileNoFollow(input.Src)
	if err != nil {
		return nil, err
	}
	out, err := convert.Convert(data, from, to)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(dst, out); err != nil {
		return nil, err
	}

	return &ConvertOutput{
		Src:   input.Src,
		Dst:   dst,
		From:  string(from),
		To:    string(to),
		Bytes: len(out),
	}, nil
}

// ConvertTextInput contains parameters for the ConvertText operation.
type ConvertTextInput struct {
	Data string
	From string
	To   string // default: opposite of From
}

// ConvertTextOutput contains the result of the ConvertText operation.
type ConvertTextOutput struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Output string `json:"output"`
}

// ConvertText converts an in-memory document.
func ConvertText(input ConvertTextInput) (*ConvertTextOutput, error) {
	if len(input.Data) > MaxInputBytes {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("document exceeds %d bytes", MaxInputBytes))
	}
	from, err := convert.ParseFormat(input.From)
	if err != nil {
		return nil, err
	}
	to := from.Opposite()
	if input.To != "" {
		if to, err = convert.ParseFormat(input.To); err != nil {
			return nil, err
		}
	}
	out, err := convert.Convert([]byte(input.Data), from, to)
	if err != nil {
		return nil, err
	}
	return &ConvertTextOutput{From: string(from), To: string(to), Output: string(out)}, nil
}

// ValidateInput contains parameters for the ValidateDocument operation.
// The document comes from Path, or from Data in Format. The schema comes
// from SchemaPath, or Schema; with neither, the catalog schema is used.
type ValidateInput struct {
	Path       string
	Data       string
	Format     string
	SchemaPath string
	Schema     map[string]any
}

// ValidateOutput contains the result of the ValidateDocument operation.
type ValidateOutput struct {
	Valid      bool                `json:"valid"`
	Schema     string              `json:"schema"`
	Violations []convert.Violation `json:"violations"`
}

// ValidateDocument checks a JSON or YAML document against a JSON Schema.
// Violations are a result, not an error.
func ValidateDocument(input ValidateInput) (*ValidateOutput, error) {
	doc, err := loadDocument(input.Path, input.Data, input.Format)
	if err != nil {
		return nil, err
	}

	var violations []convert.Violation
	schemaName := "catalog"
	switch {
	case input.SchemaPath != "":
		var schema any
		if schema, err = loadDocument(input.SchemaPath, "", ""); err != nil {
			return nil, err
		}
		schemaName = input.SchemaPath
		violations, err = convert.Validate(schema, doc)
	case input.Schema != nil:
		schemaName = "inline"
		violations, err = convert.Validate(input.Schema, doc)
	default:
		violations, err = convert.ValidateCatalog(doc)
	}
	if err != nil {
		return nil, err
	}
	return &ValidateOutput{Valid: len(violations) == 0, Schema: schemaName, Violations: violations}, nil
}

func loadDocument(path, data, format string) (any, error) {
	var raw []byte
	var f convert.Format
	var err error
	switch {
	case path != "":
		if err := ValidatePath(path, PathCheckRead, documentExts); err != nil {
			return nil, err
		}
		if f, err = convert.Detect(path); err != nil {
			return nil, err
		}
		if raw, err = readFileNoFollow(path); err != nil {
			return nil, err
		}
	case data != "":
		if format == "" {
			format = sniffFormat(data)
		}
		if f, err = convert.ParseFormat(format); err != nil {
			return nil, err
		}
		raw = []byte(data)
	default:
		return nil, errors.NewInvalidRequest("a document path or inline data is required")
	}

	node, err := convert.Parse(raw, f)
	if err != nil {
		return nil, err
	}
	return convert.Decode(node)
}

// sniffFormat guesses JSON for data that is valid JSON, YAML otherwise.
func sniffFormat(data string) string {
	if json.Valid([]byte(data)) {
		return string(convert.JSON)
	}
	return string(convert.YAML)
}
