// Package convert translates documents between JSON and YAML, preserving
// key order, and validates them against JSON Schema.
package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/botan/internal/errors"
)

// Format is a document format.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// Detect infers the format from a file extension.
func Detect(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return "", errors.NewInvalidRequest(fmt.Sprintf("unrecognized format for %q (want .json, .yaml or .yml)", path))
	}
}

// ParseFormat validates a format name. "yml" is accepted.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", errors.NewInvalidRequest(fmt.Sprintf("unsupported format %q (want json or yaml)", s))
	}
}

// Opposite returns the format a document converts to by default.
func (f Format) Opposite() Format {
	if f == JSON {
		return YAML
	}
	return JSON
}

// Ext returns the canonical file extension.
func (f Format) Ext() string {
	return "." + string(f)
}

// Parse decodes data into an order-preserving node tree.
func Parse(data []byte, format Format) (*yaml.Node, error) {
	if format == JSON && !json.Valid(data) {
		var probe any
		err := json.Unmarshal(data, &probe)
		return nil, errors.NewParseError("json", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewParseError(string(format), err)
	}
	if doc.Kind == 0 {
		return nil, errors.NewParseError(string(format), fmt.Errorf("empty document"))
	}
	return &doc, nil
}

// Marshal encodes a node tree. JSON uses a 2-space indent and leaves <, >
// and & unescaped; YAML uses a 2-space indent.
func Marshal(doc *yaml.Node, format Format) ([]byte, error) {
	switch format {
	case JSON:
		var compact bytes.Buffer
		if err := writeJSON(&compact, doc); err != nil {
			return nil, err
		}
		var out bytes.Buffer
		if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
			return nil, errors.NewInternal(err)
		}
		out.WriteByte('\n')
		return out.Bytes(), nil
	case YAML:
		plainStyle(doc)
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := enc.Close(); err != nil {
			return nil, errors.NewInternal(err)
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unsupported format %q", format))
	}
}

// Convert parses data in one format and re-encodes it in another.
func Convert(data []byte, from, to Format) ([]byte, error) {
	doc, err := Parse(data, from)
	if err != nil {
		return nil, err
	}
	return Marshal(doc, to)
}

// Decode turns a node tree into plain Go values for validation.
func Decode(doc *yaml.Node) (any, error) {
	var v any
	if err := doc.Decode(&v); err != nil {
		return nil, errors.NewParseError("yaml", err)
	}
	return v, nil
}

// plainStyle drops the flow and quoting styles a JSON source leaves on the
// tree so the YAML output is block style. Strings that need quotes get them
// from the encoder.
func plainStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		plainStyle(c)
	}
}

// writeJSON emits n as compact JSON in document order.
func writeJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeJSON(buf, n.Content[0])
	case yaml.AliasNode:
		return writeJSON(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeScalar(buf, n.Content[i].Value); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return errors.NewParseError("yaml", err)
		}
		return writeScalar(buf, v)
	default:
		return errors.NewParseError("yaml", fmt.Errorf("unsupported node kind %d", n.Kind))
	}
}

func writeScalar(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return errors.NewParseError("json", err)
	}
	// Encode appends a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
