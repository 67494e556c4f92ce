package ops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/botan/internal/errors"
)

const helleboreYAML = `plants:
  - name: Hellebore
    class: perennial
    bloom_months: [1, 2, 3]
    exposure: [shade]
    height_cm: {min: 30, max: 50}
    maintenance: low
    soil: [normal]
    drought: medium
    roots: fibrous
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestConvertFile_DefaultDestination(t *testing.T) {
	src := writeTemp(t, "garden.json", `{"zeta": 1, "alpha": [true, null]}`)

	out, err := ConvertFile(ConvertInput{Src: src})
	require.NoError(t, err)
	require.Equal(t, "json", out.From)
	require.Equal(t, "yaml", out.To)
	require.Equal(t, strings.TrimSuffix(src, ".json")+".yaml", out.Dst)

	data, err := os.ReadFile(out.Dst)
	require.NoError(t, err)
	require.Equal(t, "zeta: 1\nalpha:\n  - true\n  - null\n", string(data))
	require.Equal(t, len(data), out.Bytes)
}

func TestConvertFile_FormatFromDestination(t *testing.T) {
	src := writeTemp(t, "plants.yml", helleboreYAML)
	dst := filepath.Join(t.TempDir(), "out", "plants.json")

	out, err := ConvertFile(ConvertInput{Src: src, Dst: dst})
	require.NoError(t, err)
	require.Equal(t, "yaml", out.From)
	require.Equal(t, "json", out.To)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Contains(t, string(data), `"name": "Hellebore"`)
}

func TestConvertFile_Rejections(t *testing.T) {
	src := writeTemp(t, "doc.json", `{}`)

	_, err := ConvertFile(ConvertInput{Src: src, To: "json"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "same path: %v", err)

	_, err = ConvertFile(ConvertInput{Src: src, To: "toml"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = ConvertFile(ConvertInput{Src: src, Dst: filepath.Join(t.TempDir(), "doc.txt")})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = ConvertFile(ConvertInput{Src: filepath.Join(t.TempDir(), "missing.yaml")})
	require.True(t, errors.Is(err, errors.ErrFileNotFound))

	bad := writeTemp(t, "bad.json", `{"a": `)
	_, err = ConvertFile(ConvertInput{Src: bad})
	require.Error(t, err)
	_, statErr := os.Stat(strings.TrimSuffix(bad, ".json") + ".yaml")
	require.True(t, os.IsNotExist(statErr), "no output on parse failure")
}

func TestConvertText(t *testing.T) {
	out, err := ConvertText(ConvertTextInput{Data: "a: 1\nb: [x]\n", From: "yml"})
	require.NoError(t, err)
	require.Equal(t, "yaml", out.From)
	require.Equal(t, "json", out.To)
	require.JSONEq(t, `{"a": 1, "b": ["x"]}`, out.Output)

	_, err = ConvertText(ConvertTextInput{Data: "{}", From: ""})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestValidateDocument_Catalog(t *testing.T) {
	path := writeTemp(t, "plants.yaml", helleboreYAML)

	out, err := ValidateDocument(ValidateInput{Path: path})
	require.NoError(t, err)
	require.True(t, out.Valid, "violations: %v", out.Violations)
	require.Equal(t, "catalog", out.Schema)
	require.Empty(t, out.Violations)

	out, err = ValidateDocument(ValidateInput{Data: `{"plants": [{"name": 5}]}`})
	require.NoError(t, err)
	require.False(t, out.Valid)
	require.NotEmpty(t, out.Violations)
	for _, v := range out.Violations {
		require.True(t, strings.HasPrefix(v.Path, "root.plants[0]"), "path %q", v.Path)
	}
}

func TestValidateDocument_InlineSchema(t *testing.T) {
	schema := map[string]any{
		"type":     "object",
		"required": []any{"name"},
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
		},
	}

	out, err := ValidateDocument(ValidateInput{Data: "name: Sedum\n", Format: "yaml", Schema: schema})
	require.NoError(t, err)
	require.True(t, out.Valid)
	require.Equal(t, "inline", out.Schema)

	out, err = ValidateDocument(ValidateInput{Data: `{"other": 1}`, Schema: schema})
	require.NoError(t, err)
	require.False(t, out.Valid)
	require.Len(t, out.Violations, 1)
	require.Equal(t, "root", out.Violations[0].Path)
}

func TestValidateDocument_SchemaFile(t *testing.T) {
	schemaPath := writeTemp(t, "schema.json", `{"type": "array", "items": {"type": "integer"}}`)

	out, err := ValidateDocument(ValidateInput{Data: "[1, 2, \"three\"]", SchemaPath: schemaPath})
	require.NoError(t, err)
	require.False(t, out.Valid)
	require.Equal(t, schemaPath, out.Schema)
	require.Equal(t, "root[2]", out.Violations[0].Path)
}

func TestValidateDocument_NoDocument(t *testing.T) {
	_, err := ValidateDocument(ValidateInput{})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}
