package llm

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/hpungsan/botan/internal/errors"
)

// Template is a named system/user prompt pair with {name} placeholders.
type Template struct {
	Name   string `json:"name"`
	System string `json:"system"`
	User   string `json:"user"`
}

// Rendered is a template with every placeholder filled.
type Rendered struct {
	System string `json:"system"`
	User   string `json:"user"`
}

var templates = map[string]Template{
	"summary": {
		Name:   "summary",
		System: "You are a clear and factual assistant.",
		User:   "Summarize the following text in at most {n_sentences} sentence(s), concise style:\n----\n{context}\n----",
	},
	"qa": {
		Name:   "qa",
		System: "You are an expert teacher. Answer precisely and in a structured way.",
		User:   "Question: {question}\nContext (optional): {context}\n\nGive a direct, short answer (then detail if useful).",
	},
	"translation": {
		Name: "translation",
		System: "You are a professional translator. Reply only with the exact translation, " +
			"without rephrasing, explanation or quotes. Keep the case and punctuation of sentences.",
		User: "Translate the following text into {target_lang}:\n----\n{text}\n----\nReply only with the translation.",
	},
	"explain": {
		Name: "explain",
		System: "You are a patient and clear teacher. Explain the given concept or question simply, " +
			"for a curious audience, without needless jargon.",
		User: "Explain the following topic concisely and understandably:\n----\n{topic}\n----",
	},
	"simplify": {
		Name: "simplify",
		System: "You are an educational writer. Rephrase the text so it is clearer, smoother and understandable by all. " +
			"Do not change the meaning, but simplify syntax and vocabulary where needed.",
		User: "Simplify the following text while keeping its meaning:\n----\n{text}\n----",
	},
}

var placeholder = regexp.MustCompile(`\{([a-z_][a-z0-9_]*)\}`)

// TemplateNames lists the built-in templates in sorted order.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for n := range templates {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// LookupTemplate returns a built-in template by name.
func LookupTemplate(name string) (Template, error) {
	t, ok := templates[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Template{}, errors.NewNotFound("template", name)
	}
	return t, nil
}

// Variables lists the placeholders used by t, sorted and deduped.
func (t Template) Variables() []string {
	var vars []string
	for _, s := range []string{t.System, t.User} {
		for _, m := range placeholder.FindAllStringSubmatch(s, -1) {
			vars = append(vars, m[1])
		}
	}
	slices.Sort(vars)
	return slices.Compact(vars)
}

// Render fills every placeholder from vars. Missing variables are reported
// together as INVALID_REQUEST.
func (t Template) Render(vars map[string]string) (*Rendered, error) {
	var missing []string
	for _, v := range t.Variables() {
		if _, ok := vars[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("missing variable(s) for template %q: %s", t.Name, strings.Join(missing, ", ")))
	}
	fill := func(s string) string {
		return placeholder.ReplaceAllStringFunc(s, func(m string) string {
			return vars[m[1:len(m)-1]]
		})
	}
	return &Rendered{System: fill(t.System), User: fill(t.User)}, nil
}
