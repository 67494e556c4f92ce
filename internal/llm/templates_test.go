package llm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/botan/internal/errors"
)

func TestTemplateNames(t *testing.T) {
	require.Equal(t, []string{"explain", "qa", "simplify", "summary", "translation"}, TemplateNames())
}

func TestLookupTemplate(t *testing.T) {
	tpl, err := LookupTemplate(" QA ")
	require.NoError(t, err)
	require.Equal(t, "qa", tpl.Name)
	require.Equal(t, []string{"context", "question"}, tpl.Variables())

	_, err = LookupTemplate("poem")
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestTemplate_Render(t *testing.T) {
	tpl, err := LookupTemplate("summary")
	require.NoError(t, err)

	r, err := tpl.Render(map[string]string{"n_sentences": "2", "context": "Bees love lavender."})
	require.NoError(t, err)
	require.Equal(t, "You are a clear and factual assistant.", r.System)
	require.Equal(t, "Summarize the following text in at most 2 sentence(s), concise style:\n----\nBees love lavender.\n----", r.User)
}

func TestTemplate_RenderMissing(t *testing.T) {
	tpl, err := LookupTemplate("translation")
	require.NoError(t, err)

	_, err = tpl.Render(map[string]string{"text": "bonjour"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	require.Contains(t, err.Error(), "target_lang")
}

func TestTemplate_EmptyValueAllowed(t *testing.T) {
	tpl, err := LookupTemplate("qa")
	require.NoError(t, err)

	r, err := tpl.Render(map[string]string{"question": "why?", "context": ""})
	require.NoError(t, err)
	require.Contains(t, r.User, "Context (optional): \n")
}
