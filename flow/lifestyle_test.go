package flow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifestylePrompt(t *testing.T) {
	tmpl := DefaultLifestyleTemplate()

	prompt := tmpl.Prompt("a sunny balcony", "woman holding")
	assert.True(t, strings.HasPrefix(prompt, tmpl.Contexts["woman holding"]+" "+tmpl.ProductDescription+"."))
	assert.Contains(t, prompt, "Scene details: a sunny balcony.")
	for _, c := range tmpl.Constraints {
		assert.Contains(t, prompt, c)
	}

	unknown := tmpl.Prompt("", "on the moon")
	assert.True(t, strings.HasPrefix(unknown, tmpl.Contexts[tmpl.DefaultContext]))
	assert.NotContains(t, unknown, "Scene details")
}

func TestDefaultLifestyleTemplateIsFresh(t *testing.T) {
	a := DefaultLifestyleTemplate()
	a.Contexts["woman holding"] = "changed"
	b := DefaultLifestyleTemplate()
	assert.NotEqual(t, "changed", b.Contexts["woman holding"])
}

func TestParseLifestyleTemplate(t *testing.T) {
	tmpl, err := ParseLifestyleTemplate([]byte(`
product_description: a white ceramic travel mug with a bamboo lid
contexts:
  Kitchen: A warm morning kitchen scene with
default_context: kitchen
`))
	require.NoError(t, err)

	assert.Equal(t, "a white ceramic travel mug with a bamboo lid", tmpl.ProductDescription)
	assert.Equal(t, "kitchen", tmpl.DefaultContext)
	assert.Contains(t, tmpl.Contexts, "woman holding")
	assert.Equal(t, DefaultLifestyleTemplate().Constraints, tmpl.Constraints)
	assert.True(t, strings.HasPrefix(tmpl.Prompt("", "unknown"), "A warm morning kitchen scene with a white ceramic"))
}

func TestParseLifestyleTemplateErrors(t *testing.T) {
	_, err := ParseLifestyleTemplate([]byte("contexts: [not, a, map]"))
	assert.Error(t, err)

	_, err = ParseLifestyleTemplate([]byte("default_context: underwater"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "underwater")
}

func TestLoadLifestyleTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifestyle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("constraints:\n  - Keep it simple.\n"), 0o644))

	tmpl, err := LoadLifestyleTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Keep it simple."}, tmpl.Constraints)

	_, err = LoadLifestyleTemplate(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
