package fragment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor(t *testing.T) {
	t.Run("file wins over inline text", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "colors.yml", "From file\n---\ntags: [file]\n")
		e := &Extractor{Loader: NewLoader(dir)}

		doc, err := e.Extract("colors", "get", File("colors.yml"), Inline("From text\n---\ntags: [text]"))
		require.NoError(t, err)
		assert.Equal(t, "From file", doc.Summary)
		assert.Equal(t, []any{"file"}, doc.Fragment["tags"])
	})

	t.Run("per verb keys from most specific", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "post.yml", "tags: [post]\n")
		writeFile(t, dir, "route.yml", "tags: [route]\n")
		writeFile(t, dir, "verb.yml", "tags: [verb]\n")
		e := &Extractor{Loader: NewLoader(dir)}
		files := FilePerVerb(map[string]string{
			"users_post": "post.yml",
			"users":      "route.yml",
			"delete":     "verb.yml",
		})

		doc, err := e.Extract("users", "POST", files)
		require.NoError(t, err)
		assert.Equal(t, []any{"post"}, doc.Fragment["tags"])

		doc, err = e.Extract("users", "GET", files)
		require.NoError(t, err)
		assert.Equal(t, []any{"route"}, doc.Fragment["tags"])

		doc, err = e.Extract("other", "DELETE", files)
		require.NoError(t, err)
		assert.Equal(t, []any{"verb"}, doc.Fragment["tags"])
	})

	t.Run("unmatched per verb map falls back to text", func(t *testing.T) {
		e := &Extractor{}
		files := FilePerVerb(map[string]string{"other": "x.yml"})

		doc, err := e.Extract("users", "get", files, Inline("Inline\n---\na: 1"))
		require.NoError(t, err)
		assert.Equal(t, "Inline", doc.Summary)
	})

	t.Run("file pointer in inline text", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "spec.yml", "parameters: []\n")
		e := &Extractor{Loader: NewLoader(dir)}

		doc, err := e.Extract("r", "get", Inline("file: spec.yml"))
		require.NoError(t, err)
		assert.True(t, doc.Documented())
		assert.Contains(t, doc.Fragment, "parameters")
	})

	t.Run("json file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "spec.json", `{"responses": {"200": {"description": "ok"}}}`)
		e := &Extractor{Loader: NewLoader(dir)}

		doc, err := e.Extract("r", "get", File("spec.json"))
		require.NoError(t, err)
		assert.Contains(t, doc.Fragment, "responses")
	})

	t.Run("dict is cloned", func(t *testing.T) {
		dict := map[string]any{"tags": []any{"A"}}
		doc, err := (&Extractor{}).Extract("r", "get", Dict(dict))
		require.NoError(t, err)

		doc.Fragment["tags"] = nil
		assert.Equal(t, []any{"A"}, dict["tags"])
	})

	t.Run("nothing applies", func(t *testing.T) {
		doc, err := (&Extractor{}).Extract("r", "get", Inline(" "))
		require.NoError(t, err)
		assert.False(t, doc.Documented())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := (&Extractor{Loader: NewLoader(t.TempDir())}).Extract("r", "get", File("x.yml"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("definition text", func(t *testing.T) {
		doc, err := (&Extractor{Sanitizer: NoSanitizer}).ExtractDefinition(Inline("A user\nof the system\n---\ntype: object"))
		require.NoError(t, err)
		assert.Equal(t, "A user\nof the system", doc.Description)
		assert.Equal(t, "object", doc.Fragment["type"])
	})
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "dict", KindDict.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
