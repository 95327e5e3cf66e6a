package fragment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("response codes become string keys", func(t *testing.T) {
		frag, err := Parse("responses:\n  200:\n    description: ok\n")
		require.NoError(t, err)

		responses, ok := frag.Map("responses")
		require.True(t, ok)
		assert.Contains(t, responses, "200")
	})

	t.Run("empty text", func(t *testing.T) {
		frag, err := Parse("")
		require.NoError(t, err)
		assert.NotNil(t, frag)
		assert.Empty(t, frag)
	})

	t.Run("non mapping", func(t *testing.T) {
		_, err := Parse("- a\n- b\n")
		assert.ErrorIs(t, err, ErrInvalidYAML)
	})

	t.Run("broken yaml", func(t *testing.T) {
		_, err := Parse("a: [b\n")
		assert.ErrorIs(t, err, ErrInvalidYAML)
	})
}

func TestSplit(t *testing.T) {
	t.Run("summary description and fragment", func(t *testing.T) {
		text := `
		Returns a list of colors
		Filtered by palette.
		Second line.
		---
		tags:
		  - colors
		`

		doc, err := Split(text, nil)
		require.NoError(t, err)
		assert.Equal(t, "Returns a list of colors", doc.Summary)
		assert.Equal(t, "Filtered by palette.<br/>Second line.", doc.Description)
		assert.True(t, doc.Documented())
		assert.Equal(t, []any{"colors"}, doc.Fragment["tags"])
	})

	t.Run("no separator means no fragment", func(t *testing.T) {
		doc, err := Split("Just a comment\nwith more words", NoSanitizer)
		require.NoError(t, err)
		assert.Equal(t, "Just a comment", doc.Summary)
		assert.Equal(t, "with more words", doc.Description)
		assert.False(t, doc.Documented())
	})

	t.Run("separator must be a whole line", func(t *testing.T) {
		doc, err := Split("Summary\ntext --- inline\n", nil)
		require.NoError(t, err)
		assert.False(t, doc.Documented())
	})

	t.Run("single line", func(t *testing.T) {
		doc, err := Split("Only a summary", nil)
		require.NoError(t, err)
		assert.Equal(t, "Only a summary", doc.Summary)
		assert.Nil(t, doc.Fragment)
	})

	t.Run("separator right after summary", func(t *testing.T) {
		doc, err := Split("Summary\n---\nfoo: bar\n", nil)
		require.NoError(t, err)
		assert.Empty(t, doc.Description)
		assert.Equal(t, "bar", doc.Fragment["foo"])
	})

	t.Run("leading separator", func(t *testing.T) {
		doc, err := Split("---\nfoo: bar\n", nil)
		require.NoError(t, err)
		assert.Empty(t, doc.Summary)
		assert.Equal(t, "bar", doc.Fragment["foo"])
	})

	t.Run("empty text", func(t *testing.T) {
		doc, err := Split("  \n  ", nil)
		require.NoError(t, err)
		assert.Equal(t, Doc{}, doc)
	})
}

func TestSplitDefinition(t *testing.T) {
	t.Run("whole text is the description", func(t *testing.T) {
		doc, err := SplitDefinition("A color\nwith a name\n---\ntype: object\n", nil)
		require.NoError(t, err)
		assert.Empty(t, doc.Summary)
		assert.Equal(t, "A color<br/>with a name", doc.Description)
		assert.Equal(t, "object", doc.Fragment["type"])
	})
}

func TestDedent(t *testing.T) {
	t.Run("strips common margin", func(t *testing.T) {
		got := Dedent("First\n    a:\n      b: 1\n    c: 2\n")
		assert.Equal(t, "First\na:\n  b: 1\nc: 2", got)
	})

	t.Run("expands tabs", func(t *testing.T) {
		got := Dedent("\n\tFirst\n\t---\n\ta: 1")
		assert.Equal(t, "First\n---\na: 1", got)
	})
}

func TestSanitizers(t *testing.T) {
	t.Run("br", func(t *testing.T) {
		assert.Equal(t, "a<br/>b", BRSanitizer(" a\nb "))
	})

	t.Run("none", func(t *testing.T) {
		assert.Equal(t, "a\nb\n", NoSanitizer("a\nb\n"))
		assert.Equal(t, " <i>x</i> ", NoSanitizer(" <i>x</i> "))
	})

	t.Run("markdown", func(t *testing.T) {
		got := MarkdownSanitizer("**bold** text")
		assert.Contains(t, got, "<strong>bold</strong>")

		assert.Empty(t, MarkdownSanitizer("  "))
	})
}
