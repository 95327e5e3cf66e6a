package fragment

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	full := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	return full
}

func TestLoaderReadFile(t *testing.T) {
	t.Run("relative to root", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "docs/a.yml", "a: 1\n")

		data, err := NewLoader(dir).ReadFile("docs/a.yml")
		require.NoError(t, err)
		assert.Equal(t, "a: 1\n", data)
	})

	t.Run("fallback filesystem", func(t *testing.T) {
		l := &Loader{
			Root:     t.TempDir(),
			Fallback: fstest.MapFS{"docs/b.yaml": {Data: []byte("b: 2\n")}},
		}

		data, err := l.ReadFile("docs/b.yaml")
		require.NoError(t, err)
		assert.Equal(t, "b: 2\n", data)
	})

	t.Run("missing everywhere", func(t *testing.T) {
		l := &Loader{Root: t.TempDir(), Fallback: fstest.MapFS{}}

		_, err := l.ReadFile("nope.yml")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := NewLoader(t.TempDir()).ReadFile("notes.txt")
		assert.ErrorIs(t, err, ErrUnsupportedFileType)
	})

	t.Run("with root keeps fallback", func(t *testing.T) {
		fsys := fstest.MapFS{"c.yml": {Data: []byte("c: 3\n")}}
		l := (&Loader{Fallback: fsys}).WithRoot(t.TempDir())

		data, err := l.ReadFile("c.yml")
		require.NoError(t, err)
		assert.Equal(t, "c: 3\n", data)
	})
}

func TestLoaderResolve(t *testing.T) {
	t.Run("follows file chains", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "first.yml", "file: second.yml")
		writeFile(t, dir, "second.yml", "Summary\n---\nok: true\n")

		text, err := NewLoader(dir).Resolve("file: first.yml")
		require.NoError(t, err)
		assert.Equal(t, "Summary\n---\nok: true\n", text)
	})

	t.Run("cyclic chain fails", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.yml", "file: b.yml")
		writeFile(t, dir, "b.yml", "file: a.yml")

		_, err := NewLoader(dir).Resolve("file: a.yml")
		assert.ErrorIs(t, err, ErrFileChainTooDeep)
	})

	t.Run("plain text passes through", func(t *testing.T) {
		text, err := NewLoader("").Resolve("Summary\n---\na: 1")
		require.NoError(t, err)
		assert.Equal(t, "Summary\n---\na: 1", text)
	})
}

func TestLoaderSplice(t *testing.T) {
	t.Run("keeps indentation", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "errors.yml", "400:\n  description: bad\n")

		text, err := NewLoader(dir).Splice("responses:\n  import: \"errors.yml\"\n  200:\n    description: ok\n")
		require.NoError(t, err)

		frag, err := Parse(text)
		require.NoError(t, err)
		responses, _ := frag.Map("responses")
		assert.Contains(t, responses, "400")
		assert.Contains(t, responses, "200")
	})

	t.Run("nested imports", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "outer.yml", "outer: 1\nimport: 'inner.yml'\n")
		writeFile(t, dir, "inner.yml", "inner: 2\n")

		text, err := NewLoader(dir).Splice("import: \"outer.yml\"")
		require.NoError(t, err)
		assert.Equal(t, "outer: 1\ninner: 2", text)
	})

	t.Run("self import fails", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "loop.yml", "import: \"loop.yml\"\n")

		_, err := NewLoader(dir).Splice("import: \"loop.yml\"")
		assert.ErrorIs(t, err, ErrImportTooDeep)
	})

	t.Run("missing import", func(t *testing.T) {
		_, err := NewLoader(t.TempDir()).Splice("import: \"missing.yml\"")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})
}
