package mux

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileTemplate(t *testing.T) {
	tests := []struct {
		name   string
		tpl    string
		prefix bool
		path   string
		match  bool
		vars   map[string]string
	}{
		{"static", "/pets", false, "/pets", true, nil},
		{"static mismatch", "/pets", false, "/pets/1", false, nil},
		{"default pattern stops at slash", "/pets/{id}", false, "/pets/1/2", false, nil},
		{"regexp", "/pets/{id:[a-z]+}", false, "/pets/abc", true, map[string]string{"id": "abc"}},
		{"nested braces", "/d/{day:[0-9]{2}}", false, "/d/07", true, map[string]string{"day": "07"}},
		{"capturing group in constraint", "/{a:(x|y)}/{b}", false, "/y/z", true, map[string]string{"a": "y", "b": "z"}},
		{"uuid macro", "/u/{id:uuid}", false, "/u/550e8400-e29b-41d4-a716-446655440000", true, map[string]string{"id": "550e8400-e29b-41d4-a716-446655440000"}},
		{"date macro", "/e/{d:date}", false, "/e/2024-13", false, nil},
		{"float macro", "/p/{v:float}", false, "/p/.5", true, map[string]string{"v": ".5"}},
		{"prefix", "/static", true, "/static/app.js", true, nil},
		{"quoted literal", "/v1.0/{x}", false, "/v1x0/a", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := compileTemplate(tt.tpl, tt.prefix)
			require.NoError(t, err)

			vars, ok := tpl.match(tt.path)
			assert.Equal(t, tt.match, ok)
			assert.Equal(t, tt.vars, vars)
		})
	}
}

func TestDomainMacroLength(t *testing.T) {
	tpl, err := compileTemplate("/hosts/{h:domain}", false)
	require.NoError(t, err)

	_, ok := tpl.match("/hosts/example.com")
	assert.True(t, ok)

	long := strings.Repeat(strings.Repeat("a", 60)+".", 5) + "com"
	_, ok = tpl.match("/hosts/" + long)
	assert.False(t, ok)
}

func TestMacro(t *testing.T) {
	p, ok := Macro("int")
	assert.True(t, ok)
	assert.Equal(t, "[0-9]+", p)

	_, ok = Macro("[0-9]+")
	assert.False(t, ok)
}

func TestBraceIndices(t *testing.T) {
	idxs, err := braceIndices("/a/{x}/{y:[0-9]{2}}")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 6, 7, 19}, idxs)

	_, err = braceIndices("/a/}")
	assert.Error(t, err)
}

func TestCompileRegexpCache(t *testing.T) {
	a, err := compileRegexp("^/cached$")
	require.NoError(t, err)
	b, err := compileRegexp("^/cached$")
	require.NoError(t, err)
	assert.Same(t, a, b)
}
