package mux

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// regexpCache holds compiled templates by pattern. Patterns are bounded by
// the registered routes.
var regexpCache sync.Map

func compileRegexp(pattern string) (*regexp.Regexp, error) {
	if v, ok := regexpCache.Load(pattern); ok {
		return v.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	actual, _ := regexpCache.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}

// pathTemplate is a compiled route template.
type pathTemplate struct {
	raw    string
	prefix bool
	re     *regexp.Regexp

	names  []string
	groups []int
	maxLen []int
}

// compileTemplate turns "/users/{id:int}" into an anchored regexp with one
// named group per placeholder. A prefix template matches any path starting
// with it.
func compileTemplate(tpl string, prefix bool) (*pathTemplate, error) {
	idxs, err := braceIndices(tpl)
	if err != nil {
		return nil, err
	}

	t := &pathTemplate{raw: tpl, prefix: prefix}

	var pattern strings.Builder
	pattern.WriteByte('^')

	end := 0
	for i := 0; i < len(idxs); i += 2 {
		pattern.WriteString(regexp.QuoteMeta(tpl[end:idxs[i]]))
		end = idxs[i+1]

		name, constraint, found := strings.Cut(tpl[idxs[i]+1:end-1], ":")
		if name == "" {
			return nil, fmt.Errorf("mux: missing name in %q from %q", tpl[idxs[i]:end], tpl)
		}
		if slices.Contains(t.names, name) {
			return nil, fmt.Errorf("mux: duplicated route variable %q in %q", name, tpl)
		}

		patt, maxLen := "[^/]+", 0
		if found {
			patt, maxLen = expandMacro(constraint)
		}
		if _, err := compileRegexp("^" + patt + "$"); err != nil {
			return nil, fmt.Errorf("mux: invalid pattern %q in variable %q: %w", patt, name, err)
		}

		fmt.Fprintf(&pattern, "(?P<v%d>%s)", len(t.names), patt)
		t.names = append(t.names, name)
		t.maxLen = append(t.maxLen, maxLen)
	}

	pattern.WriteString(regexp.QuoteMeta(tpl[end:]))
	if !prefix {
		pattern.WriteByte('$')
	}

	t.re, err = compileRegexp(pattern.String())
	if err != nil {
		return nil, err
	}

	for i := range t.names {
		t.groups = append(t.groups, t.re.SubexpIndex(fmt.Sprintf("v%d", i)))
	}

	return t, nil
}

// match reports whether path matches and returns the placeholder values.
func (t *pathTemplate) match(path string) (map[string]string, bool) {
	m := t.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	if len(t.names) == 0 {
		return nil, true
	}

	vars := make(map[string]string, len(t.names))
	for i, name := range t.names {
		v := m[t.groups[i]]
		if t.maxLen[i] > 0 && len(v) > t.maxLen[i] {
			return nil, false
		}
		vars[name] = v
	}
	return vars, true
}

// braceIndices returns the start and end+1 offsets of every top-level
// "{...}" pair in s.
func braceIndices(s string) ([]int, error) {
	var (
		idxs  []int
		level int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if level++; level == 1 {
				idxs = append(idxs, i)
			}
		case '}':
			if level--; level == 0 {
				idxs = append(idxs, i+1)
			} else if level < 0 {
				return nil, fmt.Errorf("mux: unbalanced braces in %q", s)
			}
		}
	}
	if level != 0 {
		return nil, fmt.Errorf("mux: unbalanced braces in %q", s)
	}
	return idxs, nil
}
