package fragment

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Separator is the line that divides free-text documentation from the
// structured fragment that follows it.
const Separator = "---"

// Doc is the result of splitting documentation text.
type Doc struct {
	Summary     string
	Description string

	// Fragment is nil when the text carries no structured block.
	Fragment Fragment
}

// Documented reports whether the text carried a structured fragment.
func (d Doc) Documented() bool {
	return d.Fragment != nil
}

// Parse decodes a YAML (or JSON) mapping into a Fragment. An empty document
// yields an empty, non-nil fragment.
func Parse(text string) (Fragment, error) {
	var raw any
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	if raw == nil {
		return Fragment{}, nil
	}

	m, ok := Normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %T, not a mapping", ErrInvalidYAML, raw)
	}

	return Fragment(m), nil
}

// Split splits documentation text laid out as
//
//	Summary line
//	Free-text description, any number of lines.
//	---
//	structured: fragment
//
// Summary and description are trimmed, then passed through sanitize. Text
// without a separator line yields a Doc with a nil Fragment.
func Split(text string, sanitize Sanitizer) (Doc, error) {
	if sanitize == nil {
		sanitize = BRSanitizer
	}

	text = Dedent(text)
	if text == "" {
		return Doc{}, nil
	}

	first, rest, multiline := strings.Cut(text, "\n")
	if strings.TrimSpace(first) == Separator {
		frag, err := Parse(rest)
		if err != nil {
			return Doc{}, err
		}
		return Doc{Fragment: frag}, nil
	}

	doc := Doc{Summary: sanitize(strings.TrimSpace(first))}
	if !multiline {
		return doc, nil
	}

	description, structured, found := cutSeparator(rest)
	doc.Description = sanitize(strings.TrimSpace(description))
	if !found {
		return doc, nil
	}

	frag, err := Parse(structured)
	if err != nil {
		return Doc{}, err
	}
	doc.Fragment = frag

	return doc, nil
}

// SplitDefinition splits the documentation text of a reusable definition.
// Definitions have no summary line: everything before the separator forms a
// single description.
func SplitDefinition(text string, sanitize Sanitizer) (Doc, error) {
	if sanitize == nil {
		sanitize = BRSanitizer
	}

	description, structured, found := cutSeparator(Dedent(text))
	doc := Doc{Description: sanitize(strings.TrimSpace(description))}
	if !found {
		return doc, nil
	}

	frag, err := Parse(structured)
	if err != nil {
		return Doc{}, err
	}
	doc.Fragment = frag

	return doc, nil
}

// cutSeparator splits text around the first line consisting of Separator.
func cutSeparator(text string) (before, after string, found bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == Separator {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n"), true
		}
	}
	return text, "", false
}

// Dedent normalizes documentation text the way doc tools clean comment
// blocks: tabs expand to four spaces, the first line loses its leading
// whitespace, the common indentation of the remaining lines is removed and
// leading and trailing blank lines are dropped.
func Dedent(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", "    ")
	lines := strings.Split(text, "\n")

	margin := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeft(lines[0], " ")
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= margin {
				lines[i] = lines[i][margin:]
			} else {
				lines[i] = strings.TrimLeft(lines[i], " ")
			}
		}
	}

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	return strings.Join(lines, "\n")
}
