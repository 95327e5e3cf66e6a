package fragment

import (
	"path/filepath"
	"strings"
)

// Kind identifies where a Source takes its documentation from.
type Kind int

const (
	// KindFile is a single external fragment file.
	KindFile Kind = iota + 1

	// KindFilePerVerb is a mapping of fragment files looked up by route and verb.
	KindFilePerVerb

	// KindInline is documentation text carried by the handler itself.
	KindInline

	// KindDict is an already structured fragment.
	KindDict
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFilePerVerb:
		return "file-per-verb"
	case KindInline:
		return "inline"
	case KindDict:
		return "dict"
	}
	return "unknown"
}

// Source is one place documentation may come from.
type Source struct {
	Kind  Kind
	Path  string
	Files map[string]string
	Text  string
	Dict  Fragment
}

// File returns a source reading the fragment file at path.
func File(path string) Source {
	return Source{Kind: KindFile, Path: path}
}

// FilePerVerb returns a source that picks a fragment file by the keys
// "<route>_<verb>", "<route>" and "<verb>", in that order.
func FilePerVerb(files map[string]string) Source {
	return Source{Kind: KindFilePerVerb, Files: files}
}

// Inline returns a source for documentation text.
func Inline(text string) Source {
	return Source{Kind: KindInline, Text: text}
}

// Dict returns a source for a structured fragment.
func Dict(m map[string]any) Source {
	return Source{Kind: KindDict, Dict: Fragment(m)}
}

// lookup searches the per-verb file mapping from most to least specific key.
func (s Source) lookup(route, verb string) (string, bool) {
	verb = strings.ToLower(verb)
	for _, key := range []string{route + "_" + verb, route, verb} {
		if p, ok := s.Files[key]; ok && p != "" {
			return p, true
		}
	}
	return "", false
}

// Extractor turns sources into parsed documentation.
type Extractor struct {
	Loader    *Loader
	Sanitizer Sanitizer
}

// Extract returns the documentation of the first source that applies to
// route and verb. A file or per-verb file source always wins over inline
// text when it applies. The zero Doc is returned when nothing applies.
func (e *Extractor) Extract(route, verb string, sources ...Source) (Doc, error) {
	return e.extract(route, verb, Split, sources)
}

// ExtractDefinition is Extract for reusable definitions, whose text has no
// summary line.
func (e *Extractor) ExtractDefinition(sources ...Source) (Doc, error) {
	return e.extract("", "", SplitDefinition, sources)
}

type splitFunc func(string, Sanitizer) (Doc, error)

func (e *Extractor) extract(route, verb string, split splitFunc, sources []Source) (Doc, error) {
	for _, src := range sources {
		switch src.Kind {
		case KindFile:
			if src.Path != "" {
				return e.fromFile(src.Path, split)
			}
		case KindFilePerVerb:
			if p, ok := src.lookup(route, verb); ok {
				return e.fromFile(p, split)
			}
		case KindInline:
			if strings.TrimSpace(src.Text) != "" {
				return e.fromText(src.Text, split)
			}
		case KindDict:
			if src.Dict != nil {
				return Doc{Fragment: src.Dict.Clone()}, nil
			}
		}
	}
	return Doc{}, nil
}

func (e *Extractor) fromFile(path string, split splitFunc) (Doc, error) {
	text, err := e.Loader.Load(path)
	if err != nil {
		return Doc{}, err
	}
	return e.splitFile(path, text, split)
}

func (e *Extractor) fromText(text string, split splitFunc) (Doc, error) {
	pointer := strings.HasPrefix(strings.TrimSpace(text), FilePrefix)

	resolved, err := e.Loader.Resolve(text)
	if err != nil {
		return Doc{}, err
	}

	if pointer {
		return e.splitFile("", resolved, split)
	}
	return split(resolved, e.Sanitizer)
}

// splitFile parses fragment file contents. JSON files and YAML files without
// a separator line are structured from the first byte.
func (e *Extractor) splitFile(path, text string, split splitFunc) (Doc, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		frag, err := Parse(text)
		return Doc{Fragment: frag}, err
	}

	if _, _, found := cutSeparator(Dedent(text)); found {
		return split(text, e.Sanitizer)
	}

	frag, err := Parse(text)
	if err != nil {
		return Doc{}, err
	}
	return Doc{Fragment: frag}, nil
}
