package fragment

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// FilePrefix marks documentation text that points at a fragment file
// instead of carrying the documentation itself.
const FilePrefix = "file:"

// MaxHops bounds both "file:" pointer chains and nested import directives.
const MaxHops = 50

// importRegexp matches a whole `import: "<path>"` line and captures its
// indentation and the imported path.
var importRegexp = regexp.MustCompile(`(?m)^([ \t]*)import:[ \t]*["']([^"'\n]+)["'][ \t]*$`)

// Loader reads fragment files. Relative paths resolve against Root; a file
// missing there is looked up a second time in Fallback, which typically wraps
// files embedded into the binary or shipped next to it.
type Loader struct {
	// Root is the base directory for relative paths. Empty means the
	// working directory.
	Root string

	// Fallback is consulted when a file is missing under Root.
	Fallback fs.FS
}

// NewLoader returns a loader rooted at root.
func NewLoader(root string) *Loader {
	return &Loader{Root: root}
}

// WithRoot returns a copy of the loader that resolves relative paths
// against root. The fallback is shared.
func (l *Loader) WithRoot(root string) *Loader {
	if l == nil {
		return &Loader{Root: root}
	}
	cp := *l
	if root != "" {
		cp.Root = root
	}
	return &cp
}

// ReadFile reads a fragment file after checking its extension.
func (l *Loader) ReadFile(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yml", ".yaml", ".json":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, name)
	}

	full := name
	if !filepath.IsAbs(full) && l != nil && l.Root != "" {
		full = filepath.Join(l.Root, name)
	}

	data, err := os.ReadFile(full)
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read fragment %s: %w", full, err)
	}

	if l != nil && l.Fallback != nil {
		rel := path.Clean(filepath.ToSlash(strings.TrimPrefix(name, "/")))
		if data, ferr := fs.ReadFile(l.Fallback, rel); ferr == nil {
			return string(data), nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrFileNotFound, name)
}

// Resolve follows "file:" pointers starting at text until it reaches text
// that is not a pointer, then splices every import directive. Chains longer
// than MaxHops fail with ErrFileChainTooDeep.
func (l *Loader) Resolve(text string) (string, error) {
	for hops := 0; ; hops++ {
		trimmed := strings.TrimSpace(text)
		if !strings.HasPrefix(trimmed, FilePrefix) {
			break
		}
		if hops >= MaxHops {
			return "", fmt.Errorf("%w: more than %d hops", ErrFileChainTooDeep, MaxHops)
		}

		name := strings.TrimSpace(strings.TrimPrefix(trimmed, FilePrefix))
		data, err := l.ReadFile(name)
		if err != nil {
			return "", err
		}
		text = data
	}

	return l.Splice(text)
}

// Load reads a fragment file and resolves its contents.
func (l *Loader) Load(name string) (string, error) {
	data, err := l.ReadFile(name)
	if err != nil {
		return "", err
	}
	return l.Resolve(data)
}

// Splice replaces every `import: "<path>"` line with the contents of the
// named file, indenting each spliced line to the column of the directive.
// Spliced text is scanned again until no directives remain.
func (l *Loader) Splice(text string) (string, error) {
	for depth := 0; importRegexp.MatchString(text); depth++ {
		if depth >= MaxHops {
			return "", fmt.Errorf("%w: more than %d levels", ErrImportTooDeep, MaxHops)
		}

		var spliceErr error
		text = importRegexp.ReplaceAllStringFunc(text, func(line string) string {
			m := importRegexp.FindStringSubmatch(line)
			indent, name := m[1], m[2]

			data, err := l.ReadFile(name)
			if err != nil {
				if spliceErr == nil {
					spliceErr = err
				}
				return line
			}

			return indentLines(strings.TrimRight(data, "\n"), indent)
		})
		if spliceErr != nil {
			return "", spliceErr
		}
	}

	return text, nil
}

func indentLines(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}
