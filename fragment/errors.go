package fragment

import "errors"

var (
	// ErrFileNotFound is returned when a fragment file is missing from both
	// the direct path and the fallback location.
	ErrFileNotFound = errors.New("fragment file not found")

	// ErrUnsupportedFileType is returned for fragment files that are neither
	// YAML nor JSON.
	ErrUnsupportedFileType = errors.New("unsupported fragment file type")

	// ErrFileChainTooDeep is returned when "file:" pointers chain past MaxHops,
	// which usually means the chain is cyclic.
	ErrFileChainTooDeep = errors.New("fragment file chain too deep")

	// ErrImportTooDeep is returned when import directives nest past MaxHops.
	ErrImportTooDeep = errors.New("fragment import nesting too deep")

	// ErrInvalidYAML is returned when the structured part of a fragment
	// cannot be parsed or is not a mapping.
	ErrInvalidYAML = errors.New("invalid fragment yaml")
)
