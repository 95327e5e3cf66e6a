// Package fragment reads the structured documentation blocks that describe
// API operations and reusable schema definitions.
//
// A block is free text optionally followed by a YAML mapping:
//
//	Returns a list of colors
//	Filtered by palette.
//	---
//	parameters:
//	  - name: palette
//	    in: path
//	    type: string
//	    enum: [all, rgb, cmyk]
//
// The first line is the summary, the lines up to the "---" separator form the
// description and the rest is parsed into a Fragment. Text without a
// separator has no fragment.
//
// # Sources
//
// Documentation comes from one of four Source kinds: a single file, a
// mapping of files looked up by route and verb, inline text, or an already
// structured dict. Inline text starting with "file:" points at a file and
// may chain up to MaxHops times. Lines of the form
//
//	import: "shared/errors.yml"
//
// are replaced by the contents of the named file, indented to the column of
// the directive.
//
// # Merging
//
// Fragment.Merge combines fragments: mappings merge key by key, lists are
// unioned and scalars from the merged-in fragment win.
package fragment
