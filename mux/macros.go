package mux

// macros maps macro names to the pattern they stand for in "{name:macro}".
var macros = map[string]string{
	"uuid":     `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`,
	"int":      `[0-9]+`,
	"float":    `[0-9]*\.?[0-9]+`,
	"slug":     `[a-zA-Z0-9]+(?:-[a-zA-Z0-9]+)*`,
	"alpha":    `[a-zA-Z]+`,
	"alphanum": `[a-zA-Z0-9]+`,
	"date":     `[0-9]{4}-[0-9]{2}-[0-9]{2}`,
	"hex":      `[0-9a-fA-F]+`,
	"domain":   `(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?`,
}

// macroMaxLen bounds values the macro regexp alone cannot.
var macroMaxLen = map[string]int{
	"domain": 253,
}

// Macro returns the pattern of a macro and whether the name is one.
func Macro(name string) (string, bool) {
	p, ok := macros[name]
	return p, ok
}

// expandMacro resolves the constraint of a placeholder: macros become their
// pattern and length limit, anything else is used as a regexp.
func expandMacro(constraint string) (string, int) {
	if p, ok := macros[constraint]; ok {
		return p, macroMaxLen[constraint]
	}
	return constraint, 0
}
