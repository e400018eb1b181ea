package parser

import (
	"strings"

	"github.com/dshills/scipsym/pkg/types"
)

// localPrefix is the head token that marks a document-local symbol
const localPrefix = "local"

// ParseSymbol decodes a SCIP symbol string.
//
// ParseSymbol is total: every input, including the empty string, yields a
// Symbol and it never panics. Input that does not follow the SCIP grammar is
// decoded on a best-effort basis, because producers differ in how closely
// they follow it. A string with no spaces at all decodes to a GlobalSymbol
// whose scheme is the whole input.
func ParseSymbol(symbol string) types.Symbol {
	if head, rest, ok := strings.Cut(symbol, " "); ok && head == localPrefix {
		return &types.LocalSymbol{ID: rest}
	}

	scheme, rest := splitField(symbol)
	manager, rest := splitField(rest)
	name, rest := splitField(rest)
	version, rest := splitField(rest)

	return &types.GlobalSymbol{
		Scheme: scheme,
		Package: types.Package{
			Manager: optionalField(manager),
			Name:    optionalField(name),
			Version: optionalField(version),
		},
		Descriptors: parseDescriptors(rest),
	}
}

// splitField reads one space-escaped header field from s and returns it
// together with the rest of the string after its delimiter.
//
// A single space ends the field; a doubled space is an escaped space that
// belongs to it. When no delimiter exists the whole of s is the field,
// returned as-is, and the rest is empty.
func splitField(s string) (field, rest string) {
	i := 0
	for i < len(s) {
		if s[i] != ' ' {
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == ' ' {
			i += 2
			continue
		}
		return unescapeSpaces(s[:i]), s[i+1:]
	}
	return s, ""
}

// unescapeSpaces collapses each doubled space to a single space
func unescapeSpaces(s string) string {
	return strings.ReplaceAll(s, "  ", " ")
}

// optionalField maps the "." placeholder to an absent field
func optionalField(s string) *string {
	if s == "." {
		return nil
	}
	return &s
}
