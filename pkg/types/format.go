package types

import "strings"

// placeholder spells an absent package field
const placeholder = "."

// String returns "local " followed by the identifier
func (l *LocalSymbol) String() string {
	return "local " + l.ID
}

// String returns the canonical encoding: four space-escaped header fields
// followed by the descriptor chain
func (g *GlobalSymbol) String() string {
	var b strings.Builder
	b.WriteString(escapeField(g.Scheme))
	for _, field := range []*string{g.Package.Manager, g.Package.Name, g.Package.Version} {
		b.WriteByte(' ')
		if field == nil {
			b.WriteString(placeholder)
		} else {
			b.WriteString(escapeField(*field))
		}
	}
	b.WriteByte(' ')
	b.WriteString(g.DescriptorPath())
	return b.String()
}

// DescriptorPath returns the canonical encoding of the descriptor chain alone
func (g *GlobalSymbol) DescriptorPath() string {
	var b strings.Builder
	for _, d := range g.Descriptors {
		writeDescriptor(&b, d)
	}
	return b.String()
}

func writeDescriptor(b *strings.Builder, d Descriptor) {
	switch d.Kind {
	case DescriptorNamespace:
		b.WriteString(escapeIdentifier(d.Name))
		b.WriteByte('/')
	case DescriptorType:
		b.WriteString(escapeIdentifier(d.Name))
		b.WriteByte('#')
	case DescriptorTerm:
		b.WriteString(escapeIdentifier(d.Name))
		b.WriteByte('.')
	case DescriptorMeta:
		b.WriteString(escapeIdentifier(d.Name))
		b.WriteByte(':')
	case DescriptorMacro:
		// the stored name already ends in '!'
		b.WriteString(escapeIdentifier(strings.TrimSuffix(d.Name, "!")))
		b.WriteByte('!')
	case DescriptorMethod:
		b.WriteString(escapeIdentifier(d.Name))
		b.WriteByte('(')
		b.WriteString(d.Disambiguator)
		b.WriteString(").")
	case DescriptorTypeParameter:
		b.WriteByte('[')
		b.WriteString(escapeIdentifier(d.Name))
		b.WriteByte(']')
	case DescriptorParameter:
		b.WriteByte('(')
		b.WriteString(escapeIdentifier(d.Name))
		b.WriteByte(')')
	}
}

// escapeField doubles every space so the field survives header splitting
func escapeField(s string) string {
	return strings.ReplaceAll(s, " ", "  ")
}

// escapeIdentifier wraps names that are not simple identifiers in backticks,
// doubling any backtick inside
func escapeIdentifier(name string) string {
	if name != "" && IsSimpleIdentifier(name) {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// IsSimpleIdentifier reports whether every byte of s may appear in an
// unescaped identifier
func IsSimpleIdentifier(s string) bool {
	for i := 0; i < len(s); i++ {
		if !IsIdentifierByte(s[i]) {
			return false
		}
	}
	return true
}

// IsIdentifierByte reports whether c may appear in an unescaped identifier:
// ASCII letters and digits plus '_', '+', '-' and '$'
func IsIdentifierByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '+', c == '-', c == '$':
		return true
	}
	return false
}
