package parser

import (
	"strings"

	"github.com/dshills/scipsym/pkg/types"
)

// descriptorScanner walks a descriptor chain left to right
type descriptorScanner struct {
	data string
	pos  int
}

func (s *descriptorScanner) eof() bool {
	return s.pos >= len(s.data)
}

func (s *descriptorScanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.data[s.pos]
}

// skipPast advances the cursor just beyond the next occurrence of c, or to
// the end of the input when c does not occur
func (s *descriptorScanner) skipPast(c byte) {
	if s.eof() {
		return
	}
	if i := strings.IndexByte(s.data[s.pos:], c); i >= 0 {
		s.pos += i + 1
		return
	}
	s.pos = len(s.data)
}

// identifier reads a simple or backtick-escaped identifier at the cursor
func (s *descriptorScanner) identifier() string {
	name, n := parseIdentifier(s.data, s.pos)
	s.pos += n
	return name
}

// parseDescriptors decodes a descriptor chain. Unrecognized input is skipped
// one byte at a time, so the result is always well-formed and in scan order.
func parseDescriptors(chain string) []types.Descriptor {
	descriptors := make([]types.Descriptor, 0)
	s := &descriptorScanner{data: chain}

	for !s.eof() {
		switch s.peek() {
		case '[':
			descriptors = append(descriptors, s.enclosed(']', types.DescriptorTypeParameter))
		case '(':
			descriptors = append(descriptors, s.enclosed(')', types.DescriptorParameter))
		default:
			if d, ok := s.suffixed(); ok {
				descriptors = append(descriptors, d)
			}
		}
	}

	return descriptors
}

// enclosed reads "[name]" or "(name)". Anything between the identifier and
// the closing byte is ignored; a missing closing byte consumes the rest.
func (s *descriptorScanner) enclosed(closing byte, kind types.DescriptorKind) types.Descriptor {
	s.pos++ // opening bracket
	name := s.identifier()
	s.skipPast(closing)
	return types.Descriptor{Name: name, Kind: kind}
}

// suffixed reads an identifier followed by its kind suffix. When the byte
// after the identifier is not a recognized suffix the name is dropped and
// that byte is skipped.
func (s *descriptorScanner) suffixed() (types.Descriptor, bool) {
	name := s.identifier()
	if s.eof() {
		return types.Descriptor{}, false
	}

	suffix := s.peek()
	switch suffix {
	case '(':
		return s.method(name), true
	case '/', '#', '.', ':', '!':
		s.pos++
		return simpleDescriptor(name, suffix), true
	default:
		s.pos++
		return types.Descriptor{}, false
	}
}

// method reads "(<disambiguator>)" and an optional trailing '.'
func (s *descriptorScanner) method(name string) types.Descriptor {
	s.pos++ // '('
	start := s.pos
	s.skipPast(')')

	end := s.pos - 1
	if end < start || s.data[end] != ')' {
		// unterminated: the disambiguator runs to the end of input
		end = len(s.data)
	}

	if s.peek() == '.' {
		s.pos++
	}

	return types.Descriptor{
		Name:          name,
		Kind:          types.DescriptorMethod,
		Disambiguator: s.data[start:end],
	}
}

func simpleDescriptor(name string, suffix byte) types.Descriptor {
	switch suffix {
	case '/':
		return types.Descriptor{Name: name, Kind: types.DescriptorNamespace}
	case '#':
		return types.Descriptor{Name: name, Kind: types.DescriptorType}
	case '.':
		return types.Descriptor{Name: name, Kind: types.DescriptorTerm}
	case ':':
		return types.Descriptor{Name: name, Kind: types.DescriptorMeta}
	default:
		// Macro names keep their '!' marker.
		return types.Descriptor{Name: name + "!", Kind: types.DescriptorMacro}
	}
}

// parseIdentifier reads the identifier starting at offset start and returns
// it along with the number of bytes consumed.
//
// An identifier starting with a backtick is escaped: "``" stands for one
// backtick and a lone backtick closes it. An unterminated escaped identifier
// runs to the end of s. Any other identifier is the longest run of simple
// identifier bytes, which may be empty.
func parseIdentifier(s string, start int) (string, int) {
	if start >= len(s) {
		return "", 0
	}

	if s[start] != '`' {
		i := start
		for i < len(s) && types.IsIdentifierByte(s[i]) {
			i++
		}
		return s[start:i], i - start
	}

	var b strings.Builder
	i := start + 1
	for i < len(s) {
		if s[i] != '`' {
			b.WriteByte(s[i])
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '`' {
			b.WriteByte('`')
			i += 2
			continue
		}
		return b.String(), i + 1 - start
	}
	return b.String(), i - start
}
