package types

// DescriptorKind represents the kind of one segment in a global symbol's path
type DescriptorKind string

const (
	DescriptorNamespace     DescriptorKind = "namespace"      // name/
	DescriptorType          DescriptorKind = "type"           // name#
	DescriptorTerm          DescriptorKind = "term"           // name.
	DescriptorMethod        DescriptorKind = "method"         // name(<disambiguator>).
	DescriptorTypeParameter DescriptorKind = "type_parameter" // [name]
	DescriptorParameter     DescriptorKind = "parameter"      // (name)
	DescriptorMeta          DescriptorKind = "meta"           // name:
	DescriptorMacro         DescriptorKind = "macro"          // name!
)

// Validate checks if the descriptor kind is one of the eight known kinds
func (k DescriptorKind) Validate() error {
	switch k {
	case DescriptorNamespace, DescriptorType, DescriptorTerm, DescriptorMethod,
		DescriptorTypeParameter, DescriptorParameter, DescriptorMeta, DescriptorMacro:
		return nil
	default:
		return ErrInvalidDescriptorKind
	}
}

// Descriptor is one path segment of a global symbol.
//
// Name is already un-escaped. For DescriptorMacro the trailing '!' is part of
// Name. Disambiguator is only meaningful for DescriptorMethod; an empty
// string means the method carried no disambiguator.
type Descriptor struct {
	Name          string
	Kind          DescriptorKind
	Disambiguator string
}

// Validate checks the descriptor's kind and payload
func (d Descriptor) Validate() error {
	if err := d.Kind.Validate(); err != nil {
		return err
	}
	if d.Kind != DescriptorMethod && d.Disambiguator != "" {
		return ErrUnexpectedDisambiguator
	}
	return nil
}

// Package identifies the package that owns a global symbol.
// A nil field means the symbol spelled it with the "." placeholder.
type Package struct {
	Manager *string
	Name    *string
	Version *string
}

// Symbol is a decoded SCIP symbol: either *LocalSymbol or *GlobalSymbol
type Symbol interface {
	// IsLocal reports whether the symbol is scoped to a single document
	IsLocal() bool
	// String returns the canonical SCIP encoding of the symbol
	String() string

	isSymbol()
}

// LocalSymbol is a binding that is not visible outside its defining document
type LocalSymbol struct {
	ID string
}

func (*LocalSymbol) isSymbol() {}

// IsLocal always returns true
func (*LocalSymbol) IsLocal() bool { return true }

// GlobalSymbol is a package-qualified declaration addressable across documents
type GlobalSymbol struct {
	Scheme      string
	Package     Package
	Descriptors []Descriptor
}

func (*GlobalSymbol) isSymbol() {}

// IsLocal always returns false
func (*GlobalSymbol) IsLocal() bool { return false }

// Leaf returns the last descriptor of the symbol's path
func (g *GlobalSymbol) Leaf() (Descriptor, bool) {
	if len(g.Descriptors) == 0 {
		return Descriptor{}, false
	}
	return g.Descriptors[len(g.Descriptors)-1], true
}

// Validate checks every descriptor in the path
func (g *GlobalSymbol) Validate() error {
	for _, d := range g.Descriptors {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DisplayName returns a short human-readable name for a symbol: the leaf
// descriptor's name for global symbols, the scheme when a global symbol has
// no descriptors, and the identifier for local symbols.
func DisplayName(s Symbol) string {
	switch sym := s.(type) {
	case *LocalSymbol:
		return sym.ID
	case *GlobalSymbol:
		if leaf, ok := sym.Leaf(); ok {
			return leaf.Name
		}
		return sym.Scheme
	default:
		return ""
	}
}

// StringValue dereferences an optional package field, returning "" for nil
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
