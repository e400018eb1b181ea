package types

import "encoding/json"

// Symbol kinds used as the "kind" discriminator in JSON output
const (
	SymbolKindLocal  = "local"
	SymbolKindGlobal = "global"
)

type packageJSON struct {
	Manager *string `json:"manager,omitempty"`
	Name    *string `json:"name,omitempty"`
	Version *string `json:"version,omitempty"`
}

type descriptorJSON struct {
	Name          string         `json:"name"`
	Kind          DescriptorKind `json:"kind"`
	Disambiguator string         `json:"disambiguator,omitempty"`
}

// MarshalJSON encodes the symbol as {"kind":"local","id":...}
func (l *LocalSymbol) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		ID   string `json:"id"`
	}{
		Kind: SymbolKindLocal,
		ID:   l.ID,
	})
}

// MarshalJSON encodes the symbol with a "global" discriminator. Absent
// package fields are omitted.
func (g *GlobalSymbol) MarshalJSON() ([]byte, error) {
	descriptors := make([]descriptorJSON, len(g.Descriptors))
	for i, d := range g.Descriptors {
		descriptors[i] = descriptorJSON(d)
	}
	return json.Marshal(struct {
		Kind        string           `json:"kind"`
		Scheme      string           `json:"scheme"`
		Package     packageJSON      `json:"package"`
		Descriptors []descriptorJSON `json:"descriptors"`
	}{
		Kind:        SymbolKindGlobal,
		Scheme:      g.Scheme,
		Package:     packageJSON(g.Package),
		Descriptors: descriptors,
	})
}
