// Package types provides shared type definitions for scipsym.
//
// This package defines the decoded form of SCIP symbols along with the
// index, occurrence and search result types used across the parser,
// storage, indexer and searcher packages.
//
// # Symbols
//
// A SCIP symbol is either local to one document or global. Symbol is a
// closed sum type with exactly two implementations:
//
//	switch sym := s.(type) {
//	case *types.LocalSymbol:
//	    fmt.Println("local", sym.ID)
//	case *types.GlobalSymbol:
//	    fmt.Println(sym.Scheme, types.StringValue(sym.Package.Name))
//	}
//
// A GlobalSymbol's Descriptors are its fully-qualified path, root first:
//
//	rust-analyzer cargo std 1.0 io/stdio/IsTerminal#
//	    -> Namespace "io", Namespace "stdio", Type "IsTerminal"
//
// Package fields are optional. The SCIP placeholder "." decodes to nil.
//
// # Canonical Form
//
// Every Symbol renders back to SCIP text with String. Names that are not
// simple identifiers are wrapped in backticks:
//
//	sym.String() // "scip . . . `has space`/"
//
// Macro descriptors keep their '!' inside Name ("println!"), and String
// writes it exactly once.
//
// # Ranges
//
// DecodeRange converts SCIP's 0-based, 3- or 4-element ranges into 1-based
// Range values with an inclusive end column:
//
//	r, err := types.DecodeRange([]int32{4, 2, 9})
//	// r.Start = {5, 3}, r.End = {5, 9}
//
// # Validation
//
// Descriptors and search results implement validation methods:
//
//	if err := sym.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package types
