// Package parser decodes SCIP symbol strings and the indexes that carry them.
//
// # Symbols
//
// ParseSymbol turns a SCIP symbol identifier into a types.Symbol. It is a
// pure function: it never fails, never panics and shares nothing between
// calls.
//
//	sym := parser.ParseSymbol("rust-analyzer cargo std 1.0 io/IsTerminal#")
//	g := sym.(*types.GlobalSymbol)
//	fmt.Println(g.Scheme)               // rust-analyzer
//	fmt.Println(*g.Package.Name)        // std
//	fmt.Println(g.Descriptors[1].Kind)  // type
//
// Input that does not follow the grammar still decodes. Strings without any
// space, such as mangled Objective-C or Swift names emitted by some
// producers, become a GlobalSymbol whose scheme is the entire input.
//
// # Indexes
//
// A Parser reads serialized SCIP indexes (protobuf) and decodes every
// occurrence and symbol definition they contain:
//
//	p := parser.New(parser.WithInferLanguage(true))
//	result, err := p.ParseFile("index.scip")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, doc := range result.Documents {
//	    fmt.Printf("%s (%s): %d occurrences\n", doc.Path, doc.Language, len(doc.Occurrences))
//	}
//
// # Error Handling
//
// Only unreadable or undecodable files are errors. An occurrence whose range
// cannot be decoded is skipped and recorded in result.Errors, so the rest of
// the index is still usable:
//
//	if result.HasErrors() {
//	    for _, parseErr := range result.Errors {
//	        fmt.Printf("Parse error: %v\n", &parseErr)
//	    }
//	}
package parser
