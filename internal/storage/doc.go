// Package storage provides SQLite-based persistence for decoded SCIP indexes.
//
// The storage layer manages:
//   - Index metadata (source file, producing tool, content hash)
//   - Documents and their content hashes
//   - Decoded symbols and their descriptor chains
//   - Occurrences with 1-based ranges
//   - Full-text search indexes
//
// # Database Schema
//
// Tables:
//   - indexes: One row per ingested .scip file
//   - documents: Relative paths, languages and SHA-256 hashes
//   - symbols: Decoded symbols; document_id is 0 for global symbols
//   - descriptors: Ordered descriptor chain of each global symbol
//   - occurrences: Symbol mentions inside documents
//   - symbols_fts: FTS5 index over display names, descriptor paths,
//     package names and documentation
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("~/.scipsym/scipsym.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	index := &storage.Index{SourcePath: "/work/app/index.scip"}
//	if err := store.CreateIndex(ctx, index); err != nil {
//	    log.Fatal(err)
//	}
//
// # Transactions
//
// Use transactions for atomic operations. Every call on a Tx runs on the
// transaction's connection:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer func() { _ = tx.Rollback() }()
//
//	sym := storage.FromTypesSymbol(text, parser.ParseSymbol(text), index.ID, doc.ID)
//	if err := tx.UpsertSymbol(ctx, sym); err != nil {
//	    return err
//	}
//
//	return tx.Commit()
//
// # Symbols
//
// FromTypesSymbol flattens a decoded symbol into a row plus its descriptors;
// ToTypesSymbol rebuilds it. Absent package fields are stored as NULL and
// present empty strings as '', so the round trip is exact.
//
// # Full-Text Search
//
// SearchSymbols ranks symbols with BM25. Every query term is matched as a
// prefix, and scores are normalized into (0, 1]:
//
//	results, err := store.SearchSymbols(ctx, index.ID, "Terminal", 10, &storage.SearchFilters{
//	    Schemes: []string{"rust-analyzer"},
//	    Kinds:   []string{"type"},
//	})
//
// LookupSymbols matches the raw symbol text exactly or by prefix.
//
// # Build Tags
//
// The storage package supports two build configurations:
//
// Pure Go Build (default, purego tag):
//
//   - Uses modernc.org/sqlite driver
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build -tags "purego"
//
// CGO Build (sqlite_cgo tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Requires C compiler and the sqlite_fts5 tag for full-text search
//
//     CGO_ENABLED=1 go build -tags "sqlite_cgo,sqlite_fts5"
package storage
