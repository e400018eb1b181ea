// Package indexer ingests serialized SCIP indexes into the symbol catalog.
//
// # Basic Usage
//
//	idx := indexer.New(store)
//
//	stats, err := idx.IndexFile(ctx, "/work/app/index.scip", &indexer.Config{
//	    InferLanguage: true,
//	})
//
//	fmt.Printf("Indexed %d documents in %v\n", stats.DocumentsIndexed, stats.Duration)
//
// # Pipeline
//
//  1. Hash the .scip file and look up its index row
//  2. Decode the index with the parser, decoding every symbol it mentions
//  3. Upsert all global symbols in one transaction
//  4. Store documents in batches, one transaction per batch
//  5. Remove documents the index no longer contains, then global symbols
//     it no longer mentions
//  6. Update totals and record the file hash
//
// # Incremental Indexing
//
// Two levels of SHA-256 hashing avoid repeated work. If the whole file is
// unchanged the index is not decoded at all and Statistics.Unchanged is set.
// Otherwise each document's hash is compared with the stored one and only
// changed documents are rewritten. Config.Force disables both checks.
//
// The file hash is recorded only when no document failed, so a partly
// failed run is retried in full the next time.
//
// # Concurrency
//
// Batches run in an errgroup, bounded by a semaphore of Config.Workers
// slots. Global symbol IDs are resolved up front, so batches only read the
// shared ID map.
//
// # Error Handling
//
// IndexFile returns an error only for fatal problems such as an unreadable
// file or a storage failure. Malformed occurrences and documents that fail to
// store are reported in Statistics.ErrorMessages and the run continues:
//
//	if stats.DocumentsFailed > 0 {
//	    for _, msg := range stats.ErrorMessages {
//	        log.Printf("index: %s", msg)
//	    }
//	}
//
// IndexLock lets callers refuse a second concurrent ingest instead of
// queueing it.
package indexer
