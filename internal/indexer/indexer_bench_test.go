package indexer

import (
	"context"
	"fmt"
	"testing"

	"github.com/sourcegraph/scip/bindings/go/scip"

	"github.com/dshills/scipsym/internal/storage"
)

// benchIndex builds an index with docs documents of occs occurrences each
func benchIndex(docs, occs int) *scip.Index {
	index := &scip.Index{Metadata: &scip.Metadata{ToolInfo: &scip.ToolInfo{Name: "bench"}}}
	for d := 0; d < docs; d++ {
		doc := &scip.Document{RelativePath: fmt.Sprintf("pkg%d/file%d.go", d%10, d), Language: "go"}
		for o := 0; o < occs; o++ {
			doc.Occurrences = append(doc.Occurrences, &scip.Occurrence{
				Range:  []int32{int32(o), 0, 10},
				Symbol: fmt.Sprintf("scip-go gomod example.com/app v1 pkg%d/Type%d#Method%d().", d%10, o%20, o),
			})
		}
		doc.Occurrences = append(doc.Occurrences, &scip.Occurrence{Range: []int32{0, 0, 1}, Symbol: "local 0"})
		index.Documents = append(index.Documents, doc)
	}
	return index
}

// BenchmarkIndexFile benchmarks a full ingest into a fresh catalog
func BenchmarkIndexFile(b *testing.B) {
	path := writeIndex(b, b.TempDir(), benchIndex(100, 50))

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		store, err := storage.NewSQLiteStorage(":memory:")
		if err != nil {
			b.Fatal(err)
		}
		idx := New(store)
		b.StartTimer()

		if _, err := idx.IndexFile(context.Background(), path, &Config{Workers: 4, BatchSize: 20}); err != nil {
			b.Fatal(err)
		}

		b.StopTimer()
		_ = store.Close()
		b.StartTimer()
	}
}

// BenchmarkIncrementalIndex benchmarks re-ingesting an unchanged file
func BenchmarkIncrementalIndex(b *testing.B) {
	path := writeIndex(b, b.TempDir(), benchIndex(100, 50))

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = store.Close() }()

	idx := New(store)
	if _, err := idx.IndexFile(context.Background(), path, nil); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := idx.IndexFile(context.Background(), path, nil); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkBatchSizes compares transaction batch sizes
func BenchmarkBatchSizes(b *testing.B) {
	path := writeIndex(b, b.TempDir(), benchIndex(200, 20))

	for _, size := range []int{1, 10, 50, 200} {
		b.Run(fmt.Sprintf("batch=%d", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				store, err := storage.NewSQLiteStorage(":memory:")
				if err != nil {
					b.Fatal(err)
				}
				b.StartTimer()

				if _, err := New(store).IndexFile(context.Background(), path, &Config{Workers: 4, BatchSize: size}); err != nil {
					b.Fatal(err)
				}

				b.StopTimer()
				_ = store.Close()
				b.StartTimer()
			}
		})
	}
}

// BenchmarkFileHashing benchmarks hashing the serialized index
func BenchmarkFileHashing(b *testing.B) {
	path := writeIndex(b, b.TempDir(), benchIndex(500, 50))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := computeFileHash(path); err != nil {
			b.Fatal(err)
		}
	}
}
