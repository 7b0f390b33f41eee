// Package linesort implements an external merge sort for newline-delimited
// record files with bounded RAM usage.
//
// Linesort is designed for sorting files far larger than memory: the input
// is split into bounded chunks, chunks are sorted in parallel with buffer
// reuse, and sorted chunks are k-way merged in passes until a single
// totally ordered output remains. Records are opaque byte sequences; only
// the separator byte is interpreted.
//
// # Basic Usage
//
//	stats, err := linesort.Sort(ctx, "input.log", "sorted.log")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("sorted %d records\n", stats.InputRows)
//
// With a custom order and bounded resources:
//
//	stats, err := linesort.Sort(ctx, in, out,
//	    linesort.WithChunkSize(256<<20),
//	    linesort.WithParallelism(8),
//	    linesort.WithCompare(func(a, b []byte) int {
//	        return cmp.Compare(len(a), len(b))
//	    }),
//	)
//
// Inputs that fit inside one chunk are sorted entirely in memory with no
// scratch files. Larger inputs use a per-run scratch directory that is
// removed when Sort returns, whatever the outcome.
//
// # Package Structure
//
// The implementation is organized as follows:
//
//   - Public API: sorter.go (Sort, Stats), options.go (Option, With* functions)
//   - Phases: split.go, sort_chunks.go, merge.go (multi-pass k-way merge)
//   - Merge selection: rowheap.go (cursor min-heap)
//   - Shared state: pool.go (sort buffer pool), progress.go, scratch.go
//   - Verification: digest.go (selectable content digest algorithms)
//   - Record framing: internal/lineio
//   - Platform: fallocate_*.go, fadvise_*.go, prefault_*.go (OS-specific hints)
package linesort
