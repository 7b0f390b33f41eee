package linesort

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/edsrzf/mmap-go"

	lserrors "github.com/lindhal/linesort/errors"
	"github.com/lindhal/linesort/internal/lineio"
)

// contextCheckInterval is how often split, merge, and fast-path write
// loops check for context cancellation, in records.
const contextCheckInterval = 10000

// Stats reports what a completed Sort did.
type Stats struct {
	InputBytes  int64
	InputRows   int64
	OutputBytes int64
	Chunks      int
	MergePasses int

	SplitTime time.Duration
	SortTime  time.Duration
	MergeTime time.Duration
}

// Sort reads the separator-delimited records in inputPath and writes the
// same multiset of records to outputPath, ordered by the comparison
// function (bytes.Compare unless WithCompare overrides it). Equal-ranked
// records have unspecified relative order.
//
// Inputs no larger than the chunk size are sorted entirely in memory.
// Larger inputs are split into record-aligned chunks, sorted under
// bounded parallelism, and k-way merged in passes; all intermediate
// files live in a per-run scratch directory removed before Sort
// returns, whatever the outcome.
//
// Cancelling ctx makes Sort return the context's error. A cancelled or
// failed run may leave a partial output file; it never leaves scratch
// files. No operation is retried: a failed run is simply re-invoked.
func Sort(ctx context.Context, inputPath, outputPath string, opts ...Option) (stats *Stats, err error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	size := info.Size()

	splitRep := newReporter(cfg.splitProgress)
	sortRep := newReporter(cfg.sortProgress)
	mergeRep := newReporter(cfg.mergeProgress)

	if size <= cfg.chunkSize {
		return sortInMemory(ctx, inputPath, outputPath, size, cfg, splitRep, sortRep, mergeRep)
	}

	sc, err := newScratch(cfg.tempDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, sc.cleanup())
	}()

	stats = &Stats{InputBytes: size}

	start := time.Now()
	sres, err := splitFile(ctx, inputPath, size, sc, cfg, splitRep)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	stats.SplitTime = time.Since(start)
	stats.Chunks = len(sres.chunks)
	stats.InputRows = sres.totalRows

	pool := newBufferPool(cfg.parallelism, sres.maxBytes, sres.maxRows)
	start = time.Now()
	sorted, err := sortChunks(ctx, sres.chunks, sc, pool, cfg, sortRep)
	if err != nil {
		return nil, fmt.Errorf("sort: %w", err)
	}
	stats.SortTime = time.Since(start)

	start = time.Now()
	written, outDigest, passes, err := mergeChunks(ctx, sorted, outputPath, sres.trailingSep, sc, cfg, mergeRep)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	stats.MergeTime = time.Since(start)
	stats.MergePasses = passes
	stats.OutputBytes = written

	if cfg.verify && outDigest != sres.digest {
		return nil, fmt.Errorf("%w: input %016x, output %016x",
			lserrors.ErrVerifyMismatch, sres.digest, outDigest)
	}
	return stats, nil
}

// sortInMemory is the small-input fast path: the whole file is mapped,
// carved into rows, sorted, and written in one pass with no splitting,
// merging, or scratch files.
func sortInMemory(ctx context.Context, inputPath, outputPath string, size int64, cfg *config, splitRep, sortRep, mergeRep *reporter) (stats *Stats, err error) {
	stats = &Stats{InputBytes: size}
	finish := func() {
		splitRep.done()
		sortRep.done()
		mergeRep.done()
	}

	if size == 0 {
		out, cerr := os.Create(outputPath)
		if cerr != nil {
			return nil, fmt.Errorf("create output: %w", cerr)
		}
		if cerr := out.Close(); cerr != nil {
			return nil, cerr
		}
		finish()
		return stats, nil
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap input: %w", err)
	}
	defer func() {
		err = errors.Join(err, mm.Unmap())
	}()
	data := []byte(mm)
	prefaultRegion(data)

	trailingSep := data[len(data)-1] == cfg.separator
	rows := carveRows(nil, data, cfg.separator)
	stats.InputRows = int64(len(rows))
	splitRep.done()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	start := time.Now()
	slices.SortFunc(rows, cfg.compare)
	stats.SortTime = time.Since(start)
	sortRep.done()

	out, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	w := lineio.NewWriter(out, cfg.separator, cfg.sortWriteBuf)
	for i, row := range rows {
		if err := w.Append(row); err != nil {
			return nil, fmt.Errorf("write output: %w", err)
		}
		if (i+1)%contextCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
	}
	if err := w.Finish(trailingSep); err != nil {
		return nil, fmt.Errorf("flush output: %w", err)
	}
	stats.OutputBytes = w.Written()
	finish()
	return stats, nil
}
