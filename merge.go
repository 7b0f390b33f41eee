package linesort

import (
	"cmp"
	"container/heap"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lindhal/linesort/internal/lineio"
)

// mergeChunks repeatedly groups sorted chunks into runs of up to K
// consecutive chunks (K = parallelism, minimum 2) and merges each run,
// pass by pass, until at most two chunks remain; those are merged
// straight into the final output. Each pass's files carry a pass-unique
// token so concurrent tasks and successive passes never collide.
//
// Returns the output byte count, the output content digest (zero
// unless verification is on), and the number of intermediate passes
// run.
func mergeChunks(ctx context.Context, chunks []chunkFile, outputPath string, trailingSep bool, sc *scratch, cfg *config, rep *reporter) (int64, uint64, int, error) {
	k := max(2, cfg.parallelism)

	// Progress denominator, fixed before merging starts. An
	// approximation: fine for display, never used for correctness.
	totalEst := estimateMergeOutputs(len(chunks), k)
	var produced atomic.Int64

	passes := 0
	for len(chunks) > 2 {
		passes++
		token := uuid.NewString()
		groups := groupRuns(chunks, k)
		out := make([]chunkFile, len(groups))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.parallelism)
		for pos, run := range groups {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				dst := sc.mergedPath(token, pos)
				if len(run) == 1 {
					// Singleton run: claim the next pass's slot by
					// rename, no merge work.
					if err := os.Rename(run[0].path, dst); err != nil {
						return fmt.Errorf("promote chunk: %w", err)
					}
					out[pos] = chunkFile{path: dst, seq: pos, rows: run[0].rows, size: run[0].size}
				} else {
					written, err := kwayMerge(gctx, run, dst, true, nil, cfg)
					if err != nil {
						return fmt.Errorf("merge run %d: %w", pos, err)
					}
					var rows int64
					for _, ch := range run {
						rows += ch.rows
					}
					out[pos] = chunkFile{path: dst, seq: pos, rows: rows, size: written}
				}
				rep.report(float64(produced.Add(1)) / float64(totalEst))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return 0, 0, passes, err
		}

		// The pass is complete: every input row has been consumed, so
		// the inputs can go. Renamed singletons are already gone.
		for _, run := range groups {
			if len(run) == 1 {
				continue
			}
			for _, ch := range run {
				if err := os.Remove(ch.path); err != nil {
					return 0, 0, passes, fmt.Errorf("remove merged input: %w", err)
				}
			}
		}

		// Re-derive the next pass's chunk list in position order.
		slices.SortFunc(out, func(a, b chunkFile) int { return cmp.Compare(a.seq, b.seq) })
		chunks = out
	}

	var dig *contentDigest
	if cfg.verify {
		dig = &contentDigest{algo: cfg.digest}
	}
	written, err := kwayMerge(ctx, chunks, outputPath, trailingSep, dig, cfg)
	if err != nil {
		return 0, 0, passes, fmt.Errorf("final merge: %w", err)
	}
	for _, ch := range chunks {
		if err := os.Remove(ch.path); err != nil {
			return 0, 0, passes, fmt.Errorf("remove merged input: %w", err)
		}
	}
	rep.done()
	if dig != nil {
		return written, dig.sum, passes, nil
	}
	return written, 0, passes, nil
}

// groupRuns partitions chunks, in sequence order, into consecutive
// groups of at most k.
func groupRuns(chunks []chunkFile, k int) [][]chunkFile {
	groups := make([][]chunkFile, 0, (len(chunks)+k-1)/k)
	for len(chunks) > 0 {
		n := min(k, len(chunks))
		groups = append(groups, chunks[:n])
		chunks = chunks[n:]
	}
	return groups
}

// estimateMergeOutputs approximates how many chunks all merge passes
// will materialize with fan-in k: repeatedly divide the chunk count by
// k and accumulate the quotients until they reach zero.
func estimateMergeOutputs(n, k int) int {
	total := 0
	for n > 0 {
		n /= k
		total += n
	}
	return max(total, 1)
}

// kwayMerge merges the rows of the given sorted chunks into outPath.
// One cursor per input is primed with its first row; each step pops the
// smallest row off the cursor heap, writes it, and advances that
// cursor's reader. Cancellation is checked at write boundaries every
// contextCheckInterval rows; an aborted merge leaves a partial output
// for the scratch scope to clean up.
func kwayMerge(ctx context.Context, inputs []chunkFile, outPath string, trailingSep bool, dig *contentDigest, cfg *config) (written int64, err error) {
	var inputBytes int64
	files := make([]*os.File, 0, len(inputs))
	defer func() {
		for _, f := range files {
			err = errors.Join(err, f.Close())
		}
	}()

	h := &rowHeap{cursors: make([]*rowCursor, 0, len(inputs)), cmp: cfg.compare}
	for _, in := range inputs {
		f, oerr := os.Open(in.path)
		if oerr != nil {
			return 0, oerr
		}
		files = append(files, f)
		fadviseSequential(int(f.Fd()), 0, in.size)
		inputBytes += in.size

		r := lineio.NewReader(f, cfg.separator, cfg.mergeReadBuf)
		row, rerr := r.Next()
		if rerr == io.EOF {
			continue
		}
		if rerr != nil {
			return 0, fmt.Errorf("prime cursor: %w", rerr)
		}
		h.cursors = append(h.cursors, &rowCursor{row: row, src: r})
	}
	heap.Init(h)

	out, err := os.Create(outPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()
	// Reserve the full output up front so a full disk fails the pass
	// immediately instead of mid-merge.
	if err := fallocateFile(out, inputBytes); err != nil {
		return 0, fmt.Errorf("preallocate merge output: %w", err)
	}

	w := lineio.NewWriter(out, cfg.separator, cfg.mergeWriteBuf)
	n := 0
	for h.Len() > 0 {
		cur := h.cursors[0]
		if err := w.Append(cur.row); err != nil {
			return 0, fmt.Errorf("write record: %w", err)
		}
		if dig != nil {
			dig.add(cur.row)
		}

		n++
		if n%contextCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			default:
			}
		}

		row, rerr := cur.src.Next()
		switch {
		case rerr == io.EOF:
			heap.Pop(h)
		case rerr != nil:
			return 0, fmt.Errorf("advance cursor: %w", rerr)
		default:
			cur.row = row
			heap.Fix(h, 0)
		}
	}

	if err := w.Finish(trailingSep); err != nil {
		return 0, fmt.Errorf("flush output: %w", err)
	}
	// Without a trailing separator the output is one byte short of the
	// reservation.
	if w.Written() != inputBytes {
		if err := out.Truncate(w.Written()); err != nil {
			return 0, fmt.Errorf("trim output: %w", err)
		}
	}
	return w.Written(), nil
}
