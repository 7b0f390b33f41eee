package linesort

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	lserrors "github.com/lindhal/linesort/errors"
	"github.com/lindhal/linesort/internal/lineio"
)

// sortChunks sorts every chunk in place under the comparison function,
// at most cfg.parallelism chunks concurrently. Workers share the buffer
// pool; each one releases its buffer before its slot is reused, so the
// pool never holds more than parallelism buffers.
//
// Completion order is arbitrary but the returned slice is in sequence
// order: results land at their chunk's index, not in finish order.
func sortChunks(ctx context.Context, chunks []chunkFile, sc *scratch, pool *bufferPool, cfg *config, rep *reporter) ([]chunkFile, error) {
	sorted := make([]chunkFile, len(chunks))
	var completed atomic.Int64
	total := float64(len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.parallelism)
	for i, ch := range chunks {
		g.Go(func() error {
			// A chunk either completes sorting or is never started:
			// no mid-chunk cancellation checks.
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := sortOneChunk(ch, sc.sortedPath(ch.seq), pool, cfg)
			if err != nil {
				return fmt.Errorf("sort chunk %d: %w", ch.seq, err)
			}
			sorted[i] = out
			rep.report(float64(completed.Add(1)) / total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	rep.done()
	return sorted, nil
}

// sortOneChunk loads a chunk's rows into a pooled buffer, sorts them,
// writes the sorted chunk, and deletes the source file. Sorted chunks
// always end with a trailing separator regardless of the source.
func sortOneChunk(ch chunkFile, outPath string, pool *bufferPool, cfg *config) (out chunkFile, err error) {
	f, err := os.Open(ch.path)
	if err != nil {
		return chunkFile{}, err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	fadviseSequential(int(f.Fd()), 0, ch.size)

	buf := pool.acquire()
	defer pool.release(buf)

	if int64(cap(buf.arena)) < ch.size {
		buf.arena = make([]byte, ch.size)
	} else {
		buf.arena = buf.arena[:ch.size]
	}
	if _, err := io.ReadFull(bufio.NewReaderSize(f, cfg.sortReadBuf), buf.arena); err != nil {
		return chunkFile{}, fmt.Errorf("read chunk: %w", err)
	}

	buf.rows = carveRows(buf.rows, buf.arena, cfg.separator)
	if int64(len(buf.rows)) != ch.rows {
		return chunkFile{}, fmt.Errorf("%w: chunk %d carved %d rows, split counted %d",
			lserrors.ErrRowCountDrift, ch.seq, len(buf.rows), ch.rows)
	}

	slices.SortFunc(buf.rows, cfg.compare)

	written, err := writeSortedChunk(outPath, buf.rows, cfg)
	if err != nil {
		return chunkFile{}, err
	}
	if err := os.Remove(ch.path); err != nil {
		return chunkFile{}, fmt.Errorf("remove source chunk: %w", err)
	}
	return chunkFile{path: outPath, seq: ch.seq, rows: ch.rows, size: written}, nil
}

// carveRows slices data into records, excluding separators. data must
// be record-boundary aligned; a final unterminated record is included.
func carveRows(rows [][]byte, data []byte, sep byte) [][]byte {
	for len(data) > 0 {
		i := bytes.IndexByte(data, sep)
		if i < 0 {
			return append(rows, data)
		}
		rows = append(rows, data[:i])
		data = data[i+1:]
	}
	return rows
}

func writeSortedChunk(path string, rows [][]byte, cfg *config) (written int64, err error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	w := lineio.NewWriter(out, cfg.separator, cfg.sortWriteBuf)
	for _, row := range rows {
		if err := w.Append(row); err != nil {
			return 0, fmt.Errorf("write sorted chunk: %w", err)
		}
	}
	if err := w.Finish(true); err != nil {
		return 0, fmt.Errorf("flush sorted chunk: %w", err)
	}
	return w.Written(), nil
}
