package linesort

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// chunkFile describes one scratch chunk handed from phase to phase.
// seq is 1-based and contiguous after splitting; during merge passes it
// becomes the position index within the pass.
type chunkFile struct {
	path string
	seq  int
	rows int64
	size int64
}

// splitResult carries everything the later phases depend on, including
// the max-rows / max-bytes statistics that size the sort buffer pool.
// Splitting must fully complete before sorting starts so those maxima
// cover every chunk.
type splitResult struct {
	chunks      []chunkFile
	maxRows     int64
	maxBytes    int64
	totalRows   int64
	trailingSep bool
	digest      uint64
}

// splitFile reads the input exactly once, sequentially, and writes
// record-boundary-aligned chunks of at most targetSize+overflow bytes.
// The overflow is the tail of the record straddling the target
// boundary, read one byte at a time until the separator or EOF.
func splitFile(ctx context.Context, inputPath string, totalSize int64, sc *scratch, cfg *config, rep *reporter) (res *splitResult, err error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	fadviseSequential(int(f.Fd()), 0, totalSize)

	sep := cfg.separator
	sepSlice := []byte{sep}
	r := bufio.NewReaderSize(f, cfg.splitReadBuf)
	buf := make([]byte, cfg.chunkSize)
	dig := contentDigest{algo: cfg.digest}
	res = &splitResult{trailingSep: true}

	var consumed int64
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		n, rerr := io.ReadFull(r, buf)
		if rerr == io.EOF {
			break
		}
		if rerr != nil && rerr != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("read input: %w", rerr)
		}
		data := buf[:n]

		// Extend byte by byte until the chunk ends on a record boundary.
		var overflow []byte
		if n == len(buf) && data[n-1] != sep {
			for {
				b, berr := r.ReadByte()
				if berr == io.EOF {
					break
				}
				if berr != nil {
					return nil, fmt.Errorf("read input: %w", berr)
				}
				overflow = append(overflow, b)
				if b == sep {
					break
				}
			}
		}

		rows := int64(bytes.Count(data, sepSlice)) + int64(bytes.Count(overflow, sepSlice))
		last := data[n-1]
		if len(overflow) > 0 {
			last = overflow[len(overflow)-1]
		}
		if last != sep {
			// Final record of the input has no trailing separator.
			rows++
			res.trailingSep = false
		}

		if cfg.verify {
			foldChunkDigest(&dig, data, overflow, sep)
		}

		seq := len(res.chunks) + 1
		ch := chunkFile{
			path: sc.unsortedPath(seq),
			seq:  seq,
			rows: rows,
			size: int64(n + len(overflow)),
		}
		if err := writeChunk(ch.path, data, overflow, cfg.splitWriteBuf); err != nil {
			return nil, fmt.Errorf("write chunk %d: %w", seq, err)
		}

		res.chunks = append(res.chunks, ch)
		res.totalRows += rows
		res.maxRows = max(res.maxRows, rows)
		res.maxBytes = max(res.maxBytes, ch.size)

		consumed += ch.size
		rep.report(float64(consumed) / float64(totalSize))
	}

	res.digest = dig.sum
	rep.done()
	return res, nil
}

// foldChunkDigest folds the chunk's records into the content digest.
// overflow, when present, is the tail of a record that started in data,
// so the two cannot be folded independently.
func foldChunkDigest(dig *contentDigest, data, overflow []byte, sep byte) {
	if len(overflow) == 0 {
		dig.fold(data, sep)
		return
	}
	i := bytes.LastIndexByte(data, sep)
	dig.fold(data[:i+1], sep)
	span := make([]byte, 0, len(data)-i-1+len(overflow))
	span = append(span, data[i+1:]...)
	span = append(span, overflow...)
	dig.fold(span, sep)
}

func writeChunk(path string, data, overflow []byte, bufSize int) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	w := bufio.NewWriterSize(out, bufSize)
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.Write(overflow); err != nil {
		return err
	}
	return w.Flush()
}
