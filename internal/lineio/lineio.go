// Package lineio provides buffered readers and writers for
// separator-delimited record files.
//
// Records are opaque byte sequences. The separator byte is never part of
// a record: readers strip it, writers insert it between records.
package lineio

import (
	"bufio"
	"io"
)

// Reader yields successive records from an underlying io.Reader.
type Reader struct {
	br  *bufio.Reader
	sep byte

	// long holds records that span more than one bufio fill.
	long []byte
}

// NewReader returns a Reader over r with the given separator and
// internal buffer size.
func NewReader(r io.Reader, sep byte, bufSize int) *Reader {
	return &Reader{
		br:  bufio.NewReaderSize(r, bufSize),
		sep: sep,
	}
}

// Next returns the next record without its separator. The returned slice
// is only valid until the following call to Next. After the final record
// Next returns io.EOF. A final record with no trailing separator is
// returned as-is.
func (r *Reader) Next() ([]byte, error) {
	chunk, err := r.br.ReadSlice(r.sep)
	if err == nil {
		return chunk[:len(chunk)-1], nil
	}
	if err == io.EOF {
		if len(chunk) == 0 {
			return nil, io.EOF
		}
		// Unterminated final record.
		return chunk, nil
	}
	if err != bufio.ErrBufferFull {
		return nil, err
	}

	// The record is longer than the bufio buffer. Accumulate the pieces
	// in r.long, reused across calls.
	r.long = append(r.long[:0], chunk...)
	for {
		chunk, err = r.br.ReadSlice(r.sep)
		r.long = append(r.long, chunk...)
		switch {
		case err == nil:
			return r.long[:len(r.long)-1], nil
		case err == io.EOF:
			return r.long, nil
		case err != bufio.ErrBufferFull:
			return nil, err
		}
	}
}

// Writer writes records separated by a single separator byte.
//
// The separator is written lazily, before the next record rather than
// after the previous one, so the caller can decide at Finish time
// whether the final record gets a trailing separator.
type Writer struct {
	bw      *bufio.Writer
	sep     byte
	pending bool
	written int64
}

// NewWriter returns a Writer over w with the given separator and
// internal buffer size.
func NewWriter(w io.Writer, sep byte, bufSize int) *Writer {
	return &Writer{
		bw:  bufio.NewWriterSize(w, bufSize),
		sep: sep,
	}
}

// Append writes one record.
func (w *Writer) Append(rec []byte) error {
	if w.pending {
		if err := w.bw.WriteByte(w.sep); err != nil {
			return err
		}
		w.written++
	}
	n, err := w.bw.Write(rec)
	w.written += int64(n)
	if err != nil {
		return err
	}
	w.pending = true
	return nil
}

// Written returns the number of bytes emitted so far, including any
// still buffered.
func (w *Writer) Written() int64 {
	return w.written
}

// Finish optionally terminates the final record with a separator and
// flushes all buffered data. The Writer must not be used afterwards.
func (w *Writer) Finish(trailingSep bool) error {
	if w.pending && trailingSep {
		if err := w.bw.WriteByte(w.sep); err != nil {
			return err
		}
		w.written++
	}
	return w.bw.Flush()
}
