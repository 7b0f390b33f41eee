package linesort

// rowBuffer is the reusable working memory for sorting one chunk: a
// byte arena holding the chunk's raw contents and a row slice indexing
// individual records inside it.
type rowBuffer struct {
	arena []byte
	rows  [][]byte
}

// bufferPool is a fixed-capacity cache of rowBuffers shared across
// concurrent sort workers. acquire returns a cached buffer or allocates
// on miss; release returns a buffer for reuse, dropping it when the
// pool is full. Capacity equals the parallelism degree, and since every
// worker releases its buffer before the slot is reused, the pool never
// grows past capacity.
//
// The pool is a buffered channel, so acquire/release never hold a lock
// and in particular never hold one across I/O.
type bufferPool struct {
	free     chan *rowBuffer
	arenaCap int64
	rowsCap  int64
}

// newBufferPool sizes buffers for the largest chunk observed during
// splitting: maxBytes is the largest chunk byte size, maxRows the
// largest per-chunk row count.
func newBufferPool(capacity int, maxBytes, maxRows int64) *bufferPool {
	return &bufferPool{
		free:     make(chan *rowBuffer, capacity),
		arenaCap: maxBytes,
		rowsCap:  maxRows,
	}
}

func (p *bufferPool) acquire() *rowBuffer {
	select {
	case b := <-p.free:
		return b
	default:
		return &rowBuffer{
			arena: make([]byte, 0, p.arenaCap),
			rows:  make([][]byte, 0, p.rowsCap),
		}
	}
}

func (p *bufferPool) release(b *rowBuffer) {
	// Drop row references before caching so the pool never pins a
	// previous chunk's data.
	clear(b.rows)
	b.rows = b.rows[:0]
	b.arena = b.arena[:0]
	select {
	case p.free <- b:
	default:
	}
}
