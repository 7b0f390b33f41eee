package linesort

import (
	"bytes"
	"runtime"

	lserrors "github.com/lindhal/linesort/errors"
)

const (
	defaultChunkSize = int64(64 << 20)

	defaultReadBufferSize  = 256 << 10
	defaultWriteBufferSize = 256 << 10
)

// Compare defines the total order over records. It returns a negative
// number when a sorts before b, zero when they are equal-ranked, and a
// positive number when a sorts after b.
//
// Equal-ranked records keep no particular relative order: neither the
// chunk sort nor the merge is stable.
type Compare func(a, b []byte) int

// Progress receives monotonically non-decreasing fractions in [0, 1].
// The final call of a successful phase is exactly 1. During parallel
// phases the callback may be invoked concurrently.
type Progress func(fraction float64)

// Option is a functional option for configuring a sort.
type Option func(*config)

type config struct {
	chunkSize   int64
	separator   byte
	parallelism int
	tempDir     string

	splitReadBuf  int
	splitWriteBuf int
	sortReadBuf   int
	sortWriteBuf  int
	mergeReadBuf  int
	mergeWriteBuf int

	compare Compare

	splitProgress Progress
	sortProgress  Progress
	mergeProgress Progress

	verify bool
	digest DigestAlgorithmID
}

func defaultConfig() *config {
	return &config{
		chunkSize:     defaultChunkSize,
		separator:     '\n',
		parallelism:   runtime.GOMAXPROCS(0),
		splitReadBuf:  defaultReadBufferSize,
		splitWriteBuf: defaultWriteBufferSize,
		sortReadBuf:   defaultReadBufferSize,
		sortWriteBuf:  defaultWriteBufferSize,
		mergeReadBuf:  defaultReadBufferSize,
		mergeWriteBuf: defaultWriteBufferSize,
		compare:       bytes.Compare,
		digest:        DigestXXH64,
	}
}

func (c *config) validate() error {
	if c.chunkSize <= 0 {
		return lserrors.ErrInvalidChunkSize
	}
	if c.parallelism <= 0 {
		return lserrors.ErrInvalidParallelism
	}
	if c.splitReadBuf <= 0 || c.splitWriteBuf <= 0 ||
		c.sortReadBuf <= 0 || c.sortWriteBuf <= 0 ||
		c.mergeReadBuf <= 0 || c.mergeWriteBuf <= 0 {
		return lserrors.ErrInvalidBufferSize
	}
	if c.compare == nil {
		return lserrors.ErrNilCompare
	}
	if !c.digest.valid() {
		return lserrors.ErrUnknownDigest
	}
	return nil
}

// WithChunkSize sets the target chunk size in bytes. A chunk may exceed
// the target by the length of the record straddling the boundary, since
// chunk boundaries always align with record boundaries.
func WithChunkSize(n int64) Option {
	return func(c *config) {
		c.chunkSize = n
	}
}

// WithSeparator sets the record separator byte. Default is '\n'.
func WithSeparator(sep byte) Option {
	return func(c *config) {
		c.separator = sep
	}
}

// WithParallelism sets the number of chunks sorted concurrently and the
// merge fan-in degree. Default is runtime.GOMAXPROCS(0).
func WithParallelism(n int) Option {
	return func(c *config) {
		c.parallelism = n
	}
}

// WithTempDir sets the parent directory for the per-run scratch
// directory. The directory must exist and should be on the same
// filesystem as the output so the working set never crosses devices.
// Default is os.TempDir().
func WithTempDir(dir string) Option {
	return func(c *config) {
		c.tempDir = dir
	}
}

// WithCompare sets the comparison function defining the output order.
// Default is bytes.Compare.
func WithCompare(cmp Compare) Option {
	return func(c *config) {
		c.compare = cmp
	}
}

// WithSplitBuffers sets the read and write buffer sizes for the split
// phase.
func WithSplitBuffers(read, write int) Option {
	return func(c *config) {
		c.splitReadBuf = read
		c.splitWriteBuf = write
	}
}

// WithSortBuffers sets the read and write buffer sizes for the chunk
// sort phase.
func WithSortBuffers(read, write int) Option {
	return func(c *config) {
		c.sortReadBuf = read
		c.sortWriteBuf = write
	}
}

// WithMergeBuffers sets the per-cursor read buffer size and the output
// write buffer size for the merge phase.
func WithMergeBuffers(read, write int) Option {
	return func(c *config) {
		c.mergeReadBuf = read
		c.mergeWriteBuf = write
	}
}

// WithSplitProgress installs a progress callback for the split phase.
func WithSplitProgress(fn Progress) Option {
	return func(c *config) {
		c.splitProgress = fn
	}
}

// WithSortProgress installs a progress callback for the chunk sort phase.
func WithSortProgress(fn Progress) Option {
	return func(c *config) {
		c.sortProgress = fn
	}
}

// WithMergeProgress installs a progress callback for the merge phase.
func WithMergeProgress(fn Progress) Option {
	return func(c *config) {
		c.mergeProgress = fn
	}
}

// WithVerify enables the end-to-end conservation check: an
// order-independent digest of all input records is compared against the
// same digest of all output records, and a mismatch fails the run with
// errors.ErrVerifyMismatch.
func WithVerify() Option {
	return func(c *config) {
		c.verify = true
	}
}

// WithDigestAlgorithm selects the hash used by WithVerify.
// Default is DigestXXH64.
func WithDigestAlgorithm(id DigestAlgorithmID) Option {
	return func(c *config) {
		c.digest = id
	}
}
