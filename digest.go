package linesort

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// DigestAlgorithmID selects the per-record hash used by the WithVerify
// conservation check.
type DigestAlgorithmID uint8

const (
	// DigestXXH64 uses xxHash64. Default.
	DigestXXH64 DigestAlgorithmID = iota
	// DigestXXH3 uses XXH3-64.
	DigestXXH3
	// DigestMurmur3 uses MurmurHash3 (64-bit half of the 128-bit variant).
	DigestMurmur3
)

func (id DigestAlgorithmID) valid() bool {
	switch id {
	case DigestXXH64, DigestXXH3, DigestMurmur3:
		return true
	}
	return false
}

func (id DigestAlgorithmID) String() string {
	switch id {
	case DigestXXH64:
		return "xxh64"
	case DigestXXH3:
		return "xxh3"
	case DigestMurmur3:
		return "murmur3"
	}
	return "unknown"
}

// sum hashes one record under the selected algorithm.
func (id DigestAlgorithmID) sum(rec []byte) uint64 {
	switch id {
	case DigestXXH3:
		return xxh3.Hash(rec)
	case DigestMurmur3:
		return murmur3.Sum64(rec)
	default:
		return xxhash.Sum64(rec)
	}
}

// contentDigest accumulates per-record hashes into an order-independent
// multiset digest. Wrapping uint64 addition makes the result invariant
// under any permutation of the records, which is exactly what sorting
// must preserve.
type contentDigest struct {
	algo DigestAlgorithmID
	sum  uint64
}

func (d *contentDigest) add(rec []byte) {
	d.sum += d.algo.sum(rec)
}

// fold accumulates every complete record in data. data must be
// record-boundary aligned; a final record without a trailing separator
// is counted too.
func (d *contentDigest) fold(data []byte, sep byte) {
	for len(data) > 0 {
		i := bytes.IndexByte(data, sep)
		if i < 0 {
			d.add(data)
			return
		}
		d.add(data[:i])
		data = data[i+1:]
	}
}
