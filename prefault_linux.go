//go:build linux

package linesort

import "golang.org/x/sys/unix"

// prefaultRegion asks the kernel to start paging in a mapped region the
// fast path is about to scan. Best-effort: errors are ignored.
func prefaultRegion(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_WILLNEED)
}
