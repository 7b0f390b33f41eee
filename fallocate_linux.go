//go:build linux

package linesort

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves disk blocks for merge outputs so a full disk
// fails the pass up front. On Linux, uses the fallocate syscall.
func fallocateFile(file *os.File, size int64) error {
	err := unix.Fallocate(int(file.Fd()), 0, 0, size)
	if err != nil {
		// Fallback to ftruncate if fallocate fails (e.g., NFS, some filesystems)
		return unix.Ftruncate(int(file.Fd()), size)
	}
	// Fallocate allocates blocks but doesn't set file size - must also truncate
	return unix.Ftruncate(int(file.Fd()), size)
}
