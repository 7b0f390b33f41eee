//go:build !linux && !darwin

package linesort

import "os"

// fallocateFile reserves disk blocks for merge outputs so a full disk
// fails the pass up front. On platforms without native fallocate, uses
// Truncate as a fallback.
// Note: This sets file size but may not reserve actual disk blocks on all filesystems.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
