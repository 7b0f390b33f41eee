//go:build !linux

package linesort

// prefaultRegion is a no-op on non-Linux platforms.
func prefaultRegion(data []byte) {
	// No-op
}
