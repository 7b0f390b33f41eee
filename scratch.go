package linesort

import (
	"fmt"
	"os"
	"path/filepath"
)

// scratch is a per-run scoped scratch directory. Every intermediate
// artifact lives under it, so removing the directory on scope exit
// cleans up after success, failure, and cancellation alike. Two runs
// sharing a parent temp directory can never collide.
type scratch struct {
	dir string
}

func newScratch(parent string) (*scratch, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	dir, err := os.MkdirTemp(parent, "linesort-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	return &scratch{dir: dir}, nil
}

// unsortedPath names the split phase's chunk files. seq is the 1-based
// sequence index.
func (s *scratch) unsortedPath(seq int) string {
	return filepath.Join(s.dir, fmt.Sprintf("chunk-%06d.unsorted", seq))
}

// sortedPath names the chunk sort phase's output files.
func (s *scratch) sortedPath(seq int) string {
	return filepath.Join(s.dir, fmt.Sprintf("chunk-%06d.sorted", seq))
}

// mergedPath names one merge pass's output files. token is unique per
// pass, pos is the run's position within the pass, so no two writers
// across passes or groups ever share a filename.
func (s *scratch) mergedPath(token string, pos int) string {
	return filepath.Join(s.dir, fmt.Sprintf("merge-%s-%06d", token, pos))
}

// cleanup removes the scratch directory and everything beneath it.
// Idempotent.
func (s *scratch) cleanup() error {
	if s == nil || s.dir == "" {
		return nil
	}
	err := os.RemoveAll(s.dir)
	s.dir = ""
	return err
}
