package linesort

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
)

// newTestRNG returns a deterministic generator seeded from the test
// name, so each test gets stable but distinct data.
func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	return rand.New(rand.NewPCG(xxhash.Sum64String(t.Name()), 0x9e3779b97f4a7c15))
}

const testAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// randomLines creates n pseudo-random records with lengths in
// [minLen, maxLen].
func randomLines(rng *rand.Rand, n, minLen, maxLen int) []string {
	lines := make([]string, n)
	for i := range lines {
		b := make([]byte, minLen+rng.IntN(maxLen-minLen+1))
		for j := range b {
			b[j] = testAlphabet[rng.IntN(len(testAlphabet))]
		}
		lines[i] = string(b)
	}
	return lines
}

// joinLines renders records as file content, optionally with a trailing
// separator.
func joinLines(lines []string, sep byte, trailing bool) string {
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte(sep)
		}
		sb.WriteString(l)
	}
	if trailing && len(lines) > 0 {
		sb.WriteByte(sep)
	}
	return sb.String()
}

// splitContent is the inverse of joinLines: file content to records.
func splitContent(content string, sep byte) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, string(sep))
	return strings.Split(content, string(sep))
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

// runSort writes content to a fresh input file, sorts it into a fresh
// output file, and returns the output content.
func runSort(t *testing.T, content string, opts ...Option) string {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "input")
	out := filepath.Join(dir, "output")
	writeTestFile(t, in, content)
	if _, err := Sort(context.Background(), in, out, opts...); err != nil {
		t.Fatalf("Sort: %v", err)
	}
	return readTestFile(t, out)
}

func sortedCopy(lines []string) []string {
	c := slices.Clone(lines)
	slices.Sort(c)
	return c
}

// sameMultiset reports whether a and b hold the same records ignoring
// order.
func sameMultiset(a, b []string) bool {
	return slices.Equal(sortedCopy(a), sortedCopy(b))
}

// checkDirEmpty fails the test if dir contains any entries.
func checkDirEmpty(t *testing.T, dir string, ignore ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	for _, e := range entries {
		if slices.Contains(ignore, e.Name()) {
			continue
		}
		t.Errorf("unexpected leftover %s in %s", e.Name(), dir)
	}
}
