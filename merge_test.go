package linesort

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// writeSortedChunkFile writes lines (already sorted by the caller) as a
// sorted chunk with a trailing separator and returns its chunkFile.
func writeSortedChunkFile(t *testing.T, path string, seq int, lines []string) chunkFile {
	t.Helper()
	content := joinLines(lines, '\n', true)
	writeTestFile(t, path, content)
	return chunkFile{path: path, seq: seq, rows: int64(len(lines)), size: int64(len(content))}
}

func TestEstimateMergeOutputs(t *testing.T) {
	tests := []struct {
		n, k, want int
	}{
		{8, 2, 7},  // 4 + 2 + 1
		{9, 3, 4},  // 3 + 1
		{10, 3, 4}, // 3 + 1
		{100, 4, 32},
		{2, 2, 1},
		{3, 2, 1},
		{1, 2, 1}, // clamped to 1
	}
	for _, tt := range tests {
		if got := estimateMergeOutputs(tt.n, tt.k); got != tt.want {
			t.Errorf("estimateMergeOutputs(%d, %d) = %d, want %d", tt.n, tt.k, got, tt.want)
		}
	}
}

func TestGroupRuns(t *testing.T) {
	chunks := make([]chunkFile, 7)
	for i := range chunks {
		chunks[i].seq = i
	}
	groups := groupRuns(chunks, 3)
	wantSizes := []int{3, 3, 1}
	if len(groups) != len(wantSizes) {
		t.Fatalf("got %d groups, want %d", len(groups), len(wantSizes))
	}
	next := 0
	for i, g := range groups {
		if len(g) != wantSizes[i] {
			t.Errorf("group %d has %d chunks, want %d", i, len(g), wantSizes[i])
		}
		for _, ch := range g {
			if ch.seq != next {
				t.Errorf("group %d out of sequence: got %d, want %d", i, ch.seq, next)
			}
			next++
		}
	}
}

func TestKWayMerge(t *testing.T) {
	dir := t.TempDir()
	inputs := []chunkFile{
		writeSortedChunkFile(t, filepath.Join(dir, "a"), 1, []string{"apple", "melon", "pear"}),
		writeSortedChunkFile(t, filepath.Join(dir, "b"), 2, []string{"banana", "cherry"}),
		writeSortedChunkFile(t, filepath.Join(dir, "c"), 3, []string{"fig"}),
	}
	out := filepath.Join(dir, "merged")

	cfg := defaultConfig()
	written, err := kwayMerge(context.Background(), inputs, out, true, nil, cfg)
	if err != nil {
		t.Fatalf("kwayMerge: %v", err)
	}

	want := "apple\nbanana\ncherry\nfig\nmelon\npear\n"
	got := readTestFile(t, out)
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if written != int64(len(want)) {
		t.Errorf("written = %d, want %d", written, len(want))
	}
}

func TestKWayMergeNoTrailingSeparator(t *testing.T) {
	dir := t.TempDir()
	inputs := []chunkFile{
		writeSortedChunkFile(t, filepath.Join(dir, "a"), 1, []string{"b"}),
		writeSortedChunkFile(t, filepath.Join(dir, "b"), 2, []string{"a"}),
	}
	out := filepath.Join(dir, "merged")

	cfg := defaultConfig()
	if _, err := kwayMerge(context.Background(), inputs, out, false, nil, cfg); err != nil {
		t.Fatalf("kwayMerge: %v", err)
	}
	if got := readTestFile(t, out); got != "a\nb" {
		t.Errorf("got %q, want %q", got, "a\nb")
	}
}

func TestKWayMergeDuplicates(t *testing.T) {
	dir := t.TempDir()
	inputs := []chunkFile{
		writeSortedChunkFile(t, filepath.Join(dir, "a"), 1, []string{"x", "x", "y"}),
		writeSortedChunkFile(t, filepath.Join(dir, "b"), 2, []string{"x", "y"}),
	}
	out := filepath.Join(dir, "merged")

	cfg := defaultConfig()
	if _, err := kwayMerge(context.Background(), inputs, out, true, nil, cfg); err != nil {
		t.Fatalf("kwayMerge: %v", err)
	}
	if got := readTestFile(t, out); got != "x\nx\nx\ny\ny\n" {
		t.Errorf("got %q", got)
	}
}

func TestMergeChunksMultiPass(t *testing.T) {
	// 9 chunks with fan-in 2 forces several passes; the inputs of each
	// pass must be gone afterwards and the final output totally ordered.
	dir := t.TempDir()
	sc, err := newScratch(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sc.cleanup() })

	rng := newTestRNG(t)
	var all []string
	var chunks []chunkFile
	for seq := 1; seq <= 9; seq++ {
		lines := sortedCopy(randomLines(rng, 50, 2, 12))
		all = append(all, lines...)
		chunks = append(chunks, writeSortedChunkFile(t, sc.sortedPath(seq), seq, lines))
	}

	out := filepath.Join(dir, "output")
	cfg := defaultConfig()
	cfg.parallelism = 2

	var log progressLog
	_, _, passes, err := mergeChunks(context.Background(), chunks, out, true, sc, cfg, newReporter(log.callback()))
	if err != nil {
		t.Fatalf("mergeChunks: %v", err)
	}
	if passes < 2 {
		t.Errorf("passes = %d, want >= 2", passes)
	}

	got := splitContent(readTestFile(t, out), '\n')
	if !sameMultiset(all, got) {
		t.Fatal("merged output is not the input multiset")
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Fatalf("output not sorted at %d", i)
		}
	}
	log.check(t, "merge")

	// Every intermediate file must have been deleted.
	entries, err := os.ReadDir(sc.dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%d leftover scratch files", len(entries))
	}
}

func TestMergeChunksBaseCase(t *testing.T) {
	// With at most two chunks everything goes straight into the final
	// output: no intermediate merge files at all.
	for _, n := range []int{1, 2} {
		t.Run(fmt.Sprintf("chunks_%d", n), func(t *testing.T) {
			dir := t.TempDir()
			sc, err := newScratch(dir)
			if err != nil {
				t.Fatal(err)
			}
			t.Cleanup(func() { sc.cleanup() })

			var chunks []chunkFile
			var all []string
			for seq := 1; seq <= n; seq++ {
				lines := sortedCopy(randomLines(newTestRNG(t), 20, 2, 8))
				all = append(all, lines...)
				chunks = append(chunks, writeSortedChunkFile(t, sc.sortedPath(seq), seq, lines))
			}

			out := filepath.Join(dir, "output")
			cfg := defaultConfig()
			_, _, passes, err := mergeChunks(context.Background(), chunks, out, true, sc, cfg, newReporter(nil))
			if err != nil {
				t.Fatalf("mergeChunks: %v", err)
			}
			if passes != 0 {
				t.Errorf("passes = %d, want 0", passes)
			}
			got := splitContent(readTestFile(t, out), '\n')
			if !sameMultiset(all, got) {
				t.Error("output is not the input multiset")
			}
		})
	}
}

func TestMergeChunksVerifyDigest(t *testing.T) {
	dir := t.TempDir()
	sc, err := newScratch(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sc.cleanup() })

	lines := []string{"a", "b", "c"}
	chunks := []chunkFile{writeSortedChunkFile(t, sc.sortedPath(1), 1, lines)}

	cfg := defaultConfig()
	cfg.verify = true
	out := filepath.Join(dir, "output")
	_, digest, _, err := mergeChunks(context.Background(), chunks, out, true, sc, cfg, newReporter(nil))
	if err != nil {
		t.Fatalf("mergeChunks: %v", err)
	}

	var want contentDigest
	want.algo = cfg.digest
	for _, l := range lines {
		want.add([]byte(l))
	}
	if digest != want.sum {
		t.Errorf("digest = %016x, want %016x", digest, want.sum)
	}
}
