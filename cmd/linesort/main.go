// Command linesort sorts a newline-delimited record file that may be far
// larger than memory.
//
// Usage:
//
//	linesort -input huge.log -output sorted.log
//	linesort -input export.csv -output sorted.csv -chunksize 268435456 -parallelism 8
//	linesort -input data.bin -output sorted.bin -separator '\0' -verify
//
// Configuration is read from flags, environment variables, or a JSON
// config file (goconfig conventions).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fulldump/goconfig"

	"github.com/lindhal/linesort"
)

type cmdConfig struct {
	Input       string `usage:"input file path"`
	Output      string `usage:"output file path"`
	ChunkSize   int64  `usage:"target chunk size in bytes"`
	Parallelism int    `usage:"sort workers and merge fan-in"`
	Separator   string `usage:"record separator: one literal byte, or \\n \\t \\0"`
	TempDir     string `usage:"parent directory for scratch files"`
	Verify      bool   `usage:"check that output content matches input"`
	Digest      string `usage:"verify digest algorithm: xxh64, xxh3, murmur3"`
	Quiet       bool   `usage:"suppress progress output"`
}

func main() {
	c := cmdConfig{
		ChunkSize:   64 << 20,
		Parallelism: runtime.GOMAXPROCS(0),
		Separator:   `\n`,
		Digest:      "xxh64",
	}
	goconfig.Read(&c)

	if c.Input == "" || c.Output == "" {
		fatalf("both -input and -output are required")
	}
	sep, err := parseSeparator(c.Separator)
	if err != nil {
		fatalf("%v", err)
	}
	digest, err := parseDigest(c.Digest)
	if err != nil {
		fatalf("%v", err)
	}

	opts := []linesort.Option{
		linesort.WithChunkSize(c.ChunkSize),
		linesort.WithParallelism(c.Parallelism),
		linesort.WithSeparator(sep),
		linesort.WithTempDir(c.TempDir),
		linesort.WithDigestAlgorithm(digest),
	}
	if c.Verify {
		opts = append(opts, linesort.WithVerify())
	}
	if !c.Quiet {
		opts = append(opts,
			linesort.WithSplitProgress(phasePrinter("split")),
			linesort.WithSortProgress(phasePrinter("sort")),
			linesort.WithMergeProgress(phasePrinter("merge")),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	stats, err := linesort.Sort(ctx, c.Input, c.Output, opts...)
	if err != nil {
		fatalf("sort failed: %v", err)
	}

	if !c.Quiet {
		fmt.Println()
		fmt.Printf("sorted %d records (%d bytes) in %v\n",
			stats.InputRows, stats.InputBytes, time.Since(start).Round(time.Millisecond))
		if stats.Chunks > 0 {
			fmt.Printf("  chunks: %d, merge passes: %d\n", stats.Chunks, stats.MergePasses)
			fmt.Printf("  split %v, sort %v, merge %v\n",
				stats.SplitTime.Round(time.Millisecond),
				stats.SortTime.Round(time.Millisecond),
				stats.MergeTime.Round(time.Millisecond))
		}
	}
}

// phasePrinter returns a progress callback that rewrites one status line
// per phase. Callbacks may fire concurrently during parallel phases;
// interleaved writes only garble the display, so no locking.
func phasePrinter(phase string) func(float64) {
	return func(f float64) {
		fmt.Printf("\r%-5s %3.0f%%", phase, f*100)
		if f >= 1 {
			fmt.Println()
		}
	}
}

func parseSeparator(s string) (byte, error) {
	switch s {
	case `\n`, "":
		return '\n', nil
	case `\t`:
		return '\t', nil
	case `\0`:
		return 0, nil
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("separator must be a single byte, got %q", s)
	}
	return s[0], nil
}

func parseDigest(s string) (linesort.DigestAlgorithmID, error) {
	switch s {
	case "xxh64", "":
		return linesort.DigestXXH64, nil
	case "xxh3":
		return linesort.DigestXXH3, nil
	case "murmur3":
		return linesort.DigestMurmur3, nil
	}
	return 0, fmt.Errorf("unknown digest algorithm %q", s)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "linesort: "+format+"\n", args...)
	os.Exit(1)
}
