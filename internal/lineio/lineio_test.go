package lineio

import (
	"bytes"
	"io"
	"math/rand/v2"
	"strings"
	"testing"
)

func readAll(t *testing.T, r *Reader) []string {
	t.Helper()
	var recs []string
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return recs
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		recs = append(recs, string(rec))
	}
}

func TestReaderNext(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single terminated", "alpha\n", []string{"alpha"}},
		{"single unterminated", "alpha", []string{"alpha"}},
		{"multiple", "a\nbb\nccc\n", []string{"a", "bb", "ccc"}},
		{"unterminated tail", "a\nbb\nccc", []string{"a", "bb", "ccc"}},
		{"empty records", "\n\na\n", []string{"", "", "a"}},
		{"only separators", "\n\n\n", []string{"", "", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input), '\n', 16)
			got := readAll(t, r)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d records %q, want %d %q", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("record %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReaderLongRecords(t *testing.T) {
	// Records much larger than the bufio buffer must come back intact.
	rng := rand.New(rand.NewPCG(1, 2))
	var recs []string
	var input bytes.Buffer
	for i := 0; i < 20; i++ {
		n := 1 + rng.IntN(4096)
		b := make([]byte, n)
		for j := range b {
			b[j] = 'a' + byte(rng.IntN(26))
		}
		recs = append(recs, string(b))
		input.Write(b)
		input.WriteByte('\n')
	}

	r := NewReader(bytes.NewReader(input.Bytes()), '\n', 16)
	got := readAll(t, r)
	if len(got) != len(recs) {
		t.Fatalf("got %d records, want %d", len(got), len(recs))
	}
	for i := range got {
		if got[i] != recs[i] {
			t.Fatalf("record %d mismatch (len %d vs %d)", i, len(got[i]), len(recs[i]))
		}
	}
}

func TestReaderCustomSeparator(t *testing.T) {
	r := NewReader(strings.NewReader("a\x00bb\x00c"), 0, 16)
	got := readAll(t, r)
	want := []string{"a", "bb", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWriterTrailingSeparator(t *testing.T) {
	tests := []struct {
		name     string
		recs     []string
		trailing bool
		want     string
	}{
		{"trailing", []string{"a", "b"}, true, "a\nb\n"},
		{"no trailing", []string{"a", "b"}, false, "a\nb"},
		{"empty no trailing", nil, true, ""},
		{"single", []string{"x"}, true, "x\n"},
		{"empty records", []string{"", ""}, true, "\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf, '\n', 8)
			for _, rec := range tt.recs {
				if err := w.Append([]byte(rec)); err != nil {
					t.Fatalf("Append: %v", err)
				}
			}
			if err := w.Finish(tt.trailing); err != nil {
				t.Fatalf("Finish: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
			if w.Written() != int64(len(tt.want)) {
				t.Errorf("Written() = %d, want %d", w.Written(), len(tt.want))
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	recs := []string{"banana", "", "apple", "cherry"}
	var buf bytes.Buffer
	w := NewWriter(&buf, '\n', 4)
	for _, rec := range recs {
		if err := w.Append([]byte(rec)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := w.Finish(true); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got := readAll(t, NewReader(&buf, '\n', 4))
	if len(got) != len(recs) {
		t.Fatalf("got %d records, want %d", len(got), len(recs))
	}
	for i := range recs {
		if got[i] != recs[i] {
			t.Errorf("record %d: got %q, want %q", i, got[i], recs[i])
		}
	}
}
