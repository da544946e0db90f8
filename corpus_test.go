package deflate

import (
	"bytes"
	"fmt"
	"hash/adler32"
	"io"
	"math/rand/v2"
	"os"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/therootcompany/xz"
)

// loadCorpus decompresses the checked-in text corpus. The fixture is
// stored xz-compressed so the repository doesn't carry 700 KB of plain
// text, and so the tests exercise a decoder this engine shares no code
// with for its own input.
func loadCorpus(tb testing.TB) []byte {
	tb.Helper()
	f, err := os.Open("testdata/corpus.txt.xz")
	if err != nil {
		tb.Fatalf("corpus fixture: %v", err)
	}
	defer f.Close()
	r, err := xz.NewReader(f, xz.DefaultDictMax)
	if err != nil {
		tb.Fatalf("corpus fixture: %v", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		tb.Fatalf("corpus fixture: %v", err)
	}
	return data
}

func TestRoundTripCorpusAllLevels(t *testing.T) {
	corpus := loadCorpus(t)
	if testing.Short() {
		corpus = corpus[:100_000]
	}
	for level := 0; level <= 9; level++ {
		t.Run(fmt.Sprintf("level%d", level), func(t *testing.T) {
			e := NewEngine()
			if err := e.SetLevel(level); err != nil {
				t.Fatalf("SetLevel: %v", err)
			}
			out := deflateAll(t, e, corpus)
			if !bytes.Equal(inflateAll(t, out), corpus) {
				t.Fatal("round trip failed")
			}
			if level > 0 && len(out) >= len(corpus) {
				t.Errorf("level %d expanded text: %d -> %d bytes", level, len(corpus), len(out))
			}
		})
	}
}

func TestHigherLevelCompressesTighter(t *testing.T) {
	corpus := loadCorpus(t)

	e1 := NewEngine()
	if err := e1.SetLevel(1); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	out1 := deflateAll(t, e1, corpus)

	e9 := NewEngine()
	if err := e9.SetLevel(9); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	out9 := deflateAll(t, e9, corpus)

	if len(out9) >= len(out1) {
		t.Errorf("level 9 output (%d bytes) not smaller than level 1 (%d bytes)",
			len(out9), len(out1))
	}
	if !bytes.Equal(inflateAll(t, out1), corpus) || !bytes.Equal(inflateAll(t, out9), corpus) {
		t.Error("round trip failed")
	}
}

func TestRoundTripSynthetic(t *testing.T) {
	kinds := []struct {
		name string
		gen  func(rng *rand.Rand, n int) []byte
	}{
		{"random", randBytes},
		{"text", textish},
		{"runs", func(rng *rand.Rand, n int) []byte {
			b := make([]byte, n)
			for i := range b {
				if rng.Uint64()%97 == 0 {
					b[i] = byte(rng.Uint64())
				} else if i > 0 {
					b[i] = b[i-1]
				}
			}
			return b
		}},
	}
	sizes := []int{1, 3, 261, 262, 4096, 65_535, 65_536, 200_000}
	levels := []int{1, 3, 6, 9}

	rng := rand.New(rand.NewPCG(42, 42))
	for _, k := range kinds {
		for _, size := range sizes {
			in := k.gen(rng, size)
			for _, level := range levels {
				e := NewEngine()
				if err := e.SetLevel(level); err != nil {
					t.Fatalf("SetLevel: %v", err)
				}
				out := deflateAll(t, e, in)
				if !bytes.Equal(inflateAll(t, out), in) {
					t.Fatalf("%s/%d at level %d: round trip failed", k.name, size, level)
				}
				if e.TotalIn() != uint64(size) {
					t.Fatalf("%s/%d at level %d: TotalIn = %d", k.name, size, level, e.TotalIn())
				}
			}
		}
	}
}

func TestRoundTripLarge(t *testing.T) {
	if testing.Short() {
		t.Skip("2 MiB corpus in short mode")
	}
	rng := rand.New(rand.NewPCG(1, 99))
	in := textish(rng, 2<<20)
	for _, level := range []int{1, 6, 9} {
		e := NewEngine()
		if err := e.SetLevel(level); err != nil {
			t.Fatalf("SetLevel: %v", err)
		}
		out := deflateAll(t, e, in)
		if !bytes.Equal(inflateAll(t, out), in) {
			t.Fatalf("level %d: round trip failed", level)
		}
	}
}

// deflateChunked feeds the input in fixed-size slices with non-flushing
// Deflate calls in between, finishing only after the last slice.
func deflateChunked(tb testing.TB, e *Engine, input []byte, chunk int) []byte {
	tb.Helper()
	var out []byte
	buf := make([]byte, 8192)
	for start := 0; start < len(input); start += chunk {
		end := min(start+chunk, len(input))
		if err := e.SetInput(input, start, end-start); err != nil {
			tb.Fatalf("SetInput at %d: %v", start, err)
		}
		for !e.NeedsInput() {
			e.Deflate(false, false)
			for {
				n := e.Flush(buf)
				if n == 0 {
					break
				}
				out = append(out, buf[:n]...)
			}
		}
	}
	return append(out, driveToEnd(tb, e)...)
}

func TestDeterministicAcrossChunking(t *testing.T) {
	// Identical settings and input bytes must give an identical stream no
	// matter how the input is sliced, since only flushes force block
	// boundaries. Outputs are compared by digest rather than held side by
	// side.
	corpus := loadCorpus(t)
	if testing.Short() {
		corpus = corpus[:150_000]
	}

	for _, level := range []int{1, 6, 9} {
		var digests []uint64
		var sizes []int
		for _, chunk := range []int{len(corpus), 65_536, 1931} {
			e := NewEngine()
			if err := e.SetLevel(level); err != nil {
				t.Fatalf("SetLevel: %v", err)
			}
			out := deflateChunked(t, e, corpus, chunk)

			var h xxhash.Digest
			h.Write(out)
			digests = append(digests, h.Sum64())
			sizes = append(sizes, len(out))

			if !bytes.Equal(inflateAll(t, out), corpus) {
				t.Fatalf("level %d chunk %d: round trip failed", level, chunk)
			}
		}
		for i := 1; i < len(digests); i++ {
			if digests[i] != digests[0] || sizes[i] != sizes[0] {
				t.Errorf("level %d: chunking changed the stream (%d/%#x vs %d/%#x)",
					level, sizes[0], digests[0], sizes[i], digests[i])
			}
		}
	}
}

func TestAdlerTracksEngineInput(t *testing.T) {
	// The engine's running checksum must equal the reference checksum of
	// every prefix it has consumed, regardless of how Deflate interleaves
	// window fills.
	corpus := loadCorpus(t)[:200_000]
	e := NewEngine()

	var fed int
	buf := make([]byte, 8192)
	for _, n := range []int{1, 999, 65_000, 100_000, 34_000} {
		if err := e.SetInput(corpus, fed, n); err != nil {
			t.Fatalf("SetInput: %v", err)
		}
		for !e.NeedsInput() {
			e.Deflate(false, false)
			for e.Flush(buf) > 0 {
			}
		}
		fed += n
		if got, want := e.Adler(), adler32.Checksum(corpus[:fed]); got != want {
			t.Fatalf("after %d bytes: Adler = %#08x, reference %#08x", fed, got, want)
		}
	}
}
