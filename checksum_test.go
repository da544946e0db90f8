package deflate

import (
	"hash/adler32"
	"math/rand/v2"
	"testing"
)

func TestAdlerKnownValues(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
	}{
		{"", 0x00000001},
		{"a", 0x00620062},
		{"abc", 0x024D0127},
		{"Wikipedia", 0x11E60398},
	}
	for _, c := range cases {
		var a adlerChecksum
		a.reset()
		a.update([]byte(c.in))
		if got := a.value(); got != c.want {
			t.Errorf("adler(%q): wanted %#08x, got %#08x", c.in, c.want, got)
		}
	}
}

func TestAdlerMatchesStdlibOnPrefixes(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	data := make([]byte, 120_000) // spans several NMAX reduction windows
	for i := range data {
		data[i] = byte(rng.Uint64())
	}

	var a adlerChecksum
	a.reset()
	fed := 0
	// Feed in uneven slices the way fillWindow would, checking the running
	// value against the stdlib on every prefix boundary.
	for _, n := range []int{1, 2, 3, 5551, 5552, 5553, 40_000, 48_888} {
		a.update(data[fed : fed+n])
		fed += n
		want := adler32.Checksum(data[:fed])
		if got := a.value(); got != want {
			t.Fatalf("prefix %d: wanted %#08x, got %#08x", fed, want, got)
		}
	}
}

func TestAdlerReset(t *testing.T) {
	var a adlerChecksum
	a.reset()
	a.update([]byte("some bytes"))
	a.reset()
	if got := a.value(); got != 1 {
		t.Errorf("wanted initial value 1 after reset, got %#08x", got)
	}
}
