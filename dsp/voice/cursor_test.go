package voice

import (
	"testing"
	"time"

	"github.com/cwbudde/algo-spatialmix/internal/testutil"
)

func TestCursorPacking(t *testing.T) {
	for _, c := range []Cursor{{}, {Pos: 1}, {Pos: 48000, Frac: 2048}, {Pos: 1 << 40, Frac: FractionMask}} {
		if got := unpack(c.pack()); got != c {
			t.Fatalf("unpack(pack(%+v)) = %+v", c, got)
		}
	}
}

func TestCursorSeconds(t *testing.T) {
	c := CursorAt(1.5, 48000)
	if c != (Cursor{Pos: 72000}) {
		t.Fatalf("CursorAt(1.5) = %+v", c)
	}
	testutil.RequireNearlyEqual(t, "seconds", c.Seconds(48000), 1.5, 0)

	half := Cursor{Pos: 10, Frac: FractionOne / 2}
	testutil.RequireNearlyEqual(t, "fraction", half.Seconds(1), 10.5, 0)

	if CursorAt(-1, 48000) != (Cursor{}) {
		t.Fatal("negative time must clamp to zero")
	}
}

func TestBufferMetrics(t *testing.T) {
	b := &Buffer{Data: [][]float64{make([]float64, 48000), make([]float64, 24000)}, SampleRate: 48000}
	if b.Channels() != 2 || b.Frames() != 24000 {
		t.Fatalf("channels=%d frames=%d", b.Channels(), b.Frames())
	}
	if b.Duration() != 500*time.Millisecond {
		t.Fatalf("duration = %v", b.Duration())
	}

	var empty *Buffer
	if empty.Frames() != 0 || empty.Channels() != 0 || empty.Duration() != 0 {
		t.Fatal("nil buffer must report zero")
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Initial: "initial", Playing: "playing", Paused: "paused", Stopped: "stopped", State(9): "State(9)"} {
		if s.String() != want {
			t.Fatalf("%d.String() = %q, want %q", int32(s), s.String(), want)
		}
	}
}
