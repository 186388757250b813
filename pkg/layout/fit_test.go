package layout

import (
	"testing"

	"github.com/orsinium-labs/punchline/pkg/melody"
	"github.com/orsinium-labs/punchline/pkg/musicbox"
)

func naturalBox(t *testing.T, lanes int) *musicbox.Box {
	t.Helper()
	box, err := musicbox.New(lanes, false)
	if err != nil {
		t.Fatalf("build box: %v", err)
	}
	return box
}

func customBox(t *testing.T, pitches ...int) *musicbox.Box {
	t.Helper()
	box, err := musicbox.FromPitches("test", pitches)
	if err != nil {
		t.Fatalf("build box: %v", err)
	}
	return box
}

func events(pitches ...int) []melody.Event {
	evs := make([]melody.Event, len(pitches))
	for i, p := range pitches {
		evs[i] = melody.Event{Pitch: p, Start: i * 100}
	}
	return evs
}

func TestFit(t *testing.T) {
	// Lanes 0..14 carry pitches 60 62 64 65 67 69 71 72 74 76 77 79 81 83 84.
	box := naturalBox(t, 15)

	tests := []struct {
		name     string
		pitch    int
		wantLane int
		wantKind FitKind
	}{
		{"exact lowest", 60, 0, FitExact},
		{"exact highest", 84, 14, FitExact},
		{"exact middle", 72, 7, FitExact},
		{"octave below range", 48, 0, FitOctave},
		{"octave above range", 96, 14, FitOctave},
		{"octave two up", 36, 0, FitOctave},
		{"sharp between lanes", 61, 0, FitNearest},
		{"sharp higher pair", 66, 3, FitNearest},
		{"far above range", 94, 14, FitNearest},
		{"far below range", 46, 0, FitNearest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lane, kind := Fit(tt.pitch, box)
			if lane != tt.wantLane || kind != tt.wantKind {
				t.Errorf("Fit(%d) = (%d, %v), want (%d, %v)",
					tt.pitch, lane, kind, tt.wantLane, tt.wantKind)
			}
		})
	}
}

func TestFitOctaveTie(t *testing.T) {
	// 60 is one octave away from both lanes; the lower one wins.
	box := customBox(t, 48, 72)
	lane, kind := Fit(60, box)
	if kind != FitOctave {
		t.Fatalf("kind = %v, want %v", kind, FitOctave)
	}
	if box.Lanes[lane].Pitch != 48 {
		t.Errorf("tie resolved to pitch %d, want 48", box.Lanes[lane].Pitch)
	}
}

func TestFitNearestTie(t *testing.T) {
	// 61 sits exactly between 60 and 62; the lower pitch wins.
	box := naturalBox(t, 15)
	lane, kind := Fit(61, box)
	if kind != FitNearest {
		t.Fatalf("kind = %v, want %v", kind, FitNearest)
	}
	if box.Lanes[lane].Pitch != 60 {
		t.Errorf("tie resolved to pitch %d, want 60", box.Lanes[lane].Pitch)
	}
}

func TestFitEmptyBox(t *testing.T) {
	lane, kind := Fit(60, &musicbox.Box{})
	if kind != FitUnplayable || lane != -1 {
		t.Errorf("Fit on empty box = (%d, %v), want (-1, %v)", lane, kind, FitUnplayable)
	}
}

func TestFitNeverUnplayable(t *testing.T) {
	box := customBox(t, 60)
	for pitch := 0; pitch <= 127; pitch++ {
		if _, kind := Fit(pitch, box); kind == FitUnplayable {
			t.Fatalf("Fit(%d) returned %v on a non-empty box", pitch, FitUnplayable)
		}
	}
}

func TestFitKindString(t *testing.T) {
	tests := []struct {
		kind FitKind
		want string
	}{
		{FitExact, "exact"},
		{FitOctave, "octave"},
		{FitNearest, "nearest"},
		{FitUnplayable, "unplayable"},
		{FitKind(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("FitKind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestBestTransposition(t *testing.T) {
	t.Run("perfect stays put", func(t *testing.T) {
		box := naturalBox(t, 15)
		shift := BestTransposition(events(60, 64, 67), box, -11, 11)
		if shift != 0 {
			t.Errorf("shift = %d, want 0", shift)
		}
	})

	t.Run("one semitone down", func(t *testing.T) {
		box := naturalBox(t, 15)
		shift := BestTransposition(events(61, 65, 68), box, -11, 11)
		if shift != -1 {
			t.Errorf("shift = %d, want -1", shift)
		}
	})

	t.Run("full tie goes down", func(t *testing.T) {
		// Shifts -2 and +2 both land the single event exactly.
		box := customBox(t, 60, 64)
		shift := BestTransposition(events(62), box, -11, 11)
		if shift != -2 {
			t.Errorf("shift = %d, want -2", shift)
		}
	})

	t.Run("cost breaks the tie", func(t *testing.T) {
		// Both +2 and -2 land one exact match; +2 leaves the two
		// misses closer to their lanes, so it wins over the usual
		// downward preference.
		box := customBox(t, 60, 74)
		shift := BestTransposition(events(76, 58, 55), box, 2, 2)
		if shift != 2 {
			t.Fatalf("sanity run failed, shift = %d", shift)
		}
		shift = BestTransposition(events(76, 58, 55), box, -2, 2)
		if shift != 2 {
			t.Errorf("shift = %d, want 2", shift)
		}
	})

	t.Run("octave fits do not count", func(t *testing.T) {
		// 48 is playable an octave up at any shift but never exactly,
		// so every candidate ties at zero and no shift wins.
		box := naturalBox(t, 15)
		shift := BestTransposition(events(48), box, -11, 11)
		if shift != 0 {
			t.Errorf("shift = %d, want 0", shift)
		}
	})
}

func TestBestTranspositionOptimality(t *testing.T) {
	box := naturalBox(t, 15)
	tune := events(61, 61, 63, 66, 68, 70, 61, 73, 75, 78, 61, 63)
	shift := BestTransposition(tune, box, -11, 11)

	countExact := func(s int) int {
		n := 0
		for _, ev := range tune {
			if _, kind := Fit(ev.Pitch+s, box); kind == FitExact {
				n++
			}
		}
		return n
	}
	best := countExact(shift)
	for s := -11; s <= 11; s++ {
		if c := countExact(s); c > best {
			t.Errorf("shift %d has %d exact matches, chosen %d has only %d", s, c, shift, best)
		}
	}
}
