package layout

import "github.com/orsinium-labs/punchline/pkg/melody"

// FitKind classifies how closely a melody pitch matched an available lane.
type FitKind int

const (
	// FitExact is a pitch the box plays as written.
	FitExact FitKind = iota
	// FitOctave is the same pitch class moved to a playable octave.
	FitOctave
	// FitNearest is a substitution with the closest playable pitch.
	FitNearest
	// FitUnplayable means the box has no lanes at all.
	FitUnplayable
)

func (k FitKind) String() string {
	switch k {
	case FitExact:
		return "exact"
	case FitOctave:
		return "octave"
	case FitNearest:
		return "nearest"
	case FitUnplayable:
		return "unplayable"
	}
	return "unknown"
}

// FittedNote binds a melody event to the lane that will play it.
type FittedNote struct {
	Event melody.Event
	Lane  int
	Kind  FitKind
}

// PlacedNote is a fitted note with its physical position along the stripe.
// Y is measured in millimeters from the very start of the timeline.
// Collides marks a note closer to the previous note on its lane than the
// hardware can reliably play.
type PlacedNote struct {
	FittedNote
	Y        float64
	Collides bool
}

// Stripe is one physical segment of the punch card. Start and Length are
// millimeters on the uncut timeline; Notes keep their global Y.
type Stripe struct {
	Index  int
	Start  float64
	Length float64
	Notes  []PlacedNote
}
