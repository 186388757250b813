// Package layout turns a melody into punch positions for a music box
// stripe. The pipeline is a chain of pure passes: find the transposition
// that keeps the most notes playable, fit every note to a lane, place the
// notes along the time axis, and cut the timeline into stripes.
package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/orsinium-labs/punchline/pkg/melody"
	"github.com/orsinium-labs/punchline/pkg/musicbox"
)

var (
	// ErrConfig reports an invalid layout configuration.
	ErrConfig = musicbox.ErrConfig
	// ErrNoNotes reports a melody with no events in the selected tracks.
	ErrNoNotes = errors.New("no notes in the selected tracks")
)

// Config holds the physical layout parameters. Distances are millimeters,
// times are MIDI ticks.
type Config struct {
	SpeedFactor  float64 // millimeters of stripe per tick
	MinDistance  float64 // smallest same-lane distance the box still plays
	MaxPause     int     // longer silent gaps are clamped to this, 0 disables
	CutPause     int     // longer silent gaps are removed, 0 disables
	StripeLength float64 // length of one stripe
	TransposeLo  int     // lowest shift to try
	TransposeHi  int     // highest shift to try
}

// DefaultConfig returns the parameters tuned for a hand-cranked 30 note
// box and A4 paper.
func DefaultConfig() Config {
	return Config{
		SpeedFactor:  0.015,
		MinDistance:  8.0,
		StripeLength: 257.0,
		TransposeLo:  -11,
		TransposeHi:  11,
	}
}

// Validate checks the parameters that would make a run misbehave.
func (c Config) Validate() error {
	if c.SpeedFactor <= 0 {
		return fmt.Errorf("%w: speed factor must be positive, got %v", ErrConfig, c.SpeedFactor)
	}
	if c.MinDistance < 0 {
		return fmt.Errorf("%w: min distance must not be negative, got %v", ErrConfig, c.MinDistance)
	}
	if c.MaxPause < 0 || c.CutPause < 0 {
		return fmt.Errorf("%w: pause thresholds must not be negative", ErrConfig)
	}
	if c.MaxPause > 0 && c.CutPause > 0 && c.CutPause < c.MaxPause {
		return fmt.Errorf("%w: cut pause %d is shorter than max pause %d", ErrConfig, c.CutPause, c.MaxPause)
	}
	if c.StripeLength <= 0 {
		return fmt.Errorf("%w: stripe length must be positive, got %v", ErrConfig, c.StripeLength)
	}
	if c.TransposeLo > c.TransposeHi {
		return fmt.Errorf("%w: transpose range %d..%d is empty", ErrConfig, c.TransposeLo, c.TransposeHi)
	}
	return nil
}

// FitNotes fits every event to a lane after applying the shift. The shift
// is not written back into the events; it is a property of the run.
func FitNotes(events []melody.Event, shift int, box *musicbox.Box) []FittedNote {
	fitted := make([]FittedNote, len(events))
	for i, ev := range events {
		lane, kind := Fit(ev.Pitch+shift, box)
		fitted[i] = FittedNote{Event: ev, Lane: lane, Kind: kind}
	}
	return fitted
}

// Stats summarizes a run for the stats report.
type Stats struct {
	Sounds          int     // events in the melody
	DistinctPitches int     // distinct pitches before transposition
	Shift           int     // chosen transposition in semitones
	Exact           int     // sounds playable as written
	Octave          int     // sounds moved to another octave
	Nearest         int     // sounds substituted with a neighbour pitch
	HitRatio        float64 // Exact / Sounds
	Perfect         bool    // every sound plays as written
	ZeroTime        int     // sounds at time zero
	MinLaneDistance float64 // shortest same-lane distance in mm, 0 if none
	Length          float64 // position of the last sound in mm
	Stripes         int
}

// Result is everything a renderer needs for one conversion.
type Result struct {
	Shift   int
	Notes   []PlacedNote
	Stripes []Stripe
	Stats   Stats
}

// Run executes the whole pipeline for one melody on one box.
func Run(events []melody.Event, box *musicbox.Box, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNoNotes
	}

	merged := Merge(events)
	shift := BestTransposition(merged, box, cfg.TransposeLo, cfg.TransposeHi)
	fitted := FitNotes(merged, shift, box)
	placed := Place(fitted, cfg)
	stripes, err := Segment(placed, cfg.StripeLength)
	if err != nil {
		return nil, err
	}

	res := &Result{Shift: shift, Notes: placed, Stripes: stripes}
	res.Stats = collectStats(res)
	return res, nil
}

func collectStats(res *Result) Stats {
	st := Stats{
		Sounds:  len(res.Notes),
		Shift:   res.Shift,
		Stripes: len(res.Stripes),
	}
	pitches := make(map[int]struct{})
	for _, n := range res.Notes {
		pitches[n.Event.Pitch] = struct{}{}
		switch n.Kind {
		case FitExact:
			st.Exact++
		case FitOctave:
			st.Octave++
		case FitNearest:
			st.Nearest++
		}
		if n.Event.Start == 0 {
			st.ZeroTime++
		}
		if n.Y > st.Length {
			st.Length = n.Y
		}
	}
	st.DistinctPitches = len(pitches)
	if st.Sounds > 0 {
		st.HitRatio = float64(st.Exact) / float64(st.Sounds)
		st.Perfect = st.Exact == st.Sounds
	}
	st.MinLaneDistance = minLaneDistance(res.Notes)
	return st
}

// minLaneDistance finds the shortest physical distance between two
// consecutive sounds on the same lane. Simultaneous sounds on one lane
// are duplicates, not strikes, and do not count.
func minLaneDistance(notes []PlacedNote) float64 {
	last := make(map[int]float64)
	min := math.Inf(1)
	for _, n := range notes {
		if y, seen := last[n.Lane]; seen {
			if d := n.Y - y; d > 0 && d < min {
				min = d
			}
		}
		last[n.Lane] = n.Y
	}
	if math.IsInf(min, 1) {
		return 0
	}
	return min
}
