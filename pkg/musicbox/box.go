// Package musicbox describes the physical instrument: the ordered set of
// pitches a music box can play and where each pitch sits across the stripe.
package musicbox

import (
	"errors"
	"fmt"
)

// ErrConfig marks invalid instrument or run configuration. Errors of this
// kind are fatal before any output is produced; check with errors.Is.
var ErrConfig = errors.New("invalid configuration")

const (
	// BasePitch is the lowest lane of every generated box: C4.
	BasePitch = 60
	// MaxPitch is the top of the MIDI pitch range.
	MaxPitch = 127
)

// Lane is one physical pitch position across the stripe width.
type Lane struct {
	Index int  // 0-based physical position on the stripe
	Pitch int  // MIDI pitch sounded by this lane
	Sharp bool // true for semitone (black-key) lanes
}

// Box is a music box model: its playable lanes in physical order. Lane
// pitches are unique. A Box is built once per run and treated as read-only.
type Box struct {
	Name  string
	Lanes []Lane
}

// diatonic holds the C-major scale degrees relative to the octave start.
var diatonic = [7]int{0, 2, 4, 5, 7, 9, 11}

// New generates a box with notesCount lanes walking up from C4: the C-major
// scale degrees when sharps is false, every semitone when sharps is true
// (which is what interleaves the sharp lanes between the natural ones).
func New(notesCount int, sharps bool) (*Box, error) {
	if notesCount <= 0 {
		return nil, fmt.Errorf("%w: notes count must be positive, got %d", ErrConfig, notesCount)
	}
	pitches := make([]int, 0, notesCount)
	if sharps {
		for p := BasePitch; p <= MaxPitch && len(pitches) < notesCount; p++ {
			pitches = append(pitches, p)
		}
	} else {
	gen:
		for oct := 0; ; oct++ {
			for _, deg := range diatonic {
				p := BasePitch + oct*12 + deg
				if p > MaxPitch {
					break gen
				}
				pitches = append(pitches, p)
				if len(pitches) == notesCount {
					break gen
				}
			}
		}
	}
	if len(pitches) < notesCount {
		return nil, fmt.Errorf("%w: %d notes do not fit between %s and %s",
			ErrConfig, notesCount, NoteName(BasePitch), NoteName(MaxPitch))
	}
	kind := "diatonic"
	if sharps {
		kind = "chromatic"
	}
	return FromPitches(fmt.Sprintf("%d-note %s", notesCount, kind), pitches)
}

// FromPitches builds a box from an explicit lane pitch list given in physical
// order. Pitches must be unique and within the MIDI range.
func FromPitches(name string, pitches []int) (*Box, error) {
	if len(pitches) == 0 {
		return nil, fmt.Errorf("%w: box %q has no lanes", ErrConfig, name)
	}
	seen := make(map[int]bool, len(pitches))
	lanes := make([]Lane, len(pitches))
	for i, p := range pitches {
		if p < 0 || p > MaxPitch {
			return nil, fmt.Errorf("%w: lane pitch %d outside the MIDI range", ErrConfig, p)
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: duplicate lane pitch %s", ErrConfig, NoteName(p))
		}
		seen[p] = true
		lanes[i] = Lane{Index: i, Pitch: p, Sharp: isSharp(p)}
	}
	return &Box{Name: name, Lanes: lanes}, nil
}

// FindLane returns the index of the lane sounding exactly the given pitch.
func (b *Box) FindLane(pitch int) (int, bool) {
	for _, lane := range b.Lanes {
		if lane.Pitch == pitch {
			return lane.Index, true
		}
	}
	return -1, false
}

// Range returns the lowest and highest lane pitch of the box.
func (b *Box) Range() (lo, hi int) {
	lo, hi = MaxPitch, 0
	for _, lane := range b.Lanes {
		if lane.Pitch < lo {
			lo = lane.Pitch
		}
		if lane.Pitch > hi {
			hi = lane.Pitch
		}
	}
	return lo, hi
}

// Pitches returns the lane pitches in physical order.
func (b *Box) Pitches() []int {
	res := make([]int, len(b.Lanes))
	for i, lane := range b.Lanes {
		res[i] = lane.Pitch
	}
	return res
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName formats a MIDI pitch using the C4=60 convention, e.g. "C#4".
func NoteName(pitch int) string {
	if pitch < 0 || pitch > MaxPitch {
		return fmt.Sprintf("?%d", pitch)
	}
	return fmt.Sprintf("%s%d", noteNames[pitch%12], pitch/12-1)
}

func isSharp(pitch int) bool {
	switch pitch % 12 {
	case 1, 3, 6, 8, 10:
		return true
	}
	return false
}
