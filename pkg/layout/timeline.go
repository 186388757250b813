package layout

import (
	"sort"

	"github.com/orsinium-labs/punchline/pkg/melody"
)

// Merge flattens multi-track events into one timeline ordered by start
// time. The sort is stable, so simultaneous events keep their track order
// and their order within a track.
func Merge(events []melody.Event) []melody.Event {
	merged := make([]melody.Event, len(events))
	copy(merged, events)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start < merged[j].Start
	})
	return merged
}

// CompressGaps rewrites start times so that no silent gap is longer than
// maxPause; gaps longer than cutPause are removed entirely. A zero
// threshold is disabled. The silence before the first note counts as a
// gap too, so a long intro does not waste stripe length. starts must be
// sorted ascending.
func CompressGaps(starts []int, maxPause, cutPause int) []int {
	out := make([]int, len(starts))
	shift := 0
	prev := 0
	for i, s := range starts {
		gap := s - prev
		prev = s
		switch {
		case cutPause > 0 && gap > cutPause:
			shift += gap
		case maxPause > 0 && gap > maxPause:
			shift += gap - maxPause
		}
		out[i] = s - shift
	}
	return out
}

// MarkCollisions flags every note that sits closer to the previous note
// on the same lane than minDistance. The pass only annotates, it never
// moves a note. notes must be ordered by Y.
func MarkCollisions(notes []PlacedNote, minDistance float64) {
	last := make(map[int]float64, 32)
	for i := range notes {
		n := &notes[i]
		if y, seen := last[n.Lane]; seen && n.Y-y < minDistance {
			n.Collides = true
		}
		last[n.Lane] = n.Y
	}
}

// Place computes the physical position of every fitted note: compress the
// silent gaps, scale ticks into millimeters, then flag the notes the
// hardware cannot strike twice that fast. fitted must be ordered by start
// time.
func Place(fitted []FittedNote, cfg Config) []PlacedNote {
	starts := make([]int, len(fitted))
	for i, fn := range fitted {
		starts[i] = fn.Event.Start
	}
	starts = CompressGaps(starts, cfg.MaxPause, cfg.CutPause)

	placed := make([]PlacedNote, len(fitted))
	for i, fn := range fitted {
		placed[i] = PlacedNote{
			FittedNote: fn,
			Y:          float64(starts[i]) * cfg.SpeedFactor,
		}
	}
	MarkCollisions(placed, cfg.MinDistance)
	return placed
}
