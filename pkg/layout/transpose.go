package layout

import (
	"github.com/orsinium-labs/punchline/pkg/melody"
	"github.com/orsinium-labs/punchline/pkg/musicbox"
)

type candidate struct {
	shift int
	exact int
	cost  int
}

// better prefers more exact matches, then the smaller move, then the
// cheaper substitutions, then the downward shift.
func (c candidate) better(than candidate) bool {
	if c.exact != than.exact {
		return c.exact > than.exact
	}
	if abs(c.shift) != abs(than.shift) {
		return abs(c.shift) < abs(than.shift)
	}
	if c.cost != than.cost {
		return c.cost < than.cost
	}
	return c.shift < than.shift
}

// BestTransposition tries every shift in [lo, hi] and returns the one that
// lands the most events on an exact lane pitch. Shifting by an octave only
// repeats the same pitch classes, so one octave down to one octave up is
// the range worth scanning.
func BestTransposition(events []melody.Event, box *musicbox.Box, lo, hi int) int {
	best := candidate{exact: -1}
	for shift := lo; shift <= hi; shift++ {
		cur := candidate{shift: shift}
		for _, ev := range events {
			pitch := ev.Pitch + shift
			lane, kind := Fit(pitch, box)
			if kind == FitExact {
				cur.exact++
			}
			if kind != FitUnplayable {
				cur.cost += abs(box.Lanes[lane].Pitch - pitch)
			}
		}
		if cur.better(best) {
			best = cur
		}
	}
	return best.shift
}
