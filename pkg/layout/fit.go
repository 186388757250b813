package layout

import "github.com/orsinium-labs/punchline/pkg/musicbox"

// Fit resolves a pitch to the lane of the box that should play it.
//
// Resolution order: the exact pitch, then the same pitch class in the
// closest playable octave (ties go to the lower octave), then the
// numerically nearest playable pitch (ties go to the lower pitch).
// FitUnplayable comes back only for a box with no lanes. The function is
// total over any integer pitch, so a wild note never aborts a conversion.
func Fit(pitch int, box *musicbox.Box) (int, FitKind) {
	if len(box.Lanes) == 0 {
		return -1, FitUnplayable
	}
	if lane, ok := box.FindLane(pitch); ok {
		return lane, FitExact
	}

	best := -1
	bestDist := 0
	for _, lane := range box.Lanes {
		if (lane.Pitch-pitch)%12 != 0 {
			continue
		}
		dist := abs(lane.Pitch - pitch)
		if best == -1 || dist < bestDist || (dist == bestDist && lane.Pitch < box.Lanes[best].Pitch) {
			best = lane.Index
			bestDist = dist
		}
	}
	if best != -1 {
		return best, FitOctave
	}

	best = 0
	bestDist = abs(box.Lanes[0].Pitch - pitch)
	for _, lane := range box.Lanes[1:] {
		dist := abs(lane.Pitch - pitch)
		if dist < bestDist || (dist == bestDist && lane.Pitch < box.Lanes[best].Pitch) {
			best = lane.Index
			bestDist = dist
		}
	}
	return best, FitNearest
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
