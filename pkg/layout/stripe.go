package layout

import "fmt"

// trailingMargin is the extra length kept after the last note so the final
// hole is not punched on the cut edge.
const trailingMargin = 5.0

// Segment cuts the timeline into consecutive stripes of stripeLength
// millimeters each, starting at zero. A note exactly on a boundary opens
// the next stripe. Stripes without any notes are still emitted so the
// stripes cover the timeline without gaps. The final stripe is cut short
// after the last note. notes must be ordered by Y.
func Segment(notes []PlacedNote, stripeLength float64) ([]Stripe, error) {
	if stripeLength <= 0 {
		return nil, fmt.Errorf("%w: stripe length must be positive, got %v", ErrConfig, stripeLength)
	}

	maxY := 0.0
	for _, n := range notes {
		if n.Y > maxY {
			maxY = n.Y
		}
	}

	count := int(maxY/stripeLength) + 1
	stripes := make([]Stripe, count)
	for i := range stripes {
		stripes[i] = Stripe{
			Index:  i,
			Start:  float64(i) * stripeLength,
			Length: stripeLength,
		}
	}
	for _, n := range notes {
		i := int(n.Y / stripeLength)
		if i >= count {
			i = count - 1
		}
		stripes[i].Notes = append(stripes[i].Notes, n)
	}

	last := &stripes[count-1]
	if length := maxY - last.Start + trailingMargin; length < last.Length {
		last.Length = length
	}
	return stripes, nil
}
