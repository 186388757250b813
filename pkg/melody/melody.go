// Package melody reads note events out of standard MIDI files.
package melody

import (
	"bytes"
	"fmt"
	"os"

	"gitlab.com/gomidi/midi/v2/smf"
)

// Event is a single sound in the melody: what to play and when. Events are
// created here and read-only for the rest of the pipeline.
type Event struct {
	Pitch    int // MIDI pitch
	Start    int // start time in ticks from the beginning of the track
	Duration int // ticks until the matching note-off, 0 when never closed
	Track    int // source track index
}

// Melody is the flat event list of the selected tracks plus the tick
// resolution needed to scale time into physical units. Events keep their
// per-track order, tracks in file order; the layout engine does the merge.
type Melody struct {
	Events          []Event
	TicksPerQuarter int
	TrackNames      []string // one per file track, "" when unnamed
}

const defaultTicksPerQuarter = 480

// Read loads a MIDI file and extracts note events from the selected tracks.
// An empty tracks list selects every track.
func Read(path string, tracks []int) (*Melody, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read midi file: %w", err)
	}
	return Parse(data, tracks)
}

// Parse extracts note events from SMF data. Only note-on messages with a
// positive velocity become events; a velocity of zero counts as note-off.
func Parse(data []byte, tracks []int) (m *Melody, err error) {
	// smf can panic on malformed input (gomidi/midi#20).
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse midi: %v", r)
		}
	}()

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse midi: %w", err)
	}

	res := defaultTicksPerQuarter
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		res = int(mt.Resolution())
	}

	selected := make(map[int]bool, len(tracks))
	for _, t := range tracks {
		selected[t] = true
	}

	m = &Melody{
		TicksPerQuarter: res,
		TrackNames:      make([]string, len(s.Tracks)),
	}
	for ti, track := range s.Tracks {
		var abs int
		// open maps a sounding pitch to the indices of its unclosed events,
		// oldest first, so overlapping repeats close in FIFO order.
		open := make(map[uint8][]int)
		use := len(tracks) == 0 || selected[ti]
		for _, ev := range track {
			abs += int(ev.Delta)
			msg := ev.Message

			// Track name meta event: FF 03 len text.
			if len(msg) >= 3 && msg[0] == 0xFF && msg[1] == 0x03 {
				if n := int(msg[2]); len(msg) >= 3+n {
					m.TrackNames[ti] = string(msg[3 : 3+n])
				}
				continue
			}
			if !use {
				continue
			}

			var ch, key, vel uint8
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				open[key] = append(open[key], len(m.Events))
				m.Events = append(m.Events, Event{
					Pitch: int(key),
					Start: abs,
					Track: ti,
				})
			case msg.GetNoteEnd(&ch, &key):
				idxs := open[key]
				if len(idxs) == 0 {
					continue
				}
				i := idxs[0]
				open[key] = idxs[1:]
				m.Events[i].Duration = abs - m.Events[i].Start
			}
		}
	}
	return m, nil
}

// MaxTime returns the largest event start time in ticks, 0 when empty.
func (m *Melody) MaxTime() int {
	max := 0
	for _, e := range m.Events {
		if e.Start > max {
			max = e.Start
		}
	}
	return max
}
