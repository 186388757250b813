package melody

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// buildSMF writes an SMF with the given tracks and returns the raw bytes.
func buildSMF(t *testing.T, ticksPerQuarter uint16, tracks ...smf.Track) []byte {
	t.Helper()
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)
	for _, track := range tracks {
		track.Close(0)
		if err := s.Add(track); err != nil {
			t.Fatalf("add track: %v", err)
		}
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("write smf: %v", err)
	}
	return buf.Bytes()
}

// trackName builds the FF 03 meta event carrying a track name.
func trackName(name string) smf.Message {
	raw := append([]byte{0xFF, 0x03, byte(len(name))}, []byte(name)...)
	return smf.Message(raw)
}

func TestParseSingleTrack(t *testing.T) {
	var track smf.Track
	track.Add(0, midi.NoteOn(0, 60, 100))
	track.Add(480, midi.NoteOff(0, 60))
	track.Add(0, midi.NoteOn(0, 62, 90))
	track.Add(240, midi.NoteOff(0, 62))
	data := buildSMF(t, 960, track)

	m, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.TicksPerQuarter != 960 {
		t.Errorf("TicksPerQuarter = %d, want 960", m.TicksPerQuarter)
	}
	want := []Event{
		{Pitch: 60, Start: 0, Duration: 480, Track: 0},
		{Pitch: 62, Start: 480, Duration: 240, Track: 0},
	}
	if len(m.Events) != len(want) {
		t.Fatalf("got %d events, want %d", len(m.Events), len(want))
	}
	for i, e := range m.Events {
		if e != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, e, want[i])
		}
	}
}

func TestParseVelocityZeroEndsNote(t *testing.T) {
	var track smf.Track
	track.Add(0, midi.NoteOn(0, 72, 64))
	// Note-on with velocity zero is a note-off in disguise.
	track.Add(240, smf.Message([]byte{0x90, 72, 0}))
	data := buildSMF(t, 480, track)

	m, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(m.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(m.Events))
	}
	if m.Events[0].Duration != 240 {
		t.Errorf("duration = %d, want 240", m.Events[0].Duration)
	}
}

func TestParseTrackSelection(t *testing.T) {
	var lead smf.Track
	lead.Add(0, trackName("lead"))
	lead.Add(0, midi.NoteOn(0, 60, 100))
	lead.Add(120, midi.NoteOff(0, 60))

	var bass smf.Track
	bass.Add(0, trackName("bass"))
	bass.Add(0, midi.NoteOn(1, 36, 100))
	bass.Add(120, midi.NoteOff(1, 36))

	data := buildSMF(t, 480, lead, bass)

	t.Run("all tracks", func(t *testing.T) {
		m, err := Parse(data, nil)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if len(m.Events) != 2 {
			t.Fatalf("got %d events, want 2", len(m.Events))
		}
		if m.Events[0].Track != 0 || m.Events[1].Track != 1 {
			t.Errorf("track indices = %d, %d, want 0, 1", m.Events[0].Track, m.Events[1].Track)
		}
	})

	t.Run("second track only", func(t *testing.T) {
		m, err := Parse(data, []int{1})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if len(m.Events) != 1 {
			t.Fatalf("got %d events, want 1", len(m.Events))
		}
		if m.Events[0].Pitch != 36 {
			t.Errorf("pitch = %d, want 36", m.Events[0].Pitch)
		}
		// Names are collected for every track, selected or not.
		if len(m.TrackNames) != 2 || m.TrackNames[0] != "lead" || m.TrackNames[1] != "bass" {
			t.Errorf("TrackNames = %v, want [lead bass]", m.TrackNames)
		}
	})

	t.Run("missing track", func(t *testing.T) {
		m, err := Parse(data, []int{7})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if len(m.Events) != 0 {
			t.Errorf("got %d events, want 0", len(m.Events))
		}
	})
}

func TestParseUnclosedNote(t *testing.T) {
	var track smf.Track
	track.Add(0, midi.NoteOn(0, 60, 100))
	data := buildSMF(t, 480, track)

	m, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(m.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(m.Events))
	}
	if m.Events[0].Duration != 0 {
		t.Errorf("duration = %d, want 0 for unclosed note", m.Events[0].Duration)
	}
}

func TestParseOverlappingSamePitch(t *testing.T) {
	var track smf.Track
	track.Add(0, midi.NoteOn(0, 60, 100))
	track.Add(120, midi.NoteOn(0, 60, 100))
	track.Add(120, midi.NoteOff(0, 60))
	track.Add(240, midi.NoteOff(0, 60))
	data := buildSMF(t, 480, track)

	m, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(m.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(m.Events))
	}
	// The oldest open note closes first.
	if m.Events[0].Duration != 240 {
		t.Errorf("first duration = %d, want 240", m.Events[0].Duration)
	}
	if m.Events[1].Duration != 360 {
		t.Errorf("second duration = %d, want 360", m.Events[1].Duration)
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte("not a midi file"), nil); err == nil {
		t.Error("expected error for malformed data")
	}
	if _, err := Parse(nil, nil); err == nil {
		t.Error("expected error for empty data")
	}
}

func TestRead(t *testing.T) {
	var track smf.Track
	track.Add(0, midi.NoteOn(0, 67, 100))
	track.Add(480, midi.NoteOff(0, 67))
	data := buildSMF(t, 480, track)

	path := filepath.Join(t.TempDir(), "test.mid")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	m, err := Read(path, nil)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(m.Events) != 1 || m.Events[0].Pitch != 67 {
		t.Errorf("unexpected events: %+v", m.Events)
	}

	if _, err := Read(filepath.Join(t.TempDir(), "missing.mid"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMaxTime(t *testing.T) {
	m := &Melody{}
	if got := m.MaxTime(); got != 0 {
		t.Errorf("MaxTime of empty melody = %d, want 0", got)
	}
	m.Events = []Event{{Start: 120}, {Start: 960}, {Start: 480}}
	if got := m.MaxTime(); got != 960 {
		t.Errorf("MaxTime = %d, want 960", got)
	}
}
