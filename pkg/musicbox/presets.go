package musicbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// box30Pitches is the lane set of the widespread 30-note DIY box: diatonic at
// the bottom, fully chromatic through the middle octaves, gapped at the top.
var box30Pitches = []int{
	60, 62, 67, 69,
	71, 72, 74, 76, 77, 78, 79,
	80, 81, 82, 83, 84, 85, 86, 87, 88, 89,
	90, 91, 92, 93, 94, 95, 96, 98, 100,
}

// Preset returns one of the built-in box models by name. See Presets for the
// available names.
func Preset(name string) (*Box, error) {
	switch strings.ToLower(name) {
	case "box15":
		return preset(name, 15, false)
	case "box20":
		return preset(name, 20, false)
	case "box30":
		box, err := FromPitches(name, box30Pitches)
		if err != nil {
			return nil, err
		}
		return box, nil
	}
	return nil, fmt.Errorf("%w: unknown box preset %q", ErrConfig, name)
}

// Presets lists the built-in box model names.
func Presets() []string {
	return []string{"box15", "box20", "box30"}
}

func preset(name string, notes int, sharps bool) (*Box, error) {
	box, err := New(notes, sharps)
	if err != nil {
		return nil, err
	}
	box.Name = name
	return box, nil
}

// boxFile is the on-disk shape of a custom box definition.
type boxFile struct {
	Name  string `yaml:"name"`
	Lanes []int  `yaml:"lanes,flow"`
}

// LoadFile reads a custom box definition from a YAML file:
//
//	name: my box
//	lanes: [60, 62, 64, 65, 67]
//
// The lanes list gives MIDI pitches in physical order. When name is omitted,
// the file name is used.
func LoadFile(path string) (*Box, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read box file: %w", err)
	}
	var f boxFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse box file %s: %w", path, err)
	}
	if f.Name == "" {
		base := filepath.Base(path)
		f.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return FromPitches(f.Name, f.Lanes)
}
