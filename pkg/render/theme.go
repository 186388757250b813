package render

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/orsinium-labs/punchline/pkg/layout"
)

// Theme controls the look of the generated pages. All sizes are
// millimeters. The zero value is not usable, start from DefaultTheme.
type Theme struct {
	PageWidth    float64 `yaml:"page_width"`
	PageHeight   float64 `yaml:"page_height"`
	Margin       float64 `yaml:"margin"`
	MarkerOffset float64 `yaml:"marker_offset"`
	LanePitch    float64 `yaml:"lane_pitch"`
	FontSize     float64 `yaml:"font_size"`
	HoleRadius   float64 `yaml:"hole_radius"`

	Colors struct {
		Exact     string `yaml:"exact"`
		Octave    string `yaml:"octave"`
		Nearest   string `yaml:"nearest"`
		Collision string `yaml:"collision"`
		Lines     string `yaml:"lines"`
		Labels    string `yaml:"labels"`
		Caption   string `yaml:"caption"`
	} `yaml:"colors"`

	// Laser cutter mode: keep the holes, drop the ink.
	NoLines  bool `yaml:"no_lines"`
	NoLabels bool `yaml:"no_labels"`
}

// DefaultTheme returns the theme for an A4 landscape page and a lane
// spacing of 2mm, the common pin distance of 30 note boxes.
func DefaultTheme() Theme {
	th := Theme{
		PageWidth:    297,
		PageHeight:   210,
		Margin:       20,
		MarkerOffset: 6,
		LanePitch:    2,
		FontSize:     1,
		HoleRadius:   1,
	}
	th.Colors.Exact = "black"
	th.Colors.Octave = "royalblue"
	th.Colors.Nearest = "red"
	th.Colors.Collision = "red"
	th.Colors.Lines = "black"
	th.Colors.Labels = "red"
	th.Colors.Caption = "blue"
	return th
}

// LoadTheme reads a theme file, filling anything the file leaves out
// from the defaults. An empty path returns the defaults as is.
func LoadTheme(path string) (Theme, error) {
	th := DefaultTheme()
	if path == "" {
		return th, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("read theme file: %w", err)
	}
	if err := yaml.Unmarshal(data, &th); err != nil {
		return Theme{}, fmt.Errorf("parse theme file: %w", err)
	}
	return th, nil
}

// Validate checks the sizes a renderer divides or multiplies by.
func (th Theme) Validate() error {
	if th.PageWidth <= 0 || th.PageHeight <= 0 {
		return fmt.Errorf("%w: page size must be positive", layout.ErrConfig)
	}
	if th.Margin < 0 {
		return fmt.Errorf("%w: margin must not be negative", layout.ErrConfig)
	}
	if th.LanePitch <= 0 {
		return fmt.Errorf("%w: lane pitch must be positive", layout.ErrConfig)
	}
	if th.HoleRadius <= 0 {
		return fmt.Errorf("%w: hole radius must be positive", layout.ErrConfig)
	}
	return nil
}
