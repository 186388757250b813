// Package render draws layout results as printable SVG pages. Pages are
// emitted as plain SVG markup: lane lines with note names, registration
// crosses for aligning the print, and one circle per punch hole, colored
// by how well the note fits the box.
package render

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/orsinium-labs/punchline/pkg/layout"
	"github.com/orsinium-labs/punchline/pkg/musicbox"
)

// crossSize is the half length of a registration cross arm.
const crossSize = 2.5

// Renderer draws the stripes of one conversion onto SVG pages. Several
// stripes are stacked on each page, as many as the page height allows.
type Renderer struct {
	Box   *musicbox.Box
	Theme Theme
	Label string // caption suffix, usually the melody name
}

// New builds a renderer and rejects geometry that cannot hold a single
// stripe per page.
func New(box *musicbox.Box, th Theme, label string) (*Renderer, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	r := &Renderer{Box: box, Theme: th, Label: label}
	if r.StavesPerPage() < 1 {
		return nil, fmt.Errorf("%w: page %vx%vmm is too small for a %d lane stave",
			layout.ErrConfig, th.PageWidth, th.PageHeight, len(box.Lanes))
	}
	return r, nil
}

// StaveWidth is the width of one stripe on the page, including the gap
// that separates it from the next one.
func (r *Renderer) StaveWidth() float64 {
	return float64(len(r.Box.Lanes)-1)*r.Theme.LanePitch + r.Theme.Margin
}

// StaveLength is the usable stripe length on one page.
func (r *Renderer) StaveLength() float64 {
	return r.Theme.PageWidth - 2*r.Theme.Margin
}

// StavesPerPage is how many stripes fit on one page top to bottom.
func (r *Renderer) StavesPerPage() int {
	return int((r.Theme.PageHeight - r.Theme.Margin) / r.StaveWidth())
}

// Pages is how many pages the given number of stripes needs.
func (r *Renderer) Pages(stripes int) int {
	perPage := r.StavesPerPage()
	return (stripes + perPage - 1) / perPage
}

// RenderPage draws one page of stripes and returns the SVG markup.
func (r *Renderer) RenderPage(stripes []layout.Stripe, page int) string {
	th := r.Theme
	var b strings.Builder
	fmt.Fprintf(&b, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<svg xmlns=\"http://www.w3.org/2000/svg\" width=%q height=%q>\n",
		mm(th.PageWidth), mm(th.PageHeight))
	perPage := r.StavesPerPage()
	for slot := 0; slot < perPage; slot++ {
		idx := page*perPage + slot
		if idx >= len(stripes) {
			break
		}
		r.renderStave(&b, stripes[idx], slot)
	}
	b.WriteString("</svg>\n")
	return b.String()
}

// WritePages writes every page as <n>.svg under dir and returns the
// written paths in page order.
func (r *Renderer) WritePages(dir string, stripes []layout.Stripe) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	paths := make([]string, 0, r.Pages(len(stripes)))
	for page := 0; page < r.Pages(len(stripes)); page++ {
		path := filepath.Join(dir, fmt.Sprintf("%d.svg", page))
		data := []byte(r.RenderPage(stripes, page))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("write page %d: %w", page, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// renderStave draws one stripe into the given vertical slot of the page.
// The time axis runs along the page width, lanes run down the page.
func (r *Renderer) renderStave(b *strings.Builder, stripe layout.Stripe, slot int) {
	th := r.Theme
	top := float64(slot)*r.StaveWidth() + th.Margin
	bottom := top + float64(len(r.Box.Lanes)-1)*th.LanePitch
	left := th.Margin
	right := th.Margin + stripe.Length

	r.cross(b, left, top-th.MarkerOffset)
	r.cross(b, right, top-th.MarkerOffset)
	r.cross(b, left, bottom+th.MarkerOffset)
	r.cross(b, right, bottom+th.MarkerOffset)

	fmt.Fprintf(b, "<text x=%q y=%q fill=%q font-size=%q>STAVE %d - %s</text>\n",
		mm(th.Margin*2), mm(bottom+th.MarkerOffset), th.Colors.Caption, mm(th.FontSize),
		stripe.Index, html.EscapeString(r.Label))

	for i, lane := range r.Box.Lanes {
		row := top + float64(i)*th.LanePitch
		if !th.NoLines {
			fmt.Fprintf(b, "<line x1=%q y1=%q x2=%q y2=%q stroke=%q stroke-width=\"0.1mm\"/>\n",
				mm(left), mm(row), mm(right), mm(row), th.Colors.Lines)
		}
		if !th.NoLabels {
			fmt.Fprintf(b, "<text x=%q y=%q fill=%q font-size=%q>%s</text>\n",
				mm(th.Margin-2), mm(row+th.FontSize/2), th.Colors.Labels, mm(th.FontSize),
				musicbox.NoteName(lane.Pitch))
		}
	}

	for _, n := range stripe.Notes {
		x := left + (n.Y - stripe.Start)
		row := top + float64(n.Lane)*th.LanePitch
		if n.Collides {
			fmt.Fprintf(b, "<circle cx=%q cy=%q r=%q fill=%q stroke=%q stroke-width=\"0.3mm\"/>\n",
				mm(x), mm(row), mm(th.HoleRadius), r.fill(n.Kind), th.Colors.Collision)
		} else {
			fmt.Fprintf(b, "<circle cx=%q cy=%q r=%q fill=%q/>\n",
				mm(x), mm(row), mm(th.HoleRadius), r.fill(n.Kind))
		}
	}
}

// cross draws a registration mark centered on (x, y).
func (r *Renderer) cross(b *strings.Builder, x, y float64) {
	c := r.Theme.Colors.Lines
	fmt.Fprintf(b, "<line x1=%q y1=%q x2=%q y2=%q stroke=%q stroke-width=\"0.1mm\"/>\n",
		mm(x-crossSize), mm(y), mm(x+crossSize), mm(y), c)
	fmt.Fprintf(b, "<line x1=%q y1=%q x2=%q y2=%q stroke=%q stroke-width=\"0.1mm\"/>\n",
		mm(x), mm(y-crossSize), mm(x), mm(y+crossSize), c)
}

func (r *Renderer) fill(kind layout.FitKind) string {
	switch kind {
	case layout.FitExact:
		return r.Theme.Colors.Exact
	case layout.FitOctave:
		return r.Theme.Colors.Octave
	default:
		return r.Theme.Colors.Nearest
	}
}

func mm(v float64) string {
	return fmt.Sprintf("%vmm", v)
}
