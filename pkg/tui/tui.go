// Package tui provides a terminal user interface for punchline
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/orsinium-labs/punchline/pkg/layout"
	"github.com/orsinium-labs/punchline/pkg/melody"
	"github.com/orsinium-labs/punchline/pkg/musicbox"
	"github.com/orsinium-labs/punchline/pkg/render"
)

// Music-box inspired color scheme (brass and paper aesthetic)
var (
	// Primary colors - brass and ink
	brassGold = lipgloss.Color("#FFB000")
	inkBlue   = lipgloss.Color("#5FAFFF")
	paperGray = lipgloss.Color("#C0C0C0")
	darkGray  = lipgloss.Color("#333333")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(brassGold).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(paperGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(brassGold).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(inkBlue).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(brassGold).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(brassGold).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateConverting
	StateResult
)

// MenuItem represents a music box choice
type MenuItem struct {
	Title       string
	Description string
	Preset      string
}

var menuItems = []MenuItem{
	{Title: "15-note box", Description: "Diatonic C4 to C6, the small hand-crank boxes", Preset: "box15"},
	{Title: "20-note box", Description: "Diatonic C4 to A6", Preset: "box20"},
	{Title: "30-note box", Description: "The widespread DIY box, chromatic through the middle", Preset: "box30"},
	{Title: "Exit", Description: "Exit the application", Preset: ""},
}

// Model represents the TUI model
type Model struct {
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	selectedFile string
	outputDir    string
	box          MenuItem
	result       *layout.Result
	pages        int
	err          error
	width        int
	height       int
}

// layoutDoneMsg signals layout completion
type layoutDoneMsg struct {
	outputDir string
	result    *layout.Result
	pages     int
	err       error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model
func New() Model {
	// Initialize file picker
	fp := filepicker.New()
	fp.AllowedTypes = []string{".mid", ".midi"}
	fp.CurrentDirectory, _ = os.Getwd()

	// Initialize spinner
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(brassGold)

	return Model{
		state:      StateMenu,
		menuIndex:  0,
		filePicker: fp,
		spinner:    s,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle file picker state first - it needs to receive all messages
	if m.state == StateFilePicker {
		// Check for escape/quit keys first
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		// Pass all other messages to the file picker
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		// Check if file was selected
		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateConverting
			return m, tea.Batch(m.spinner.Tick, m.performLayout())
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.Height = msg.Height - 10
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case layoutDoneMsg:
		m.state = StateResult
		m.outputDir = msg.outputDir
		m.result = msg.result
		m.pages = msg.pages
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		if m.menuIndex == len(menuItems)-1 {
			return m, tea.Quit
		}
		m.box = menuItems[m.menuIndex]
		m.state = StateFilePicker
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.selectedFile = ""
		m.outputDir = ""
		m.result = nil
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) performLayout() tea.Cmd {
	return func() tea.Msg {
		box, err := musicbox.Preset(m.box.Preset)
		if err != nil {
			return layoutDoneMsg{err: err}
		}

		mel, err := melody.Read(m.selectedFile, nil)
		if err != nil {
			return layoutDoneMsg{err: err}
		}

		base := strings.TrimSuffix(m.selectedFile, filepath.Ext(m.selectedFile))
		r, err := render.New(box, render.DefaultTheme(), filepath.Base(base))
		if err != nil {
			return layoutDoneMsg{err: err}
		}

		cfg := layout.DefaultConfig()
		cfg.StripeLength = r.StaveLength()
		res, err := layout.Run(mel.Events, box, cfg)
		if err != nil {
			return layoutDoneMsg{err: err}
		}

		if _, err := r.WritePages(base, res.Stripes); err != nil {
			return layoutDoneMsg{err: err}
		}

		return layoutDoneMsg{
			outputDir: base,
			result:    res,
			pages:     r.Pages(len(res.Stripes)),
		}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	// Header
	header := asciiLogo()
	s.WriteString(header)
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateConverting:
		s.WriteString(m.viewConverting())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	// Footer help
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT MUSIC BOX "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(inkBlue).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT MIDI FILE "))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewConverting() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" LAYING OUT "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Laying out %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render(fmt.Sprintf("  %s → punch card staves", m.box.Title)))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Layout failed: %s", m.err.Error())))
	} else {
		st := m.result.Stats
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ Staves written!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:     %s\n", filepath.Base(m.selectedFile)))
		s.WriteString(fmt.Sprintf("Sounds:    %d (%d distinct pitches)\n", st.Sounds, st.DistinctPitches))
		s.WriteString(fmt.Sprintf("Transpose: %+d semitones\n", st.Shift))
		s.WriteString(fmt.Sprintf("Fit:       %d exact, %d octave, %d nearest (%.0f%% hit)", st.Exact, st.Octave, st.Nearest, st.HitRatio*100))
		if st.Perfect {
			s.WriteString(successStyle.Render("  PERFECT!"))
		}
		s.WriteString("\n")
		s.WriteString(fmt.Sprintf("Stripes:   %d on %d pages\n", st.Stripes, m.pages))
		s.WriteString(fmt.Sprintf("Output:    %s", filepath.Base(m.outputDir)))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
   ____  _   _ _   _  ____ _   _ _     ___ _   _ _____
  |  _ \| | | | \ | |/ ___| | | | |   |_ _| \ | | ____|
  | |_) | | | |  \| | |   | |_| | |   | || |\  |  _|
  |  __/| |_| | |\  | |___|  _  | |___| || | \  | |___
  |_|    \___/|_| \_|\____|_| |_|_____|___|_|  \_|_____|
`
	return lipgloss.NewStyle().Foreground(brassGold).Render(logo)
}

// Run starts the TUI application
func Run() error {
	p := tea.NewProgram(New(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
