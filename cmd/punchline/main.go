// Package main is the entry point for punchline CLI
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/orsinium-labs/punchline/pkg/api"
	"github.com/orsinium-labs/punchline/pkg/layout"
	"github.com/orsinium-labs/punchline/pkg/melody"
	"github.com/orsinium-labs/punchline/pkg/musicbox"
	"github.com/orsinium-labs/punchline/pkg/render"
	"github.com/orsinium-labs/punchline/pkg/tui"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputDir    string
	boxName      string
	boxFile      string
	notesCount   int
	sharps       bool
	themeFile    string
	noLines      bool
	noLabels     bool
	tracks       []int
	speed        float64
	minDistance  float64
	maxPause     int
	cutPause     int
	stripeLength float64
	transposeLo  int
	transposeHi  int
	serverPort   int
	verbose      bool
)

// logger is the package-wide structured logger. Safe to use before initLogger
// is called; defaults to slog.Default().
var logger = slog.Default()

// initLogger configures the shared slog logger and calls slog.SetDefault so
// the stdlib log package also routes through the same handler.
func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug, // include file:line in debug mode
	})
	logger = slog.New(h)
	slog.SetDefault(logger) // stdlib log.* now routes through slog
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "punchline",
	Short: "Lay out MIDI melodies as music box punch cards",
	Long: `punchline turns a MIDI melody into printable punch card staves
for hand-crank music boxes.

Pick a box model, feed it a melody and print the pages. Cut the card
along the stave frame, punch the holes and crank away.

Examples:
  punchline convert melody.mid
  punchline convert melody.mid -b box15 -o cards
  punchline stats melody.mid --tracks 0
  punchline boxes
  punchline tui
  punchline serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(verbose)
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <input.mid>",
	Short: "Lay out a melody and write SVG pages",
	Long:  `Reads a MIDI melody, fits it onto the selected music box and writes the punch card staves as SVG pages, one file per page.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var statsCmd = &cobra.Command{
	Use:   "stats <input.mid>",
	Short: "Report how well a melody fits a box",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

var boxesCmd = &cobra.Command{
	Use:   "boxes",
	Short: "List the built-in music box models",
	RunE:  runBoxes,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Convert command
	addMelodyFlags(convertCmd)
	convertCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: input name without extension)")
	convertCmd.Flags().StringVar(&themeFile, "theme", "", "Page theme YAML file")
	convertCmd.Flags().BoolVar(&noLines, "no-lines", false, "Skip lane lines and stave frames (laser cutting)")
	convertCmd.Flags().BoolVar(&noLabels, "no-labels", false, "Skip note names and captions (laser cutting)")

	// Stats command
	addMelodyFlags(statsCmd)

	// Serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	// Add commands
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(boxesCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

// addMelodyFlags registers the flags shared by every command that reads a
// melody and fits it onto a box.
func addMelodyFlags(cmd *cobra.Command) {
	def := layout.DefaultConfig()
	f := cmd.Flags()
	f.StringVarP(&boxName, "box", "b", "box30", "Built-in box model (box15, box20, box30)")
	f.StringVar(&boxFile, "box-file", "", "Custom box definition YAML file")
	f.IntVar(&notesCount, "notes", 0, "Generate a diatonic box with this many lanes instead of a preset")
	f.BoolVar(&sharps, "sharps", false, "Make the generated box chromatic")
	f.IntSliceVar(&tracks, "tracks", nil, "MIDI tracks to read (default: all)")
	f.Float64Var(&speed, "speed", def.SpeedFactor, "Tape speed in mm per MIDI tick")
	f.Float64Var(&minDistance, "min-distance", def.MinDistance, "Same-lane distance in mm under which holes are flagged")
	f.IntVar(&maxPause, "max-pause", def.MaxPause, "Clamp pauses longer than this many ticks (0: off)")
	f.IntVar(&cutPause, "cut-pause", def.CutPause, "Remove pauses longer than this many ticks (0: off)")
	f.Float64Var(&stripeLength, "stripe-length", 0, "Stripe length in mm (default: the printable stave length)")
	f.IntVar(&transposeLo, "transpose-lower", def.TransposeLo, "Lowest transposition to try")
	f.IntVar(&transposeHi, "transpose-upper", def.TransposeHi, "Highest transposition to try")
}

// pickBox resolves the box selection flags, most specific first.
func pickBox() (*musicbox.Box, error) {
	if boxFile != "" {
		return musicbox.LoadFile(boxFile)
	}
	if notesCount > 0 {
		return musicbox.New(notesCount, sharps)
	}
	return musicbox.Preset(boxName)
}

func loadTheme() (render.Theme, error) {
	th, err := render.LoadTheme(themeFile)
	if err != nil {
		return th, err
	}
	if noLines {
		th.NoLines = true
	}
	if noLabels {
		th.NoLabels = true
	}
	return th, nil
}

// layoutMelody runs the pipeline with the flag configuration. The stripe
// length falls back to the renderer's printable stave length so stripes fill
// a page row by default.
func layoutMelody(mel *melody.Melody, box *musicbox.Box, r *render.Renderer) (*layout.Result, layout.Config, error) {
	cfg := layout.DefaultConfig()
	cfg.SpeedFactor = speed
	cfg.MinDistance = minDistance
	cfg.MaxPause = maxPause
	cfg.CutPause = cutPause
	cfg.TransposeLo = transposeLo
	cfg.TransposeHi = transposeHi
	cfg.StripeLength = stripeLength
	if cfg.StripeLength <= 0 {
		cfg.StripeLength = r.StaveLength()
	}

	res, err := layout.Run(mel.Events, box, cfg)
	if err != nil {
		return nil, cfg, err
	}
	logger.Debug("melody fitted", "transpose", res.Shift, "exact", res.Stats.Exact, "stripes", len(res.Stripes))
	return res, cfg, nil
}

func writeStats(w io.Writer, res *layout.Result, cfg layout.Config, r *render.Renderer) {
	st := res.Stats
	fmt.Fprintf(w, "sounds: %d\n", st.Sounds)
	fmt.Fprintf(w, "notes: %d\n", st.DistinctPitches)
	fmt.Fprintf(w, "minimum note distance: %.2f\n", st.MinLaneDistance)
	fmt.Fprintf(w, "transpose: %d\n", st.Shift)
	fmt.Fprintf(w, "percentage hit: %.0f%%\n", st.HitRatio*100)
	if st.Perfect {
		fmt.Fprintln(w, "^ PERFECT!")
	}
	if st.ZeroTime > 2 {
		percent := float64(st.ZeroTime) / float64(st.Sounds) * 100
		fmt.Fprintf(w, "sounds without time: %d (%.0f%%)\n", st.ZeroTime, percent)
	}
	fmt.Fprintf(w, "max length: %.1f\n", st.Length)
	fmt.Fprintf(w, "max stave length: %g\n", cfg.StripeLength)
	fmt.Fprintf(w, "no staves: %d\n", st.Stripes)
	fmt.Fprintf(w, "pages: %d\n", r.Pages(st.Stripes))
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]

	box, err := pickBox()
	if err != nil {
		return err
	}
	th, err := loadTheme()
	if err != nil {
		return err
	}

	mel, err := melody.Read(input, tracks)
	if err != nil {
		return err
	}
	logger.Debug("melody parsed", "events", len(mel.Events), "ticks_per_quarter", mel.TicksPerQuarter)

	label := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	r, err := render.New(box, th, label)
	if err != nil {
		return err
	}

	res, cfg, err := layoutMelody(mel, box, r)
	if err != nil {
		return err
	}

	output := outputDir
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input))
	}
	paths, err := r.WritePages(output, res.Stripes)
	if err != nil {
		return err
	}

	writeStats(os.Stdout, res, cfg, r)
	fmt.Printf("Wrote %d pages to %s\n", len(paths), output)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	input := args[0]

	box, err := pickBox()
	if err != nil {
		return err
	}
	mel, err := melody.Read(input, tracks)
	if err != nil {
		return err
	}
	r, err := render.New(box, render.DefaultTheme(), "")
	if err != nil {
		return err
	}
	res, cfg, err := layoutMelody(mel, box, r)
	if err != nil {
		return err
	}

	writeStats(os.Stdout, res, cfg, r)
	return nil
}

func runBoxes(cmd *cobra.Command, args []string) error {
	for _, name := range musicbox.Presets() {
		box, err := musicbox.Preset(name)
		if err != nil {
			return err
		}
		lo, hi := box.Range()
		fmt.Printf("%s: %d lanes, %s to %s\n", name, len(box.Lanes), musicbox.NoteName(lo), musicbox.NoteName(hi))
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run()
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort)
}
