// Package api provides the REST API server for punchline
package api

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/orsinium-labs/punchline/pkg/layout"
	"github.com/orsinium-labs/punchline/pkg/melody"
	"github.com/orsinium-labs/punchline/pkg/musicbox"
	"github.com/orsinium-labs/punchline/pkg/render"
)

// @title Punchline API
// @version 1.0
// @description API for converting MIDI melodies into music box punch card stripes
// @host localhost:8080
// @BasePath /api/v1

// StartServer starts the API server on the specified port
func StartServer(port int) error {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/boxes", listBoxes)
		v1.POST("/stats", handleStats)
		v1.POST("/convert", handleConvert)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r.Run(fmt.Sprintf(":%d", port))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "punchline",
	})
}

// listBoxes godoc
// @Summary List music box presets
// @Description Returns the built-in music boxes and their pitch ranges
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]map[string]interface{}
// @Router /api/v1/boxes [get]
func listBoxes(c *gin.Context) {
	boxes := make([]gin.H, 0, len(musicbox.Presets()))
	for _, name := range musicbox.Presets() {
		box, err := musicbox.Preset(name)
		if err != nil {
			continue
		}
		lo, hi := box.Range()
		boxes = append(boxes, gin.H{
			"name":    name,
			"lanes":   len(box.Lanes),
			"lowest":  musicbox.NoteName(lo),
			"highest": musicbox.NoteName(hi),
		})
	}
	c.JSON(http.StatusOK, gin.H{"boxes": boxes})
}

// handleStats godoc
// @Summary Report melody statistics
// @Description Upload a MIDI file and receive layout statistics without rendering
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "MIDI file to analyze"
// @Param box query string false "Box preset (default: box30)"
// @Param notes query int false "Lane count for a custom diatonic box"
// @Param sharps query bool false "Add semitone lanes to a custom box"
// @Param tracks query string false "Comma separated track indices"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/v1/stats [post]
func handleStats(c *gin.Context) {
	res, _, box, ok := runConversion(c)
	if !ok {
		return
	}
	r, err := render.New(box, render.DefaultTheme(), "")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"box":   len(box.Lanes),
		"pages": r.Pages(len(res.Stripes)),
		"stats": statsBody(res.Stats),
	})
}

// handleConvert godoc
// @Summary Convert MIDI to punch card pages
// @Description Upload a MIDI file and receive a zip with SVG pages and statistics
// @Tags convert
// @Accept multipart/form-data
// @Produce application/zip
// @Param file formData file true "MIDI file to convert"
// @Param box query string false "Box preset (default: box30)"
// @Param notes query int false "Lane count for a custom diatonic box"
// @Param sharps query bool false "Add semitone lanes to a custom box"
// @Param tracks query string false "Comma separated track indices"
// @Param speed query number false "Millimeters of stripe per tick"
// @Param max-pause query int false "Clamp longer silent gaps, in ticks"
// @Param cut-pause query int false "Remove longer silent gaps, in ticks"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert [post]
func handleConvert(c *gin.Context) {
	res, name, box, ok := runConversion(c)
	if !ok {
		return
	}

	r, err := render.New(box, render.DefaultTheme(), name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := uuid.New().String()
	archive, err := buildArchive(r, res, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	outputName := fmt.Sprintf("punchline-%s.zip", id[:8])
	c.Header("X-Conversion-Id", id)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputName))
	c.Data(http.StatusOK, "application/zip", archive)
}

// runConversion parses the uploaded melody and runs the layout pipeline.
// On failure it writes the error response and returns ok=false.
func runConversion(c *gin.Context) (res *layout.Result, name string, box *musicbox.Box, ok bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, "", nil, false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, "", nil, false
	}

	tracks, err := parseTracks(c.Query("tracks"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, "", nil, false
	}

	m, err := melody.Parse(data, tracks)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, "", nil, false
	}

	box, err = parseBox(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, "", nil, false
	}

	cfg, err := parseConfig(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, "", nil, false
	}

	res, err = layout.Run(m.Events, box, cfg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, layout.ErrConfig) || errors.Is(err, layout.ErrNoNotes) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return nil, "", nil, false
	}

	base := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	if base == "" {
		base = "melody"
	}
	return res, base, box, true
}

// parseBox picks the instrument: an explicit lane count builds a custom
// box, otherwise a preset by name, box30 by default.
func parseBox(c *gin.Context) (*musicbox.Box, error) {
	if notes := c.Query("notes"); notes != "" {
		n, err := strconv.Atoi(notes)
		if err != nil {
			return nil, fmt.Errorf("invalid notes count %q", notes)
		}
		return musicbox.New(n, c.Query("sharps") == "true")
	}
	return musicbox.Preset(c.DefaultQuery("box", "box30"))
}

func parseConfig(c *gin.Context) (layout.Config, error) {
	cfg := layout.DefaultConfig()
	var err error
	if cfg.SpeedFactor, err = floatParam(c, "speed", cfg.SpeedFactor); err != nil {
		return cfg, err
	}
	if cfg.MinDistance, err = floatParam(c, "min-distance", cfg.MinDistance); err != nil {
		return cfg, err
	}
	if cfg.StripeLength, err = floatParam(c, "stripe-length", cfg.StripeLength); err != nil {
		return cfg, err
	}
	if cfg.MaxPause, err = intParam(c, "max-pause", cfg.MaxPause); err != nil {
		return cfg, err
	}
	if cfg.CutPause, err = intParam(c, "cut-pause", cfg.CutPause); err != nil {
		return cfg, err
	}
	if cfg.TransposeLo, err = intParam(c, "transpose-lower", cfg.TransposeLo); err != nil {
		return cfg, err
	}
	if cfg.TransposeHi, err = intParam(c, "transpose-upper", cfg.TransposeHi); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func floatParam(c *gin.Context, name string, def float64) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func intParam(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func parseTracks(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	tracks := make([]int, 0, len(parts))
	for _, p := range parts {
		t, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid track index %q", p)
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// buildArchive packs the rendered pages and a stats report into a zip.
func buildArchive(r *render.Renderer, res *layout.Result, id string) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for page := 0; page < r.Pages(len(res.Stripes)); page++ {
		f, err := w.Create(fmt.Sprintf("%d.svg", page))
		if err != nil {
			return nil, fmt.Errorf("create zip entry: %w", err)
		}
		if _, err := f.Write([]byte(r.RenderPage(res.Stripes, page))); err != nil {
			return nil, fmt.Errorf("write page %d: %w", page, err)
		}
	}

	f, err := w.Create("stats.json")
	if err != nil {
		return nil, fmt.Errorf("create zip entry: %w", err)
	}
	report, err := json.MarshalIndent(map[string]any{
		"id":    id,
		"pages": r.Pages(len(res.Stripes)),
		"stats": statsBody(res.Stats),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode stats: %w", err)
	}
	if _, err := f.Write(report); err != nil {
		return nil, fmt.Errorf("write stats: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

func statsBody(st layout.Stats) gin.H {
	return gin.H{
		"sounds":       st.Sounds,
		"notes":        st.DistinctPitches,
		"transpose":    st.Shift,
		"exact":        st.Exact,
		"octave":       st.Octave,
		"nearest":      st.Nearest,
		"hit_ratio":    st.HitRatio,
		"perfect":      st.Perfect,
		"zero_time":    st.ZeroTime,
		"min_distance": st.MinLaneDistance,
		"length":       st.Length,
		"stripes":      st.Stripes,
	}
}
