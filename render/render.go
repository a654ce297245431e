// Package render turns simulation frames into SVG, ASCII, JSON and DOT output.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/TFMV/growthgraph/models"
)

// OutputOptions defines rendering configuration options
type OutputOptions struct {
	Format      string  // Output format (svg, ascii, json, dot)
	Width       float64 // Width of the output
	Height      float64 // Height of the output
	Background  string  // Background color
	StrokeWidth float64 // Width of every segment
	Opacity     float64 // Stroke opacity (0.0-1.0)
	Timestamp   bool    // Include timestamp in visualization
	ShowStats   bool    // Print node and edge counts
	Quality     string  // Rendering quality (low, medium, high)
}

// Renderer interface defines methods that all rendering backends must implement
type Renderer interface {
	// Render creates a visualization of the frame using the provided options
	Render(frame *models.Frame, options *OutputOptions) ([]byte, error)

	// Name returns the name of the renderer
	Name() string

	// Description returns a description of the renderer
	Description() string
}

// NewDefaultOptions creates a default set of output options
func NewDefaultOptions(format string) *OutputOptions {
	return &OutputOptions{
		Format:      format,
		Width:       800,
		Height:      600,
		Background:  "#000000",
		StrokeWidth: 5.0,
		Opacity:     1.0,
		Timestamp:   false,
		ShowStats:   true,
		Quality:     "medium",
	}
}

// GetRenderer returns the appropriate renderer based on format
func GetRenderer(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "svg":
		return &SVGRenderer{}, nil
	case "ascii":
		return &ASCIIRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "dot":
		return &DOTRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Generate renders a frame with the default options for format, sized to the frame's canvas
func Generate(frame *models.Frame, format string) ([]byte, error) {
	options := NewDefaultOptions(format)
	if frame.Width > 0 && frame.Height > 0 {
		options.Width = frame.Width
		options.Height = frame.Height
	}
	return GenerateWithOptions(frame, options)
}

// GenerateWithOptions renders a frame with specific output options
func GenerateWithOptions(frame *models.Frame, options *OutputOptions) ([]byte, error) {
	renderer, err := GetRenderer(options.Format)
	if err != nil {
		return nil, err
	}
	output, err := renderer.Render(frame, options)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", renderer.Name(), err)
	}
	return output, nil
}

// SVGRenderer outputs SVG format
type SVGRenderer struct{}

// Name returns the name of the renderer
func (r *SVGRenderer) Name() string {
	return "SVG Renderer"
}

// Description returns a description of the renderer
func (r *SVGRenderer) Description() string {
	return "Renders frames as Scalable Vector Graphics (SVG) for high-quality vector output"
}

// Render creates an SVG representation of the frame
func (r *SVGRenderer) Render(frame *models.Frame, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="%g" height="%g" viewBox="0 0 %g %g" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
`, options.Width, options.Height, options.Width, options.Height, options.Background)

	opacity := options.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	fmt.Fprintf(&buf, `<g stroke-width="%g" stroke-linecap="round" stroke-opacity="%g" fill="none">
`, options.StrokeWidth, opacity)
	for _, s := range frame.Segments {
		fmt.Fprintf(&buf, `<line x1="%.3f" y1="%.3f" x2="%.3f" y2="%.3f" stroke="%s"/>
`, s.X1, s.Y1, s.X2, s.Y2, s.Color.Hex())
	}
	buf.WriteString("</g>\n")

	// Draw a border if quality is high
	if options.Quality == "high" {
		fmt.Fprintf(&buf, `<rect x="0" y="0" width="%g" height="%g" fill="none" stroke="#333333" stroke-width="1"/>
`, options.Width, options.Height)
	}

	if options.ShowStats {
		fmt.Fprintf(&buf, `<text x="5" y="15" font-family="sans-serif" font-size="10" fill="#808080">Tick: %d | Nodes: %d | Edges: %d</text>
`, frame.Tick, len(frame.Nodes), len(frame.Edges))
	}

	if options.Timestamp {
		fmt.Fprintf(&buf, `<text x="5" y="%g" font-family="sans-serif" font-size="8" fill="#808080">%s</text>
`, options.Height-5, frame.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	buf.WriteString(`</svg>`)
	return buf.Bytes(), nil
}

// ASCIIRenderer outputs ASCII art format
type ASCIIRenderer struct{}

// Name returns the name of the renderer
func (r *ASCIIRenderer) Name() string {
	return "ASCII Renderer"
}

// Description returns a description of the renderer
func (r *ASCIIRenderer) Description() string {
	return "Renders frames as ASCII art for terminal or text-based output"
}

// Render creates an ASCII representation of the frame
func (r *ASCIIRenderer) Render(frame *models.Frame, options *OutputOptions) ([]byte, error) {
	if options.Width <= 0 || options.Height <= 0 {
		return nil, fmt.Errorf("canvas size %gx%g must be positive", options.Width, options.Height)
	}
	width := max(int(options.Width/10), 40)
	height := max(int(options.Height/20), 20)
	return []byte(Grid(frame, options.Width, options.Height, width, height)), nil
}

// Grid rasterizes the frame's segments onto a cols x rows character grid
// framed by a border. Canvas coordinates are scaled from canvasW x canvasH.
func Grid(frame *models.Frame, canvasW, canvasH float64, cols, rows int) string {
	cols = max(cols, 3)
	rows = max(rows, 3)
	grid := make([][]rune, rows)
	for i := range grid {
		grid[i] = make([]rune, cols)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}

	for i := 0; i < cols; i++ {
		grid[0][i] = '-'
		grid[rows-1][i] = '-'
	}
	for i := 0; i < rows; i++ {
		grid[i][0] = '|'
		grid[i][cols-1] = '|'
	}
	grid[0][0] = '+'
	grid[0][cols-1] = '+'
	grid[rows-1][0] = '+'
	grid[rows-1][cols-1] = '+'

	toCell := func(x, y float64) (int, int) {
		cx := int(x*float64(cols-2)/canvasW) + 1
		cy := int(y*float64(rows-2)/canvasH) + 1
		return clamp(cx, 1, cols-2), clamp(cy, 1, rows-2)
	}

	for _, s := range frame.Segments {
		x1, y1 := toCell(s.X1, s.Y1)
		x2, y2 := toCell(s.X2, s.Y2)
		drawLine(grid, x1, y1, x2, y2)
	}
	for _, n := range frame.Nodes {
		x, y := toCell(n.X, n.Y)
		grid[y][x] = 'o'
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// JSONRenderer outputs raw JSON format
type JSONRenderer struct{}

// Name returns the name of the renderer
func (r *JSONRenderer) Name() string {
	return "JSON Renderer"
}

// Description returns a description of the renderer
func (r *JSONRenderer) Description() string {
	return "Renders the frame as JSON data for machine consumption or custom visualizations"
}

// Render creates a JSON representation of the frame
func (r *JSONRenderer) Render(frame *models.Frame, options *OutputOptions) ([]byte, error) {
	type jsonFrame struct {
		*models.Frame
		Metadata map[string]interface{} `json:"metadata"`
	}

	data := jsonFrame{
		Frame: frame,
		Metadata: map[string]interface{}{
			"width":        options.Width,
			"height":       options.Height,
			"background":   options.Background,
			"rendered_at":  time.Now().Format(time.RFC3339),
			"nodeCount":    len(frame.Nodes),
			"edgeCount":    len(frame.Edges),
			"segmentCount": len(frame.Segments),
		},
	}
	return json.MarshalIndent(data, "", "  ")
}

// DOTRenderer outputs Graphviz DOT format
type DOTRenderer struct{}

// Name returns the name of the renderer
func (r *DOTRenderer) Name() string {
	return "DOT Renderer"
}

// Description returns a description of the renderer
func (r *DOTRenderer) Description() string {
	return "Renders the frame's graph in Graphviz DOT format with pinned positions"
}

// Render creates a DOT representation of the frame
func (r *DOTRenderer) Render(frame *models.Frame, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  graph [bgcolor=\"%s\", size=\"%f,%f\"];\n",
		options.Background, options.Width/72.0, options.Height/72.0)
	buf.WriteString("  node [shape=point, width=0.05];\n")

	for _, n := range frame.Nodes {
		// DOT's y axis points up
		fmt.Fprintf(&buf, "  n%d [pos=\"%f,%f!\"];\n", n.ID, n.X/72.0, (options.Height-n.Y)/72.0)
	}
	for _, e := range frame.Edges {
		fmt.Fprintf(&buf, "  n%d -- n%d;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// Helper functions

// Clamp a value between lo and hi
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Draw a line on the ASCII grid using Bresenham's algorithm
func drawLine(grid [][]rune, x1, y1, x2, y2 int) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 >= x2 {
		sx = -1
	}
	sy := 1
	if y1 >= y2 {
		sy = -1
	}
	err := dx + dy

	for {
		if y1 >= 0 && y1 < len(grid) && x1 >= 0 && x1 < len(grid[y1]) && grid[y1][x1] == ' ' {
			grid[y1][x1] = '.'
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 >= dy {
			if x1 == x2 {
				break
			}
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			if y1 == y2 {
				break
			}
			err += dx
			y1 += sy
		}
	}
}

// Absolute value of an integer
func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
