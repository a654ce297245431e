// Package ingest parses seed files: lists of loops to insert before the
// first tick.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TFMV/growthgraph/models"
)

// DataProcessor defines the interface that all seed processors must implement
type DataProcessor interface {
	// ProcessData takes raw data bytes and returns the loops it describes
	ProcessData(data []byte) ([]models.LoopEvent, error)

	// GetName returns the name of the processor
	GetName() string
}

// Defaults fill in columns a seed file leaves out.
type Defaults struct {
	Count  int
	Radius float64
	X, Y   float64
}

// DefaultValues matches a mouse click: 10 points on a circle of radius 40.
// X and Y default to the origin; callers usually set them to the canvas center.
func DefaultValues() Defaults {
	return Defaults{Count: 10, Radius: 40}
}

func (d Defaults) event() models.LoopEvent {
	return models.LoopEvent{Count: d.Count, Radius: d.Radius, X: d.X, Y: d.Y}
}

// JSONProcessor handles JSON data: either a bare array of loops or an
// object with a "loops" array.
type JSONProcessor struct {
	defaults Defaults
}

// NewJSONProcessor creates a new JSON processor
func NewJSONProcessor(defaults Defaults) *JSONProcessor {
	return &JSONProcessor{defaults: defaults}
}

// GetName returns the name of the processor
func (p *JSONProcessor) GetName() string {
	return "JSON Processor"
}

type jsonLoop struct {
	Count  *int     `json:"count"`
	Radius *float64 `json:"radius"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
}

// ProcessData processes JSON data
func (p *JSONProcessor) ProcessData(data []byte) ([]models.LoopEvent, error) {
	var loops []jsonLoop
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &loops); err != nil {
			return nil, fmt.Errorf("error parsing JSON: %w", err)
		}
	} else {
		var doc struct {
			Loops []jsonLoop `json:"loops"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("error parsing JSON: %w", err)
		}
		loops = doc.Loops
	}

	events := make([]models.LoopEvent, 0, len(loops))
	for i, l := range loops {
		ev := p.defaults.event()
		if l.Count != nil {
			ev.Count = *l.Count
		}
		if l.Radius != nil {
			ev.Radius = *l.Radius
		}
		if l.X != nil {
			ev.X = *l.X
		}
		if l.Y != nil {
			ev.Y = *l.Y
		}
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("loop %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// CSVProcessor handles CSV data with a header row
type CSVProcessor struct {
	defaults Defaults
}

// NewCSVProcessor creates a new CSV processor
func NewCSVProcessor(defaults Defaults) *CSVProcessor {
	return &CSVProcessor{defaults: defaults}
}

// GetName returns the name of the processor
func (p *CSVProcessor) GetName() string {
	return "CSV Processor"
}

// ProcessData processes CSV data
func (p *CSVProcessor) ProcessData(data []byte) ([]models.LoopEvent, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	countIdx, radiusIdx, xIdx, yIdx := -1, -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "count", "points", "n":
			countIdx = i
		case "radius", "r":
			radiusIdx = i
		case "x", "cx":
			xIdx = i
		case "y", "cy":
			yIdx = i
		}
	}
	if xIdx == -1 || yIdx == -1 {
		return nil, fmt.Errorf("CSV must contain x and y columns")
	}

	var events []models.LoopEvent
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV row: %w", err)
		}

		ev := p.defaults.event()
		if ev.X, err = floatField(row, xIdx, ev.X); err != nil {
			return nil, fmt.Errorf("line %d: x: %w", line, err)
		}
		if ev.Y, err = floatField(row, yIdx, ev.Y); err != nil {
			return nil, fmt.Errorf("line %d: y: %w", line, err)
		}
		if ev.Radius, err = floatField(row, radiusIdx, ev.Radius); err != nil {
			return nil, fmt.Errorf("line %d: radius: %w", line, err)
		}
		if countIdx >= 0 && countIdx < len(row) && strings.TrimSpace(row[countIdx]) != "" {
			if ev.Count, err = strconv.Atoi(strings.TrimSpace(row[countIdx])); err != nil {
				return nil, fmt.Errorf("line %d: count: %w", line, err)
			}
		}
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// TextProcessor handles whitespace separated lines of "x y [radius [count]]".
// Blank lines and lines starting with # are ignored.
type TextProcessor struct {
	defaults Defaults
}

// NewTextProcessor creates a new text processor
func NewTextProcessor(defaults Defaults) *TextProcessor {
	return &TextProcessor{defaults: defaults}
}

// GetName returns the name of the processor
func (p *TextProcessor) GetName() string {
	return "Text Processor"
}

// ProcessData processes text data
func (p *TextProcessor) ProcessData(data []byte) ([]models.LoopEvent, error) {
	var events []models.LoopEvent
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 || len(fields) > 4 {
			return nil, fmt.Errorf("line %d: expected 2 to 4 fields, got %d", line, len(fields))
		}

		ev := p.defaults.event()
		var err error
		if ev.X, err = strconv.ParseFloat(fields[0], 64); err != nil {
			return nil, fmt.Errorf("line %d: x: %w", line, err)
		}
		if ev.Y, err = strconv.ParseFloat(fields[1], 64); err != nil {
			return nil, fmt.Errorf("line %d: y: %w", line, err)
		}
		if len(fields) > 2 {
			if ev.Radius, err = strconv.ParseFloat(fields[2], 64); err != nil {
				return nil, fmt.Errorf("line %d: radius: %w", line, err)
			}
		}
		if len(fields) > 3 {
			if ev.Count, err = strconv.Atoi(fields[3]); err != nil {
				return nil, fmt.Errorf("line %d: count: %w", line, err)
			}
		}
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading text: %w", err)
	}
	return events, nil
}

// GetProcessor returns the appropriate processor for the given format
func GetProcessor(format string, defaults Defaults) (DataProcessor, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONProcessor(defaults), nil
	case "csv":
		return NewCSVProcessor(defaults), nil
	case "txt", "text":
		return NewTextProcessor(defaults), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// FormatFromPath infers the seed format from a file extension.
func FormatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// LoadFile reads a seed file, choosing the processor by extension.
func LoadFile(path string, defaults Defaults) ([]models.LoopEvent, error) {
	processor, err := GetProcessor(FormatFromPath(path), defaults)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}
	events, err := processor.ProcessData(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

func floatField(row []string, idx int, fallback float64) (float64, error) {
	if idx < 0 || idx >= len(row) || strings.TrimSpace(row[idx]) == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
}
