package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/growthgraph/models"
)

func TestJSONProcessor(t *testing.T) {
	p := NewJSONProcessor(DefaultValues())

	events, err := p.ProcessData([]byte(`[{"x": 100, "y": 50}, {"count": 49, "radius": 100, "x": 400, "y": 300}]`))
	require.NoError(t, err)
	assert.Equal(t, []models.LoopEvent{
		{Count: 10, Radius: 40, X: 100, Y: 50},
		{Count: 49, Radius: 100, X: 400, Y: 300},
	}, events)

	events, err = p.ProcessData([]byte(`{"loops": [{"count": 3, "radius": 0, "x": 1, "y": 2}]}`))
	require.NoError(t, err)
	assert.Equal(t, []models.LoopEvent{{Count: 3, Radius: 0, X: 1, Y: 2}}, events)
}

func TestJSONProcessorErrors(t *testing.T) {
	p := NewJSONProcessor(DefaultValues())

	_, err := p.ProcessData([]byte(`{"loops": [`))
	assert.Error(t, err)

	_, err = p.ProcessData([]byte(`[{"count": 0, "x": 1, "y": 1}]`))
	assert.ErrorIs(t, err, models.ErrInvalidLoop)
}

func TestCSVProcessor(t *testing.T) {
	p := NewCSVProcessor(DefaultValues())
	data := "X, Y, Radius, Count\n400,300,100,49\n10,20,,\n"

	events, err := p.ProcessData([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, []models.LoopEvent{
		{Count: 49, Radius: 100, X: 400, Y: 300},
		{Count: 10, Radius: 40, X: 10, Y: 20},
	}, events)
}

func TestCSVProcessorErrors(t *testing.T) {
	p := NewCSVProcessor(DefaultValues())

	_, err := p.ProcessData([]byte("radius,count\n1,2\n"))
	assert.ErrorContains(t, err, "x and y")

	_, err = p.ProcessData([]byte("x,y,count\n1,2,many\n"))
	assert.ErrorContains(t, err, "line 2")

	_, err = p.ProcessData([]byte("x,y,radius\n1,2,-5\n"))
	assert.ErrorIs(t, err, models.ErrInvalidLoop)
}

func TestTextProcessor(t *testing.T) {
	p := NewTextProcessor(DefaultValues())
	data := "# seeds\n\n400 300 100 49\n 50 60\n70 80 5\n"

	events, err := p.ProcessData([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, []models.LoopEvent{
		{Count: 49, Radius: 100, X: 400, Y: 300},
		{Count: 10, Radius: 40, X: 50, Y: 60},
		{Count: 10, Radius: 5, X: 70, Y: 80},
	}, events)

	_, err = p.ProcessData([]byte("1\n"))
	assert.ErrorContains(t, err, "line 1")
}

func TestGetProcessor(t *testing.T) {
	for format, name := range map[string]string{
		"json": "JSON Processor",
		"CSV":  "CSV Processor",
		"txt":  "Text Processor",
		"text": "Text Processor",
	} {
		p, err := GetProcessor(format, DefaultValues())
		require.NoError(t, err, format)
		assert.Equal(t, name, p.GetName())
	}

	_, err := GetProcessor("xml", DefaultValues())
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seeds.csv")
	require.NoError(t, os.WriteFile(path, []byte("x,y\n1,2\n"), 0600))

	events, err := LoadFile(path, Defaults{Count: 4, Radius: 8})
	require.NoError(t, err)
	assert.Equal(t, []models.LoopEvent{{Count: 4, Radius: 8, X: 1, Y: 2}}, events)

	_, err = LoadFile(filepath.Join(dir, "missing.json"), DefaultValues())
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "seeds.yaml"), DefaultValues())
	assert.ErrorContains(t, err, "unsupported format")
}
