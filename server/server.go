// Package server exposes a running simulation over HTTP: the latest frame as
// SVG or JSON, node queries, loop insertion and prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/TFMV/growthgraph/driver"
	"github.com/TFMV/growthgraph/ingest"
	"github.com/TFMV/growthgraph/models"
	"github.com/TFMV/growthgraph/render"
)

// Controller is the part of driver.Driver the server needs.
type Controller interface {
	Latest() *models.Frame
	Enqueue(ev models.LoopEvent) error
	EnqueueBatch(events ...models.LoopEvent) error
}

// Configuration for the server
type Config struct {
	Addr        string
	ClickCount  int
	ClickRadius float64
	StrokeWidth float64
	Background  string
}

// DefaultConfig serves on :8080 and adds 10 point loops of radius 40 on click.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		ClickCount:  10,
		ClickRadius: 40,
		StrokeWidth: 5,
		Background:  "#000000",
	}
}

// Server routes HTTP requests to a Controller.
type Server struct {
	cfg    Config
	ctrl   Controller
	logger *zap.Logger
	mux    *http.ServeMux
}

// New registers every route on a fresh mux.
func New(cfg Config, ctrl Controller, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		ctrl:   ctrl,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("/", s.handleIndex())
	s.mux.HandleFunc("/visualize", s.handleVisualize())
	s.mux.HandleFunc("/upload", s.handleUpload())
	s.mux.HandleFunc("/api/frame", s.handleAPIFrame())
	s.mux.HandleFunc("/api/node", s.handleAPINode())
	s.mux.HandleFunc("/api/loop", s.handleAPILoop())
	s.mux.Handle("/metrics", promhttp.Handler())
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start launches the web server and shuts it down when ctx is canceled.
func Start(ctx context.Context, cfg Config, ctrl Controller, logger *zap.Logger) error {
	s := New(cfg, ctrl, logger)

	// Start server with timeout protection
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", cfg.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	}
}

// handleIndex renders a page that polls the SVG frame and posts clicks as loops
func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>growthgraph</title>
  <style>
    body { margin: 0; background: #000; color: #808080; font-family: sans-serif; }
    #frame { display: block; margin: 0 auto; cursor: crosshair; }
  </style>
</head>
<body>
  <img id="frame" src="/visualize?format=svg" alt="growth">
  <script>
    const img = document.getElementById('frame');
    setInterval(() => { img.src = '/visualize?format=svg&t=' + Date.now(); }, 100);
    img.addEventListener('click', (e) => {
      const rect = img.getBoundingClientRect();
      const x = (e.clientX - rect.left) * img.naturalWidth / rect.width;
      const y = (e.clientY - rect.top) * img.naturalHeight / rect.height;
      fetch('/api/loop', {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify({ x: x, y: y })
      });
    });
  </script>
</body>
</html>
`)
	}
}

// handleVisualize renders the latest frame in the requested format
func (s *Server) handleVisualize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		format := r.URL.Query().Get("format")
		if format == "" {
			format = "svg" // Default format
		}

		frame := s.ctrl.Latest()
		options := render.NewDefaultOptions(format)
		if frame.Width > 0 && frame.Height > 0 {
			options.Width = frame.Width
			options.Height = frame.Height
		}
		if s.cfg.StrokeWidth > 0 {
			options.StrokeWidth = s.cfg.StrokeWidth
		}
		if s.cfg.Background != "" {
			options.Background = s.cfg.Background
		}
		if q := r.URL.Query().Get("stats"); q != "" {
			options.ShowStats, _ = strconv.ParseBool(q)
		}

		output, err := render.GenerateWithOptions(frame, options)
		if err != nil {
			http.Error(w, "Error generating visualization: "+err.Error(), http.StatusBadRequest)
			return
		}

		// Set appropriate content type
		switch format {
		case "svg":
			w.Header().Set("Content-Type", "image/svg+xml")
		case "json":
			w.Header().Set("Content-Type", "application/json")
		default:
			w.Header().Set("Content-Type", "text/plain")
		}
		w.Header().Set("Cache-Control", "no-store")
		w.Write(output)
	}
}

// handleUpload queues every loop of an uploaded seed file
func (s *Server) handleUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		err := r.ParseMultipartForm(1 << 20) // 1 MB limit
		if err != nil {
			http.Error(w, "Error parsing form: "+err.Error(), http.StatusBadRequest)
			return
		}

		file, handler, err := r.FormFile("seedFile")
		if err != nil {
			http.Error(w, "Error retrieving file: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		processor, err := ingest.GetProcessor(ingest.FormatFromPath(handler.Filename), s.clickDefaults())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "Error reading file: "+err.Error(), http.StatusBadRequest)
			return
		}
		events, err := processor.ProcessData(data)
		if err != nil {
			http.Error(w, "Error processing file: "+err.Error(), http.StatusBadRequest)
			return
		}

		// The whole file is queued or none of it is.
		if err := s.ctrl.EnqueueBatch(events...); err != nil {
			s.writeEnqueueError(w, err)
			return
		}
		s.logger.Info("seed file queued", zap.String("file", handler.Filename), zap.Int("loops", len(events)))
		s.writeJSON(w, http.StatusAccepted, map[string]int{"queued": len(events)})
	}
}

// handleAPIFrame provides the latest frame as JSON
func (s *Server) handleAPIFrame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.writeJSON(w, http.StatusOK, s.ctrl.Latest())
	}
}

type nodeResponse struct {
	Tick      int              `json:"tick"`
	Node      models.NodeState `json:"node"`
	Neighbors []int            `json:"neighbors"`
}

// handleAPINode returns one node of the latest frame with its neighbors
func (s *Server) handleAPINode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		raw := r.URL.Query().Get("id")
		if raw == "" {
			http.Error(w, "Missing node ID", http.StatusBadRequest)
			return
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid node ID: "+raw, http.StatusBadRequest)
			return
		}

		frame := s.ctrl.Latest()
		node, err := frame.FindNode(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		neighbors := frame.Neighbors(id)
		if neighbors == nil {
			neighbors = []int{}
		}
		s.writeJSON(w, http.StatusOK, nodeResponse{Tick: frame.Tick, Node: *node, Neighbors: neighbors})
	}
}

// handleAPILoop queues a loop insertion for the next tick boundary
func (s *Server) handleAPILoop() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body := struct {
			Count  *int     `json:"count"`
			Radius *float64 `json:"radius"`
			X      *float64 `json:"x"`
			Y      *float64 `json:"y"`
		}{}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil {
			http.Error(w, "Error parsing body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if body.X == nil || body.Y == nil {
			http.Error(w, "x and y are required", http.StatusBadRequest)
			return
		}

		ev := models.LoopEvent{Count: s.cfg.ClickCount, Radius: s.cfg.ClickRadius, X: *body.X, Y: *body.Y}
		if body.Count != nil {
			ev.Count = *body.Count
		}
		if body.Radius != nil {
			ev.Radius = *body.Radius
		}

		if err := s.ctrl.Enqueue(ev); err != nil {
			s.writeEnqueueError(w, err)
			return
		}
		s.writeJSON(w, http.StatusAccepted, ev)
	}
}

func (s *Server) writeEnqueueError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidLoop):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, driver.ErrQueueFull):
		s.logger.Warn("loop dropped", zap.Error(err))
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) clickDefaults() ingest.Defaults {
	d := ingest.Defaults{Count: s.cfg.ClickCount, Radius: s.cfg.ClickRadius}
	if f := s.ctrl.Latest(); f != nil {
		d.X, d.Y = f.Width/2, f.Height/2
	}
	return d
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		s.logger.Warn("response encoding failed", zap.Int("status", status), zap.Error(err))
	}
}
