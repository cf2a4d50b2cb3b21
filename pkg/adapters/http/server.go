package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/headless"
	"github.com/aretw0/headless/pkg/domain"
	"github.com/aretw0/headless/pkg/events"
	"github.com/aretw0/headless/pkg/observability"
	"github.com/aretw0/headless/pkg/registry"
	"github.com/aretw0/headless/pkg/terminal"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodySize bounds a POST /lines request.
const maxBodySize = 1 << 20

// Server is a line source and output sink reachable over HTTP.
type Server struct {
	source   *headless.ChannelSource
	streams  *StreamManager
	upgrader websocket.Upgrader
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	metrics  *observability.Metrics
	bufSize  int
	maxInput int
	mounts   []mount

	registry *registry.Registry
	history  func() []string
	out      *events.Reader[domain.OutputLine]
}

type mount struct {
	pattern string
	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger configures the structured logger. Defaults to the app logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer serves the gatherer at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithBufferSize sets the line buffer and the per-subscriber output buffer.
func WithBufferSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.bufSize = n
		}
	}
}

// WithMaxInputSize sets the longest accepted line. Defaults to terminal.MaxInputSize.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxInput = n
		}
	}
}

// WithHandler serves h at pattern next to the built-in routes.
func WithHandler(pattern string, h http.Handler) Option {
	return func(s *Server) {
		s.mounts = append(s.mounts, mount{pattern: pattern, handler: h})
	}
}

// NewServer creates a server. It becomes usable once attached with App.AddPlugin.
func NewServer(opts ...Option) *Server {
	s := &Server{
		bufSize: headless.DefaultInputBufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.source = headless.NewChannelSource(s.bufSize)
	return s
}

// Build attaches the server to app.
func (s *Server) Build(app *headless.App) error {
	if s.logger == nil {
		s.logger = app.Logger()
	}
	s.metrics = app.Metrics()
	s.registry = app.Registry()
	s.history = app.History
	s.streams = NewStreamManager(s.bufSize, s.logger)
	s.out = app.OutputReader()

	app.AddLineSource(s.source)
	return app.AddSystem(domain.PhasePostCommands, "http_broadcast", s.broadcast)
}

// Close stops accepting lines and ends every event stream.
func (s *Server) Close() {
	s.source.Close()
	if s.streams != nil {
		s.streams.CloseAll()
	}
}

// Streams returns the output fan-out.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

func (s *Server) broadcast(ctx context.Context) error {
	for _, l := range headless.Ordered(s.out.Read()) {
		data, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("encode output line: %w", err)
		}
		s.streams.Broadcast(string(data))
	}
	return nil
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Post("/lines", s.PostLines)
	r.Get("/commands", s.ListCommands)
	r.Get("/commands/{name}", s.GetCommand)
	r.Get("/history", s.GetHistory)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/ws", s.handleWebSocket)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	for _, m := range s.mounts {
		r.Handle(m.pattern, m.handler)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Mcp-Session-Id")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// LinesRequest is the JSON body of POST /lines.
type LinesRequest struct {
	Line  string   `json:"line,omitempty"`
	Lines []string `json:"lines,omitempty"`
}

// LinesResponse reports how many lines were queued.
type LinesResponse struct {
	Accepted int `json:"accepted"`
}

// PostLines handles POST /lines. A JSON body carries "line" or "lines"; any other body is
// split into lines.
func (s *Server) PostLines(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var lines []string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req LinesRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("PostLines: invalid request body", "error", err)
			return
		}
		if req.Line != "" {
			lines = append(lines, req.Line)
		}
		lines = append(lines, req.Lines...)
	} else {
		lines = strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	}

	clean := make([]string, 0, len(lines))
	for _, line := range lines {
		c, err := terminal.Sanitize(strings.TrimSpace(line), s.maxInput)
		if err != nil {
			s.metrics.LineRejected()
			http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
			s.logger.Warn("PostLines: input rejected", "error", err, "size", len(line))
			return
		}
		clean = append(clean, c)
	}

	accepted := 0
	for _, line := range clean {
		if err := s.source.Push(line); err != nil {
			status := http.StatusServiceUnavailable
			if errors.Is(err, domain.ErrSourceFull) {
				status = http.StatusTooManyRequests
			}
			s.writeJSON(w, status, LinesResponse{Accepted: accepted})
			return
		}
		accepted++
	}
	s.writeJSON(w, http.StatusAccepted, LinesResponse{Accepted: accepted})
}

// ListCommands handles GET /commands.
func (s *Server) ListCommands(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.List())
}

// GetCommand handles GET /commands/{name}.
func (s *Server) GetCommand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	d, ok := s.registry.Lookup(name)
	if !ok {
		http.Error(w, fmt.Sprintf("Command not recognized: `%s`", name), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

// GetHistory handles GET /history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	lines := s.history()
	if lines == nil {
		lines = []string{}
	}
	s.writeJSON(w, http.StatusOK, lines)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":         "headless-http",
		"version":     strings.TrimSpace(headless.Version),
		"commands":    s.registry.Len(),
		"subscribers": s.streams.Count(),
	})
}

// SubscribeEvents handles GET /events, streaming output lines as Server-Sent Events.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
