package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/mermaidviz"
	"github.com/aretw0/mermaidviz/internal/diagram"
	"github.com/aretw0/mermaidviz/internal/logging"
	"github.com/aretw0/mermaidviz/internal/web"
	"github.com/aretw0/mermaidviz/pkg/domain"
	"github.com/aretw0/mermaidviz/pkg/observability"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	msgInvalidBody   = domain.MessageInvalidBody
	msgInternalError = domain.MessageInternalError

	// maxBodyBytes bounds the JSON envelope; the text itself is bounded by the converter.
	maxBodyBytes = 1 << 20
)

// Converter turns free text into diagram syntax.
type Converter interface {
	Convert(ctx context.Context, text string) (string, error)
}

// Server serves the editor page and the conversion API.
type Server struct {
	converter Converter
	streams   *StreamManager
	metrics   *observability.Metrics
	logger    *slog.Logger
	spec      *openapi3.T
	page      web.Page
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records request counts and exposes /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithStreams enables /api/events backed by sm.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.streams = sm
	}
}

// WithMermaidJSURL sets the script URL of the rendering library.
func WithMermaidJSURL(url string) Option {
	return func(s *Server) {
		if url != "" {
			s.page.MermaidJSURL = url
		}
	}
}

// NewHandler creates the HTTP handler for conv.
func NewHandler(conv Converter, opts ...Option) (http.Handler, error) {
	if conv == nil {
		return nil, errors.New("converter is required")
	}
	s := &Server{
		converter: conv,
		logger:    logging.NewNop(),
		page: web.Page{
			Title:            "Mermaid Visualizer",
			Version:          strings.TrimSpace(mermaidviz.Version),
			MermaidJSURL:     "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.min.js",
			Placeholder:      domain.MessagePreviewEmpty,
			InvalidSyntax:    domain.MessageInvalidSyntax,
			ConversionFailed: domain.MessageConversionFailed,
			ModeVisualize:    string(domain.ModeVisualize),
			ModeConvert:      string(domain.ModeConvert),
			TabPreview:       string(domain.TabPreview),
			TabCode:          string(domain.TabCode),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.page.Watching = s.streams != nil

	spec, err := loadSpec()
	if err != nil {
		return nil, err
	}
	s.spec = spec
	validator, err := newRequestValidator(spec, s.logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	if s.metrics != nil {
		r.Use(s.countRequests)
	}

	r.Get("/", s.GetIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.Static())))

	// Inline so the route pattern is known even when validation short-circuits.
	// The size cap wraps the body before the validator buffers it.
	api := r.With(middleware.RequestSize(maxBodyBytes), validator.Middleware)
	api.Post("/api/convert", s.Convert)
	api.Get("/api/example", s.GetExample)
	api.Get("/api/events", s.SubscribeEvents)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// countRequests labels by route pattern to keep cardinality bounded.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		s.metrics.Requests.WithLabelValues(route, r.Method, strconv.Itoa(code)).Inc()
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>mermaidviz API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetIndex serves the editor page.
func (s *Server) GetIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := web.RenderIndex(w, s.page); err != nil {
		s.logger.Error("Index render failed", "err", err)
	}
}

// Convert handles POST /api/convert.
func (s *Server) Convert(w http.ResponseWriter, r *http.Request) {
	var body domain.ConvertRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		s.logger.Warn("Convert: Invalid request body", "err", err)
		return
	}

	answer, err := s.converter.Convert(r.Context(), body.Text)
	if err != nil {
		if isInputError(err) {
			writeError(w, http.StatusBadRequest, msgInvalidBody)
			s.logger.Warn("Convert: Input rejected", "err", err, "size", len(body.Text))
			return
		}
		writeError(w, http.StatusInternalServerError, msgInternalError)
		s.logger.Error("Convert failed",
			"err", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
		return
	}

	writeJSON(w, http.StatusOK, domain.ConvertResponse{Mermaid: answer})
}

func isInputError(err error) bool {
	return errors.Is(err, domain.ErrEmptyInput) ||
		errors.Is(err, mermaidviz.ErrInputTooLarge) ||
		errors.Is(err, mermaidviz.ErrInvalidUTF8)
}

// GetExample handles GET /api/example.
func (s *Server) GetExample(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.ConvertResponse{Mermaid: diagram.Example()})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.spec != nil && s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "mermaidviz-http",
		"version":     strings.TrimSpace(mermaidviz.Version),
		"api_version": apiVersion,
	})
}

// SubscribeEvents handles GET /api/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	if s.streams == nil {
		writeError(w, http.StatusNotFound, "No file is being watched")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe()
	defer cancel()

	s.logger.Info("SSE: Client connected", "request_id", middleware.GetReqID(r.Context()))
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected")
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, domain.ErrorResponse{Message: msg})
}
