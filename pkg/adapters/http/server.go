package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/selector"
	"github.com/aretw0/selector/internal/logging"
	"github.com/aretw0/selector/pkg/batch"
	"github.com/aretw0/selector/pkg/domain"
	"github.com/aretw0/selector/pkg/observability"
	"github.com/aretw0/selector/pkg/ports"
	"github.com/aretw0/selector/pkg/segment"
	"github.com/go-chi/chi/v5"
)

// SelectRequest is the body of POST /select.
// Pointer fields distinguish an omitted value from an explicit empty one.
type SelectRequest struct {
	Text       string  `json:"text"`
	Key        *string `json:"key,omitempty"`
	Delimiter  *string `json:"delimiter,omitempty"`
	Behavior   *string `json:"behavior,omitempty"`
	StartIndex *int    `json:"start_index,omitempty"`
}

// BatchRequest is the body of POST /batch.
// Items stay loosely typed so the batch decoder can apply the default repeat.
type BatchRequest struct {
	Items []map[string]any `json:"items"`
}

// KeysResponse is the body of GET /selectors.
type KeysResponse struct {
	Keys []string `json:"keys"`
}

// Server implements ServerInterface on top of a selector engine.
type Server struct {
	Engine   ports.Selector
	Streams  *StreamManager
	Defaults domain.Request
	Logger   *slog.Logger
}

var _ ServerInterface = (*Server)(nil)

// Option configures the handler built by NewHandler.
type Option func(*handlerConfig)

type handlerConfig struct {
	streams  *StreamManager
	metrics  *observability.Metrics
	defaults domain.Request
	logger   *slog.Logger
}

// WithStreams shares a stream manager with the engine.
// Pass streams.Hooks() to the engine so selections reach SSE subscribers.
func WithStreams(sm *StreamManager) Option {
	return func(c *handlerConfig) { c.streams = sm }
}

// WithMetrics exposes the collectors on /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *handlerConfig) { c.metrics = m }
}

// WithDefaults sets the values used for omitted request fields.
func WithDefaults(req domain.Request) Option {
	return func(c *handlerConfig) { c.defaults = req }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *handlerConfig) { c.logger = logger }
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine ports.Selector, opts ...Option) (http.Handler, error) {
	cfg := handlerConfig{
		defaults: domain.Request{Key: domain.DefaultKey, Delimiter: domain.DefaultDelimiter},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.streams == nil {
		cfg.streams = NewStreamManager(cfg.logger)
	}

	validate, err := ValidateRequests(cfg.logger)
	if err != nil {
		return nil, err
	}

	server := &Server{
		Engine:   engine,
		Streams:  cfg.streams,
		Defaults: cfg.defaults,
		Logger:   cfg.logger,
	}

	r := chi.NewRouter()
	r.Use(validate)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if cfg.metrics != nil {
		r.Handle("/metrics", cfg.metrics.Handler())
	}

	handler := HandlerFromMux(server, r)
	return enableCORS(handler), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Selector API Documentation</title>
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

// SelectSegment handles the POST /select request.
func (s *Server) SelectSegment(w http.ResponseWriter, r *http.Request) {
	var body SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	req, status, err := s.toRequest(body)
	if err != nil {
		writeError(w, status, err)
		return
	}

	res, err := s.Engine.Select(r.Context(), req)
	if err != nil {
		s.fail(w, "Select", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SelectBatch handles the POST /batch request.
func (s *Server) SelectBatch(w http.ResponseWriter, r *http.Request) {
	var body BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	items, err := batch.DecodeItems(body.Items)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	for i := range items {
		req, status, err := s.sanitize(s.withDefaults(items[i].Request, body.Items[i]))
		if err != nil {
			writeError(w, status, fmt.Errorf("item %d: %w", i, err))
			return
		}
		items[i].Request = req
	}

	out, err := s.Engine.Batch(r.Context(), items)
	if err != nil {
		s.fail(w, "Batch", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ListSelectors handles the GET /selectors request.
func (s *Server) ListSelectors(w http.ResponseWriter, r *http.Request) {
	keys, err := s.Engine.Keys(r.Context())
	if err != nil {
		s.fail(w, "Keys", err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, KeysResponse{Keys: keys})
}

// GetSelector handles the GET /selectors/{key} request.
func (s *Server) GetSelector(w http.ResponseWriter, r *http.Request, key string) {
	state, err := s.Engine.Inspect(r.Context(), key)
	if err != nil {
		s.fail(w, "Inspect", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// ResetSelector handles the DELETE /selectors/{key} request.
func (s *Server) ResetSelector(w http.ResponseWriter, r *http.Request, key string) {
	if err := s.Engine.Reset(r.Context(), key); err != nil {
		s.fail(w, "Reset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "selector-http",
		"version":     strings.TrimSpace(selector.Version),
		"api_version": apiVersion,
	})
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, params SubscribeEventsParams) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	topic := AllKeys
	if params.Key != nil && *params.Key != "" {
		topic = *params.Key
	}

	ch, cancel := s.Streams.Subscribe(topic)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	s.Logger.Info("SSE: Client subscribed", "topic", topic)
	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE: Client disconnected", "topic", topic)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}

func (s *Server) toRequest(body SelectRequest) (domain.Request, int, error) {
	req := domain.Request{
		Key:       s.Defaults.Key,
		Text:      body.Text,
		Delimiter: s.Defaults.Delimiter,
		Behavior:  s.Defaults.Behavior,
	}
	if body.Key != nil && *body.Key != "" {
		req.Key = *body.Key
	}
	if body.Delimiter != nil {
		req.Delimiter = *body.Delimiter
	}
	if body.Behavior != nil && *body.Behavior != "" {
		req.Behavior = domain.Behavior(*body.Behavior)
	}
	if body.StartIndex != nil {
		req.StartIndex = *body.StartIndex
	}
	return s.sanitize(req)
}

// withDefaults fills the fields of a decoded batch item that were absent from raw.
func (s *Server) withDefaults(req domain.Request, raw map[string]any) domain.Request {
	if req.Key == "" {
		req.Key = s.Defaults.Key
	}
	if _, ok := raw["delimiter"]; !ok {
		req.Delimiter = s.Defaults.Delimiter
	}
	if req.Behavior == "" {
		req.Behavior = s.Defaults.Behavior
	}
	return req
}

func (s *Server) sanitize(req domain.Request) (domain.Request, int, error) {
	clean, err := segment.Sanitize(req.Text, req.Delimiter)
	if err != nil {
		s.Logger.Warn("Input rejected", "key", req.Key, "size", len(req.Text), "err", err)
		if errors.Is(err, segment.ErrInputTooLarge) {
			return req, http.StatusRequestEntityTooLarge, err
		}
		return req, http.StatusBadRequest, err
	}
	req.Text = clean
	return req, http.StatusOK, nil
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "err", err)
	}
	writeError(w, status, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidBehavior), errors.Is(err, domain.ErrInvalidRepeat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrStateNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
