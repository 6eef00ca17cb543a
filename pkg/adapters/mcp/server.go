package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/selector"
	"github.com/aretw0/selector/internal/logging"
	"github.com/aretw0/selector/pkg/batch"
	"github.com/aretw0/selector/pkg/domain"
	"github.com/aretw0/selector/pkg/ports"
	"github.com/aretw0/selector/pkg/segment"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

const (
	KeysURI          = "selector://keys"
	StateURITemplate = "selector://state/{key}"
)

// KeysResponse is the structured output of list_selectors.
type KeysResponse struct {
	Keys []string `json:"keys" jsonschema_description:"Selector keys with stored state"`
}

// ResetResponse is the structured output of reset_selector.
type ResetResponse struct {
	Key   string `json:"key" jsonschema_description:"The selector key that was reset"`
	Reset bool   `json:"reset" jsonschema_description:"Always true on success"`
}

// Server wraps the selector engine and exposes it as an MCP Server.
type Server struct {
	engine    ports.Selector
	defaults  domain.Request
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithDefaults sets the values used for omitted tool arguments.
func WithDefaults(req domain.Request) Option {
	return func(s *Server) { s.defaults = req }
}

// WithLogger sets the logger for tool diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.Selector, opts ...Option) *Server {
	s := &Server{
		engine:   engine,
		defaults: domain.Request{Key: domain.DefaultKey, Delimiter: domain.DefaultDelimiter},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("selector-mcp", strings.TrimSpace(selector.Version),
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, mainly for tests and custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves JSON-RPC over the given streams until ctx is done or in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}

// ServeSSE starts the server on addr using SSE and stops it when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	behaviors := make([]string, 0, len(domain.Behaviors()))
	for _, b := range domain.Behaviors() {
		behaviors = append(behaviors, b.String())
	}

	selectTool := mcp.NewTool("select_segment",
		mcp.WithDescription("Split text by a delimiter and return one segment. The position is remembered per key, so repeated calls walk the segments according to the behavior."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Delimited text to choose from")),
		mcp.WithString("key", mcp.Description("Selector key that owns the remembered position")),
		mcp.WithString("delimiter", mcp.Description("Segment separator; an empty string keeps the text whole")),
		mcp.WithString("behavior", mcp.Enum(behaviors...), mcp.Description("Traversal policy")),
		mcp.WithNumber("start_index", mcp.Min(0), mcp.Description("Index of the first selection")),
		mcp.WithOutputSchema[domain.Result](),
	)
	s.mcpServer.AddTool(selectTool, mcp.NewStructuredToolHandler(s.handleSelect))

	batchTool := mcp.NewTool("batch_select",
		mcp.WithDescription("Evaluate several selectors once each and repeat every result by the product of their repeat multipliers."),
		mcp.WithArray("items", mcp.Required(), mcp.MinItems(1),
			mcp.Description("Selectors with text, key, delimiter, behavior, start_index and repeat (default 1)"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"repeat": map[string]any{"type": "integer", "minimum": 1, "maximum": batch.MaxRepeat},
				},
			}),
		),
		mcp.WithOutputSchema[domain.Batch](),
	)
	s.mcpServer.AddTool(batchTool, mcp.NewStructuredToolHandler(s.handleBatch))

	inspectTool := mcp.NewTool("inspect_selector",
		mcp.WithDescription("Return the stored state of a selector key."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Selector key")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOutputSchema[domain.State](),
	)
	s.mcpServer.AddTool(inspectTool, mcp.NewStructuredToolHandler(s.handleInspect))

	s.mcpServer.AddTool(mcp.NewTool("list_selectors",
		mcp.WithDescription("List every selector key with stored state."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOutputSchema[KeysResponse](),
	), mcp.NewStructuredToolHandler(s.handleList))

	resetTool := mcp.NewTool("reset_selector",
		mcp.WithDescription("Forget the stored position of a selector key."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Selector key")),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithOutputSchema[ResetResponse](),
	)
	s.mcpServer.AddTool(resetTool, mcp.NewStructuredToolHandler(s.handleReset))
}

// Handler methods for structured tools

func (s *Server) handleSelect(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.Result, error) {
	req, err := s.decodeRequest(args)
	if err != nil {
		return domain.Result{}, err
	}
	return s.engine.Select(ctx, req)
}

func (s *Server) handleBatch(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (*domain.Batch, error) {
	rawItems, ok := args["items"].([]any)
	if !ok {
		return nil, errors.New("items must be an array of objects")
	}
	raw := make([]map[string]any, 0, len(rawItems))
	for i, it := range rawItems {
		fields, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d must be an object", i)
		}
		raw = append(raw, fields)
	}

	items, err := batch.DecodeItems(raw)
	if err != nil {
		return nil, err
	}
	for i := range items {
		req, err := s.prepare(items[i].Request, raw[i])
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items[i].Request = req
	}
	return s.engine.Batch(ctx, items)
}

func (s *Server) handleInspect(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (*domain.State, error) {
	key, _ := args["key"].(string)
	return s.engine.Inspect(ctx, key)
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (KeysResponse, error) {
	keys, err := s.engine.Keys(ctx)
	if err != nil {
		return KeysResponse{}, err
	}
	if keys == nil {
		keys = []string{}
	}
	return KeysResponse{Keys: keys}, nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ResetResponse, error) {
	key, _ := args["key"].(string)
	if err := s.engine.Reset(ctx, key); err != nil {
		return ResetResponse{}, err
	}
	return ResetResponse{Key: key, Reset: true}, nil
}

func (s *Server) decodeRequest(args map[string]any) (domain.Request, error) {
	var req domain.Request
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &req,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return req, err
	}
	if err := decoder.Decode(args); err != nil {
		return req, fmt.Errorf("invalid arguments: %w", err)
	}
	return s.prepare(req, args)
}

// prepare fills omitted fields from the defaults and sanitizes the text.
// The delimiter is only defaulted when absent; an explicit empty one is kept.
func (s *Server) prepare(req domain.Request, raw map[string]any) (domain.Request, error) {
	if req.Key == "" {
		req.Key = s.defaults.Key
	}
	if _, ok := raw["delimiter"]; !ok {
		req.Delimiter = s.defaults.Delimiter
	}
	if req.Behavior == "" {
		req.Behavior = s.defaults.Behavior
	}

	clean, err := segment.Sanitize(req.Text, req.Delimiter)
	if err != nil {
		s.logger.Warn("MCP: Input rejected", "key", req.Key, "size", len(req.Text), "err", err)
		return req, fmt.Errorf("input rejected: %w", err)
	}
	req.Text = clean
	return req, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(KeysURI, "Selector keys",
		mcp.WithResourceDescription("Every selector key with stored state"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		keys, err := s.engine.Keys(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list keys: %w", err)
		}
		if keys == nil {
			keys = []string{}
		}
		return jsonContents(request.Params.URI, KeysResponse{Keys: keys})
	})

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(StateURITemplate, "Selector state",
		mcp.WithTemplateDescription("Stored state of one selector key"),
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		key := templateArg(request.Params.Arguments, "key")
		if key == "" {
			return nil, fmt.Errorf("missing key in %q", request.Params.URI)
		}
		state, err := s.engine.Inspect(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect %q: %w", key, err)
		}
		return jsonContents(request.Params.URI, state)
	})
}

func templateArg(args map[string]any, name string) string {
	switch v := args[name].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
