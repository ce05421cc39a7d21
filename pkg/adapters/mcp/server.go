package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/mermaidviz"
	"github.com/aretw0/mermaidviz/internal/diagram"
	"github.com/aretw0/mermaidviz/internal/logging"
	"github.com/aretw0/mermaidviz/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	// ToolConvert is the name of the conversion tool.
	ToolConvert = "convert_to_mermaid"
	// ToolExample is the name of the starter diagram tool.
	ToolExample = "example_diagram"
	// PromptURI exposes the instruction sent to the generator.
	PromptURI = "mermaidviz://prompt"
)

// Converter turns free text into diagram syntax.
type Converter interface {
	Convert(ctx context.Context, text string) (string, error)
}

// ConvertResult is the structured payload of the conversion tool.
type ConvertResult struct {
	Mermaid string `json:"mermaid" jsonschema_description:"Mermaid diagram source, verbatim from the generator"`
	Kind    string `json:"kind" jsonschema_description:"Diagram keyword of the first significant line"`
}

// Server exposes a Converter as an MCP server.
type Server struct {
	converter Converter
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(conv Converter, opts ...Option) *Server {
	s := &Server{
		converter: conv,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("mermaidviz-mcp", strings.TrimSpace(mermaidviz.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on the given port using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

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

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	convertTool := mcp.NewTool(ToolConvert,
		mcp.WithDescription("Convert a free-text description of a process, system or flow into Mermaid diagram syntax."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Free text to convert")),
		mcp.WithOutputSchema[ConvertResult](),
	)
	s.mcpServer.AddTool(convertTool, mcp.NewStructuredToolHandler(s.handleConvert))

	s.mcpServer.AddTool(mcp.NewTool(ToolExample,
		mcp.WithDescription("Return a small starter flowchart in Mermaid syntax."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(diagram.Example()), nil
	})
}

func (s *Server) handleConvert(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ConvertResult, error) {
	text, _ := args["text"].(string)

	answer, err := s.converter.Convert(ctx, text)
	if err != nil {
		if isInputError(err) {
			s.logger.Warn("MCP Convert: Input rejected", "err", err, "size", len(text))
			return ConvertResult{}, err
		}
		// Upstream causes carry status lines and bodies; keep them in the log.
		s.logger.Error("MCP Convert failed", "err", err, "size", len(text))
		return ConvertResult{}, errors.New(domain.MessageConversionFailed)
	}

	return ConvertResult{
		Mermaid: answer,
		Kind:    diagram.DetectKind(answer),
	}, nil
}

func isInputError(err error) bool {
	return errors.Is(err, domain.ErrEmptyInput) ||
		errors.Is(err, mermaidviz.ErrInputTooLarge) ||
		errors.Is(err, mermaidviz.ErrInvalidUTF8)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(PromptURI, "Conversion instruction",
		mcp.WithResourceDescription("Instruction prepended to every text sent to the generator"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      PromptURI,
				MIMEType: "text/plain",
				Text:     mermaidviz.Instruction,
			},
		}, nil
	})
}
