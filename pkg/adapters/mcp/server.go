// Package mcp exposes a pergola engine as a Model Context Protocol server.
// Each registered tool maps to one MCP tool; the action selector travels as
// a regular argument field, so the MCP schema advertises it as an enum of
// the valid keys.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/pergola"
	"github.com/aretw0/pergola/pkg/domain"
)

// Server wraps an engine and exposes it over MCP stdio or SSE.
type Server struct {
	engine    *pergola.Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers every engine tool.
func NewServer(engine *pergola.Engine, logger *slog.Logger) *Server {
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("pergola-mcp", strings.TrimSpace(pergola.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and shuts down
// gracefully when ctx fires.
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
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
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
	for _, info := range s.engine.Tools() {
		tool := mcp.NewToolWithRawSchema(info.Name, toolDescription(info), inputSchemaFor(info))
		s.mcpServer.AddTool(tool, s.handlerFor(info.Name))
	}
}

// handlerFor routes one MCP call into the engine, forwarding MCP progress
// notifications when the client supplied a progress token.
func (s *Server) handlerFor(toolName string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		opts := []pergola.CallOption{}
		if token := progressToken(request); token != nil {
			srv := server.ServerFromContext(ctx)
			opts = append(opts, pergola.WithProgress(func(ev domain.ProgressEvent) {
				if srv == nil {
					return
				}
				err := srv.SendNotificationToClient(ctx, "notifications/progress", map[string]any{
					"progressToken": token,
					"progress":      ev.Percent,
					"total":         100,
					"message":       ev.Message,
				})
				if err != nil {
					s.logger.Debug("progress notification failed", "err", err)
				}
			}))
		}

		resp := s.engine.Execute(ctx, toolName, args, opts...)
		return toCallResult(resp), nil
	}
}

func progressToken(request mcp.CallToolRequest) any {
	if request.Params.Meta == nil {
		return nil
	}
	return request.Params.Meta.ProgressToken
}

// toCallResult converts an engine response into MCP content blocks.
func toCallResult(resp *domain.Response) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(resp.Content))
	for _, block := range resp.Content {
		switch block.Type {
		case domain.ContentText:
			content = append(content, mcp.NewTextContent(block.Text))
		default:
			payload, err := json.Marshal(block.Data)
			if err != nil {
				payload = []byte(fmt.Sprintf("%v", block.Data))
			}
			content = append(content, mcp.NewTextContent(string(payload)))
		}
	}
	return &mcp.CallToolResult{
		Content: content,
		IsError: resp.IsError,
	}
}

func toolDescription(info domain.ToolInfo) string {
	var b strings.Builder
	if info.Description != "" {
		b.WriteString(info.Description)
		b.WriteString(" ")
	}
	b.WriteString("Select the operation via the ")
	b.WriteString(fmt.Sprintf("%q", info.Discriminator))
	b.WriteString(" argument.")
	for _, a := range info.Actions {
		b.WriteString(fmt.Sprintf("\n- %s", a.Key))
		if a.Description != "" {
			b.WriteString(": " + a.Description)
		}
		if a.Destructive {
			b.WriteString(" (destructive)")
		}
	}
	return b.String()
}

// inputSchemaFor advertises the discriminator as a required enum of the
// valid action keys. Per-action argument shapes are validated engine-side,
// so the schema stays open for the remaining fields.
func inputSchemaFor(info domain.ToolInfo) json.RawMessage {
	keys := make([]string, len(info.Actions))
	for i, a := range info.Actions {
		keys[i] = a.Key
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			info.Discriminator: map[string]any{
				"type":        "string",
				"enum":        keys,
				"description": "The operation to perform.",
			},
		},
		"required":             []string{info.Discriminator},
		"additionalProperties": true,
	}

	payload, err := json.Marshal(schema)
	if err != nil {
		// Static input; cannot fail.
		panic(err)
	}
	return payload
}

func (s *Server) registerResources() {
	// EXPOSE: pergola://tools
	s.mcpServer.AddResource(mcp.NewResource("pergola://tools", "Registered Tool Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		payload, err := json.Marshal(s.engine.Tools())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tool catalog: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "pergola://tools",
				MIMEType: "application/json",
				Text:     string(payload),
			},
		}, nil
	})
}
