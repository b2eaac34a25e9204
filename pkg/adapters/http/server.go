// Package http exposes a pergola engine over a small JSON API: tool
// introspection, synchronous invocation and an SSE variant that streams
// progress events before the final response.
package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/pergola"
	"github.com/aretw0/pergola/pkg/domain"
)

// Server routes HTTP requests into an engine.
type Server struct {
	engine *pergola.Engine
	logger *slog.Logger
}

// NewHandler builds the HTTP handler for engine.
//
// Routes:
//
//	GET  /health              liveness probe
//	GET  /info                app and library version
//	GET  /tools               registered tools and actions
//	POST /tools/{tool}        invoke; body is the raw argument object
//	POST /tools/{tool}/stream invoke with SSE progress events
func NewHandler(engine *pergola.Engine, logger *slog.Logger) http.Handler {
	s := &Server{engine: engine, logger: logger}

	r := chi.NewRouter()
	r.Get("/health", s.health)
	r.Get("/info", s.info)
	r.Get("/tools", s.listTools)
	r.Post("/tools/{tool}", s.invoke)
	r.Post("/tools/{tool}/stream", s.invokeStream)
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "pergola-http",
		"version": strings.TrimSpace(pergola.Version),
	})
}

func (s *Server) listTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Tools())
}

func (s *Server) invoke(w http.ResponseWriter, r *http.Request) {
	tool := chi.URLParam(r, "tool")

	args, ok := s.decodeArgs(w, r)
	if !ok {
		return
	}

	resp := s.engine.Execute(r.Context(), tool, args)
	status := http.StatusOK
	if resp.IsError {
		// The engine already classified the failure; the transport only
		// distinguishes caller errors from the rest via the flag.
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

// invokeStream runs the call while forwarding progress events as SSE
// "progress" events, then emits one final "result" event.
func (s *Server) invokeStream(w http.ResponseWriter, r *http.Request) {
	tool := chi.URLParam(r, "tool")

	args, ok := s.decodeArgs(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	// Progress events and the final write happen on the handler goroutine,
	// so no extra synchronization is needed on w.
	resp := s.engine.Execute(r.Context(), tool, args,
		pergola.WithProgress(func(ev domain.ProgressEvent) {
			payload, err := json.Marshal(ev)
			if err != nil {
				return
			}
			fmt.Fprintf(w, "event: progress\ndata: %s\n\n", payload)
			flusher.Flush()
		}))

	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("sse result encode failed", "err", err)
		return
	}
	fmt.Fprintf(w, "event: result\ndata: %s\n\n", payload)
	flusher.Flush()
}

func (s *Server) decodeArgs(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var args map[string]any
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		s.logger.Warn("invalid request body", "err", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return args, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "err", err)
	}
}
