// Package api exposes the tool surface over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/wardenlabs/warden/internal/logging"
	"github.com/wardenlabs/warden/internal/tools"
)

const maxCallBodyBytes = 1 << 20

// VersionInfo identifies the running build.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit,omitempty"`
	BuildTime string `json:"buildTime,omitempty"`
}

// Router handles HTTP routing.
type Router struct {
	mux      *http.ServeMux
	executor *tools.Executor
	version  VersionInfo
}

// NewRouter creates a new router instance.
func NewRouter(executor *tools.Executor, version VersionInfo) http.Handler {
	r := &Router{
		mux:      http.NewServeMux(),
		executor: executor,
		version:  version,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.mux.HandleFunc("/api/health", r.handleHealth)
	r.mux.HandleFunc("/api/version", r.handleVersion)
	r.mux.HandleFunc("/api/tools", r.handleListTools)
	r.mux.HandleFunc("/api/tools/call", r.handleCallTool)
	r.mux.Handle("/metrics", promhttp.Handler())
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx, requestID := logging.WithRequestID(req.Context(), req.Header.Get("X-Request-ID"))
	w.Header().Set("X-Request-ID", requestID)
	r.mux.ServeHTTP(w, req.WithContext(ctx))
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (r *Router) handleVersion(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, r.version)
}

func (r *Router) handleListTools(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, tools.ListToolsResult{Tools: r.executor.ListTools()})
}

func (r *Router) handleCallTool(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var params tools.CallToolParams
	decoder := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxCallBodyBytes))
	if err := decoder.Decode(&params); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if params.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "tool name is required")
		return
	}

	started := time.Now()
	result, err := r.executor.ExecuteTool(req.Context(), params.Name, params.Arguments)
	elapsed := time.Since(started)

	if err != nil {
		log.Error().Err(err).Str("tool", params.Name).Msg("Tool execution failed")
		recordToolCall(params.Name, "error", elapsed)
		writeJSONError(w, http.StatusInternalServerError, "tool execution failed")
		return
	}

	outcome := "ok"
	if result.IsError {
		outcome = "tool_error"
	}
	recordToolCall(params.Name, outcome, elapsed)
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
