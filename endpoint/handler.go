package endpoint

import (
	"io"
	"log/slog"
	"net/http"
)

// Handler serves one configured endpoint path: it builds the request
// descriptor, runs it through the bridge, and writes the terminal
// result as a plain-text response. Methods without a configured
// snippet get 405; OPTIONS gets an empty 200 so preflight can be
// answered by an outer CORS policy.
type Handler struct {
	bridge *Bridge
	logger *slog.Logger
}

// NewHandler creates a handler over a bridge.
func NewHandler(bridge *Bridge, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{bridge: bridge, logger: logger}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if !h.bridge.Supports(r.Method) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	desc, err := DescribeRequest(r)
	if err != nil {
		h.logger.Warn("request parse failed", "path", r.URL.Path, "error", err)
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	result, err := h.bridge.Execute(r.Context(), r.Method, desc)
	if err != nil {
		status := StatusFor(err)
		h.logger.Warn("request execution failed",
			"path", r.URL.Path, "method", r.Method, "status", status, "error", err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(result.Status)
	_, _ = w.Write([]byte(result.Body))
}
