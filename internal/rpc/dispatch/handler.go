package dispatch

import (
	"context"
	"io"
	"net/http"

	"github.com/salwks/sdsmcp/internal/mcp"
	"github.com/salwks/sdsmcp/internal/observability"
)

// Dispatcher is satisfied by *mcp.Server.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *mcp.Request) *mcp.Response
	Run(ctx context.Context, r io.Reader, w io.Writer) error
}

// Handler serves line-delimited JSON-RPC over HTTP: the request body holds one
// request per line and responses stream back as NDJSON.
type Handler struct {
	dispatcher Dispatcher
	metrics    *observability.Metrics
}

// NewHandler constructs a handler instance.
func NewHandler(d Dispatcher, metrics *observability.Metrics) *Handler {
	return &Handler{dispatcher: d, metrics: metrics}
}

// ServeHTTP handles POST /mcp.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.metrics.RecordTransportError("ndjson", "method_not_allowed")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	if err := h.dispatcher.Run(r.Context(), r.Body, flushWriter{w: w, f: flusher}); err != nil {
		h.metrics.RecordTransportError("ndjson", "stream")
	}
}

type flushWriter struct {
	w io.Writer
	f http.Flusher
}

func (fw flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	fw.f.Flush()
	return n, err
}
