package tools

import (
	"encoding/json"
	"net/http"

	"github.com/salwks/sdsmcp/internal/mcp"
)

// SchemaHandler serves the tool catalogue as JSON.
type SchemaHandler struct {
	Tools func() []mcp.ToolInfo
}

// ServeHTTP renders schemas.
func (h SchemaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	list := h.Tools
	if list == nil {
		list = mcp.Tools
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"tools": list()})
}
