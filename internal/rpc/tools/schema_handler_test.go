package tools

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/salwks/sdsmcp/internal/mcp"
)

func TestSchemaHandler(t *testing.T) {
	h := SchemaHandler{}
	req := httptest.NewRequest(http.MethodGet, "/tools/schemas", nil)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Tools []mcp.ToolInfo `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Tools, len(mcp.Tools()))
	require.Equal(t, mcp.ToolAnalyze, body.Tools[0].Name)
}

func TestSchemaHandlerRejectsPost(t *testing.T) {
	rr := httptest.NewRecorder()
	SchemaHandler{}.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/tools/schemas", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
