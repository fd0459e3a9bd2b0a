package daemon

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/salwks/sdsmcp/internal/config"
	"github.com/salwks/sdsmcp/internal/mcp"
)

func testConfig(metrics bool) *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{Timeout: time.Second, BatchSize: 3},
		Session:  config.SessionConfig{MaxEntries: 8},
		Server:   config.ServerConfig{Addr: "127.0.0.1:0", MetricsEnabled: metrics},
		Output:   config.OutputConfig{Dir: "out"},
	}
}

func TestHealthAndSchemas(t *testing.T) {
	srv, err := NewServer(testConfig(true), nil)
	require.NoError(t, err)
	h := srv.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok","sessions":0}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tools/schemas", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), mcp.ToolExport)
}

func TestMetricsToggle(t *testing.T) {
	srv, err := NewServer(testConfig(false), nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	srv, err = NewServer(testConfig(true), nil)
	require.NoError(t, err)
	h := srv.Handler()

	// A tools/call without credentials still produces an RPC counter sample.
	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"analyze_project_request","arguments":{"project_description":"todo app"}}}` + "\n"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp mcp.Response
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(rr.Body.Bytes()), &resp))
	require.NotNil(t, resp.Error)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "sdsmcp_rpc_requests_total")
}

func TestNewServerRequiresConfig(t *testing.T) {
	_, err := NewServer(nil, nil)
	require.Error(t, err)
}
