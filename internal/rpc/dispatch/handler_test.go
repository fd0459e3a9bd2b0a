package dispatch

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bufbuild/connect-go"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/salwks/sdsmcp/internal/mcp"
	"github.com/salwks/sdsmcp/internal/rpc/connectjson"
	"github.com/salwks/sdsmcp/internal/session"
)

func newDispatcher() *mcp.Server {
	return mcp.NewServer(mcp.Config{Sessions: session.NewStore(4, 0), Version: "test"})
}

func TestHandlerStreamsResponses(t *testing.T) {
	handler := NewHandler(newDispatcher(), nil)
	body := bytes.NewBufferString(
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}` + "\n" +
			`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
			`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n")
	req := httptest.NewRequest(http.MethodPost, "/mcp", body)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	resp := rr.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	var ids []string
	for scanner.Scan() {
		var r mcp.Response
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		ids = append(ids, string(r.ID))
	}
	require.Equal(t, []string{"1", "2"}, ids)
}

func TestHandlerRejectsGet(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHandler(newDispatcher(), nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestConnectHandlerDispatches(t *testing.T) {
	path, handler := NewConnectHandler(newDispatcher(), nil)
	mux := http.NewServeMux()
	mux.Handle(path, handler)

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot open listener in sandbox: %v", err)
	}

	server := httptest.NewUnstartedServer(h2c.NewHandler(mux, &http2.Server{}))
	server.Listener = ln
	server.Start()
	t.Cleanup(server.Close)

	client := connect.NewClient[mcp.Request, mcp.Response](
		&http.Client{
			Transport: &http2.Transport{
				AllowHTTP: true,
				DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, network, addr)
				},
			},
		},
		server.URL+path,
		connect.WithCodec(connectjson.Codec{}),
	)

	res, err := client.CallUnary(context.Background(), connect.NewRequest(&mcp.Request{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`7`),
		Method:  "ping",
	}))
	require.NoError(t, err)
	require.Equal(t, "7", string(res.Msg.ID))
	require.Nil(t, res.Msg.Error)

	_, err = client.CallUnary(context.Background(), connect.NewRequest(&mcp.Request{JSONRPC: "2.0"}))
	require.Error(t, err)
	require.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}
