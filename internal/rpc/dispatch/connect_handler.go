package dispatch

import (
	"context"
	"errors"
	"net/http"

	"github.com/bufbuild/connect-go"

	"github.com/salwks/sdsmcp/internal/mcp"
	"github.com/salwks/sdsmcp/internal/observability"
	"github.com/salwks/sdsmcp/internal/rpc/connectjson"
)

const ConnectCallProcedure = "/sdsmcp.v1.MCPService/Call"

// NewConnectHandler builds a Connect unary handler that dispatches one
// JSON-RPC request per call.
func NewConnectHandler(d Dispatcher, metrics *observability.Metrics) (string, http.Handler) {
	h := &connectCallHandler{dispatcher: d, metrics: metrics}
	return ConnectCallProcedure, connect.NewUnaryHandler(ConnectCallProcedure, h.handle, connect.WithCodec(connectjson.Codec{}))
}

type connectCallHandler struct {
	dispatcher Dispatcher
	metrics    *observability.Metrics
}

func (h *connectCallHandler) handle(ctx context.Context, req *connect.Request[mcp.Request]) (*connect.Response[mcp.Response], error) {
	if req.Msg == nil || req.Msg.Method == "" {
		h.metrics.RecordTransportError("connect", "missing_method")
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("request must name a method"))
	}

	resp := h.dispatcher.Dispatch(ctx, req.Msg)
	if resp == nil {
		// notifications produce no JSON-RPC response
		resp = &mcp.Response{JSONRPC: "2.0"}
	}
	return connect.NewResponse(resp), nil
}
