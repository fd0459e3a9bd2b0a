package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/salwks/sdsmcp/internal/apperr"
	"github.com/salwks/sdsmcp/internal/pipeline"
	"github.com/salwks/sdsmcp/internal/session"
	"github.com/salwks/sdsmcp/internal/specdoc"
)

const maxLineBytes = 10 * 1024 * 1024

// Pipeline is the part of pipeline.Assembler the tools call into.
type Pipeline interface {
	Analyze(ctx context.Context, req pipeline.AnalyzeRequest) (*pipeline.Analysis, error)
	Refine(ctx context.Context, existing *specdoc.Specification, instruction string) (*specdoc.Specification, error)
}

// Recorder counts RPC responses.
type Recorder interface {
	RecordRPC(method string, code int)
}

// ToolHandler handles a tool call and returns a human-readable text block.
type ToolHandler func(ctx context.Context, args json.RawMessage) (string, error)

// Server dispatches JSON-RPC requests to the specification tools.
type Server struct {
	pipeline  Pipeline
	sessions  *session.Store
	outputDir string
	version   string
	logger    *zap.Logger
	metrics   Recorder
	now       func() time.Time
	maxLine   int
	tools     map[string]ToolHandler
}

// Config wires a Server.
type Config struct {
	Pipeline  Pipeline
	Sessions  *session.Store
	OutputDir string
	Version   string
	Logger    *zap.Logger
	Metrics   Recorder
}

// NewServer creates a new MCP server
func NewServer(cfg Config) *Server {
	s := &Server{
		pipeline:  cfg.Pipeline,
		sessions:  cfg.Sessions,
		outputDir: cfg.OutputDir,
		version:   cfg.Version,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		now:       time.Now,
		maxLine:   maxLineBytes,
		tools:     make(map[string]ToolHandler),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.outputDir == "" {
		s.outputDir = "output"
	}
	if s.version == "" {
		s.version = "dev"
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.tools[ToolAnalyze] = s.handleAnalyze
	s.tools[ToolRefine] = s.handleRefine
	s.tools[ToolExport] = s.handleExport
	s.tools[ToolSelectStack] = s.handleSelectStack
	s.tools[ToolSelectModules] = s.handleSelectModules
}

// Run reads one request per line from r and writes one response per line to w
// until r is exhausted or ctx is cancelled. Notifications get no response and
// a line longer than the size limit is answered with an invalid-request error.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	in := bufio.NewReaderSize(r, 64*1024)
	out := bufio.NewWriter(w)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, tooLong, err := readLine(in, s.maxLine)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read request: %w", err)
		}

		var resp *Response
		switch {
		case tooLong:
			s.logger.Warn("request line too long", zap.Int("limit", s.maxLine))
			s.record("", apperr.CodeInvalidRequest)
			resp = errorResponse(nullID, apperr.CodeInvalidRequest, "Request too large",
				fmt.Sprintf("line exceeds %d bytes", s.maxLine))
		case len(bytes.TrimSpace(line)) == 0:
			continue
		default:
			resp = s.DispatchLine(ctx, line)
		}
		if resp == nil {
			continue
		}
		if err := s.write(out, resp); err != nil {
			return err
		}
	}
}

func (s *Server) write(out *bufio.Writer, resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("encode response", zap.Error(err))
		data, _ = json.Marshal(errorResponse(resp.ID, apperr.CodeInternalError, "failed to encode response", nil))
	}
	data = append(data, '\n')
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// readLine returns the next line without its terminator. Past limit bytes the
// rest of the line is drained and discarded and tooLong is set.
func readLine(r *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		chunk, rerr := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(bytes.TrimRight(chunk, "\r\n")) > limit {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if rerr == bufio.ErrBufferFull {
			continue
		}
		if rerr != nil && (rerr != io.EOF || (len(line) == 0 && !tooLong)) {
			return nil, false, rerr
		}
		return bytes.TrimRight(line, "\r\n"), tooLong, nil
	}
}

// DispatchLine decodes one raw request line and dispatches it.
func (s *Server) DispatchLine(ctx context.Context, line []byte) *Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Warn("parse error", zap.Error(err))
		s.record("", apperr.CodeParseError)
		return errorResponse(nullID, apperr.CodeParseError, "Parse error", err.Error())
	}
	return s.Dispatch(ctx, &req)
}

// Dispatch handles one decoded request. It returns nil for notifications and
// never panics.
func (s *Server) Dispatch(ctx context.Context, req *Request) (resp *Response) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("panic in dispatch",
				zap.String("method", req.Method),
				zap.Any("panic", rec))
			resp = errorResponse(req.ID, apperr.CodeInternalError, "Internal error", fmt.Sprint(rec))
			if req.IsNotification() {
				resp = nil
			}
		}
		code := 0
		if resp != nil && resp.Error != nil {
			code = resp.Error.Code
		}
		s.record(req.Method, code)
	}()

	switch req.Method {
	case "initialize":
		resp = s.result(req, InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      ServerInfo{Name: "sdsmcp", Version: s.version},
			Capabilities:    Capabilities{Tools: &ToolsCapability{ListChanged: false}},
		})
	case "initialized", "notifications/initialized":
		resp = s.result(req, struct{}{})
	case "ping":
		resp = s.result(req, struct{}{})
	case "tools/list":
		resp = s.result(req, map[string]interface{}{"tools": Tools()})
	case "tools/call":
		resp = s.handleToolsCall(ctx, req)
	default:
		resp = s.fail(req, apperr.CodeMethodNotFound, "Method not found", req.Method)
	}
	return resp
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.fail(req, apperr.CodeInvalidParams, "Invalid params", err.Error())
	}

	handler, ok := s.tools[params.Name]
	if !ok {
		return s.fail(req, apperr.CodeMethodNotFound, "Tool not found", params.Name)
	}

	start := time.Now()
	text, err := handler(ctx, params.Arguments)
	if err != nil {
		kind := apperr.KindOf(err)
		s.logger.Warn("tool call failed",
			zap.String("tool", params.Name),
			zap.String("kind", kind.String()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return s.fail(req, apperr.RPCCode(kind), err.Error(), map[string]string{"kind": kind.String(), "tool": params.Name})
	}

	s.logger.Info("tool call completed",
		zap.String("tool", params.Name),
		zap.Duration("duration", time.Since(start)))
	return s.result(req, ToolResult{Content: []Content{{Type: "text", Text: text}}})
}

func (s *Server) result(req *Request, result interface{}) *Response {
	if req.IsNotification() {
		return nil
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func (s *Server) fail(req *Request, code int, message string, data interface{}) *Response {
	if req.IsNotification() {
		s.logger.Warn("error for notification", zap.String("method", req.Method), zap.String("message", message))
		return nil
	}
	return errorResponse(req.ID, code, message, data)
}

func (s *Server) record(method string, code int) {
	if s.metrics != nil {
		s.metrics.RecordRPC(method, code)
	}
}

func errorResponse(id json.RawMessage, code int, message string, data interface{}) *Response {
	if len(id) == 0 {
		id = nullID
	}
	return &Response{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: message, Data: data}}
}
