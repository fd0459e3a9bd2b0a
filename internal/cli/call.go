package cli

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/bufbuild/connect-go"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"

	"github.com/salwks/sdsmcp/internal/mcp"
	"github.com/salwks/sdsmcp/internal/rpc/connectjson"
	"github.com/salwks/sdsmcp/internal/rpc/dispatch"
)

// NewCallCmd sends one JSON-RPC request to a running daemon and prints the reply.
func NewCallCmd(opts *Options) *cobra.Command {
	var (
		transport string
		addr      string
		toolArgs  string
	)

	cmd := &cobra.Command{
		Use:   "call <method|tool>",
		Short: "Send a JSON-RPC request or tool call to the daemon",
		Long: "Send a JSON-RPC request to a running sdsmcpd. A name that is not a protocol method\n" +
			"is sent as tools/call with --args as the tool arguments.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				addr = cfg.Server.Addr
			}

			req, err := buildCallRequest(args[0], toolArgs)
			if err != nil {
				return err
			}

			baseURL := daemonURL(addr)
			var resp *mcp.Response
			switch strings.ToLower(strings.TrimSpace(transport)) {
			case "ndjson":
				resp, err = callNDJSON(cmd.Context(), baseURL+"/mcp", req)
			default:
				resp, err = callConnect(cmd.Context(), baseURL+dispatch.ConnectCallProcedure, req)
			}
			if err != nil {
				return err
			}
			return renderResponse(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "connect", "Transport: connect or ndjson")
	cmd.Flags().StringVar(&addr, "addr", "", "Daemon address (default: server.addr from config)")
	cmd.Flags().StringVar(&toolArgs, "args", "{}", "JSON object of tool arguments")
	return cmd
}

var protocolMethods = map[string]bool{
	"initialize": true,
	"ping":       true,
	"tools/list": true,
}

func buildCallRequest(name, rawArgs string) (*mcp.Request, error) {
	req := &mcp.Request{JSONRPC: "2.0", ID: json.RawMessage(`1`), Method: name}
	if protocolMethods[name] {
		return req, nil
	}
	if strings.TrimSpace(rawArgs) == "" {
		rawArgs = "{}"
	}
	if !json.Valid([]byte(rawArgs)) {
		return nil, fmt.Errorf("--args is not valid JSON")
	}
	params, err := json.Marshal(map[string]json.RawMessage{
		"name":      json.RawMessage(mustQuote(name)),
		"arguments": json.RawMessage(rawArgs),
	})
	if err != nil {
		return nil, err
	}
	req.Method = "tools/call"
	req.Params = params
	return req, nil
}

func mustQuote(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}

func daemonURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func callNDJSON(ctx context.Context, url string, reqBody *mcp.Request) (*mcp.Response, error) {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(append(data, '\n')))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-ndjson")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("daemon closed the stream without a response")
	}
	var out mcp.Response
	if err := json.Unmarshal(scanner.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func callConnect(ctx context.Context, url string, req *mcp.Request) (*mcp.Response, error) {
	client := connect.NewClient[mcp.Request, mcp.Response](buildH2CClient(), url, connect.WithCodec(connectjson.Codec{}))
	res, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func renderResponse(out io.Writer, resp *mcp.Response) error {
	if resp.Error != nil {
		return fmt.Errorf("rpc error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	// tool results carry text content; print it as-is
	data, err := json.Marshal(resp.Result)
	if err != nil {
		return err
	}
	var tool mcp.ToolResult
	if err := json.Unmarshal(data, &tool); err == nil && len(tool.Content) > 0 {
		for _, c := range tool.Content {
			fmt.Fprintln(out, c.Text)
		}
		return nil
	}
	pretty, err := json.MarshalIndent(resp.Result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(pretty))
	return nil
}

func buildH2CClient() *http.Client {
	return &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}
