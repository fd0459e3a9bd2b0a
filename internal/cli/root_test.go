package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/salwks/sdsmcp/internal/config"
	"github.com/salwks/sdsmcp/internal/daemon"
	"github.com/salwks/sdsmcp/internal/mcp"
)

func clearCredentials(t *testing.T) {
	t.Helper()
	for _, env := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OLLAMA_HOST", "PREFERRED_AI_PROVIDER"} {
		t.Setenv(env, "")
	}
}

func examplePath(t *testing.T) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join("..", "..", "configs", "sdsmcp.example.yaml"))
	require.NoError(t, err)
	require.FileExists(t, p)
	return p
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	err := cmd.Execute()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(buf.String(), "sdsmcp "))
}

func TestDoctorWithExampleConfig(t *testing.T) {
	clearCredentials(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"doctor", "--config", examplePath(t), "--env-file", writeEnv(t, "")})

	err := cmd.Execute()
	require.NoError(t, err)
	out := buf.String()
	require.Contains(t, out, "Config OK. Providers available: 1/4")
	require.Contains(t, out, "Task module-generation: openai")
	require.Contains(t, out, "missing ANTHROPIC_API_KEY")
}

func TestDoctorReportsNoProviders(t *testing.T) {
	clearCredentials(t)

	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"doctor", "--config", examplePath(t), "--env-file", writeEnv(t, "")})

	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "no AI provider credential configured")
}

func TestEnvFileSuppliesCredentials(t *testing.T) {
	clearCredentials(t)
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))

	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"doctor", "--config", examplePath(t), "--env-file", writeEnv(t, "GEMINI_API_KEY=from-dotenv\n")})

	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "Task general: gemini")
}

func TestServeOverStdio(t *testing.T) {
	clearCredentials(t)

	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetIn(strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n"))
	cmd.SetArgs([]string{"serve", "--config", examplePath(t), "--env-file", writeEnv(t, "")})

	require.NoError(t, cmd.Execute())
	var resp mcp.Response
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp))
	require.Nil(t, resp.Error)
	require.Contains(t, out.String(), mcp.ToolAnalyze)
}

func TestAnalyzeRejectsBadFlags(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"analyze", "a todo app", "--platform", "desktop"})
	require.Error(t, cmd.Execute())

	cmd = NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"analyze", "a todo app", "--format", "pdf"})
	require.Error(t, cmd.Execute())
}

func TestCallOverNDJSON(t *testing.T) {
	srv, err := daemon.NewServer(&config.Config{
		Pipeline: config.PipelineConfig{Timeout: time.Second, BatchSize: 3},
		Session:  config.SessionConfig{MaxEntries: 4},
		Server:   config.ServerConfig{Addr: "127.0.0.1:0"},
	}, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"call", "ping", "--transport", "ndjson", "--addr", ts.URL, "--env-file", writeEnv(t, "")})
	require.NoError(t, cmd.Execute())
	require.Equal(t, "{}\n", buf.String())

	cmd = NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"call", "refine_specification", "--transport", "ndjson", "--addr", ts.URL,
		"--args", `{"session_id":"spec_missing","refinement_request":"x"}`, "--env-file", writeEnv(t, "")})
	err = cmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "rpc error -32600")
}

func TestBuildCallRequest(t *testing.T) {
	req, err := buildCallRequest("tools/list", "")
	require.NoError(t, err)
	require.Equal(t, "tools/list", req.Method)
	require.Empty(t, req.Params)

	req, err = buildCallRequest(mcp.ToolExport, `{"session_id":"s1"}`)
	require.NoError(t, err)
	require.Equal(t, "tools/call", req.Method)
	require.JSONEq(t, `{"name":"export_specification","arguments":{"session_id":"s1"}}`, string(req.Params))

	_, err = buildCallRequest(mcp.ToolExport, `{nope`)
	require.Error(t, err)
}

func TestDaemonURL(t *testing.T) {
	require.Equal(t, "http://localhost:8088", daemonURL(":8088"))
	require.Equal(t, "http://host:1", daemonURL("host:1"))
	require.Equal(t, "https://x", daemonURL("https://x"))
}

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}
