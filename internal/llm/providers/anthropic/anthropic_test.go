package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/salwks/sdsmcp/internal/apperr"
)

func TestCompleteUsesMessagesAPI(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("x-api-key"))
		require.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req messagesRequest
		require.NoError(t, json.Unmarshal(body, &req))
		require.Equal(t, "claude-test", req.Model)
		require.Equal(t, defaultMaxTokens, req.MaxTokens)
		require.Equal(t, "describe", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"part one "},{"type":"tool_use"},{"type":"text","text":"part two"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "claude-test", "secret", srv.Client())
	text, err := p.Complete(context.Background(), "describe")
	require.NoError(t, err)
	require.Equal(t, "part one part two", text)
}

func TestExtractTextWithoutTextBlock(t *testing.T) {
	t.Parallel()

	_, err := (&Adapter{}).ExtractText([]byte(`{"content":[]}`))
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = (&Adapter{}).ExtractText([]byte(`not json`))
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
