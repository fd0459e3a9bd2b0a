package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/salwks/sdsmcp/internal/apperr"
)

func TestCompleteSendsRequestAndParsesResponse(t *testing.T) {
	t.Parallel()

	client := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, "/v1/chat/completions", r.URL.Path)
			require.Equal(t, "Bearer key", r.Header.Get("Authorization"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)

			var reqBody map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &reqBody))
			require.Equal(t, "gpt-4o-mini", reqBody["model"])
			msgs := reqBody["messages"].([]interface{})
			require.Len(t, msgs, 1)
			require.Equal(t, "hi", msgs[0].(map[string]interface{})["content"])

			return jsonResponse(http.StatusOK, `{
				"choices": [{
					"index": 0,
					"finish_reason": "stop",
					"message": {"role": "assistant", "content": "hello"}
				}]
			}`), nil
		}),
	}

	p := NewProvider("http://mock", "gpt-4o-mini", "key", client)
	require.Equal(t, "openai", p.Name())

	text, err := p.Complete(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, "hello", text)
}

func TestCompleteEmptyChoicesIsValidationError(t *testing.T) {
	t.Parallel()

	client := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"choices": []}`), nil
		}),
	}

	_, err := NewProvider("http://mock", "", "key", client).Complete(context.Background(), "hi")
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCompleteMissingContentIsValidationError(t *testing.T) {
	t.Parallel()

	client := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant"}}]}`), nil
		}),
	}

	text, err := NewProvider("http://mock", "", "key", client).Complete(context.Background(), "hi")
	require.Error(t, err)
	require.Empty(t, text)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	require.Contains(t, err.Error(), "choices[0].message.content")
}

func TestCompleteEmptyContentIsReturned(t *testing.T) {
	t.Parallel()

	client := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":""}}]}`), nil
		}),
	}

	text, err := NewProvider("http://mock", "", "key", client).Complete(context.Background(), "hi")
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestCompleteNon2xxIsNetworkError(t *testing.T) {
	t.Parallel()

	client := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusTooManyRequests, `{"error": "rate limited"}`), nil
		}),
	}

	_, err := NewProvider("http://mock", "", "key", client).Complete(context.Background(), "hi")
	require.Error(t, err)
	require.Equal(t, apperr.KindNetwork, apperr.KindOf(err))
	require.Contains(t, err.Error(), "429")
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
