package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/hive"
	"github.com/fwojciec/hive/accumulator"
	"github.com/fwojciec/hive/anthropic"
	"github.com/fwojciec/hive/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalStream = "event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"usage\":{\"input_tokens\":3,\"output_tokens\":0}}}\n\n" +
	"event: content_block_start\ndata: {\"type\":\"content_block_start\",\"index\":0,\"content_block\":{\"type\":\"text\",\"text\":\"\"}}\n\n" +
	"event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"Hi there\"}}\n\n" +
	"event: content_block_stop\ndata: {\"type\":\"content_block_stop\",\"index\":0}\n\n" +
	"event: message_delta\ndata: {\"type\":\"message_delta\",\"delta\":{\"stop_reason\":\"end_turn\"},\"usage\":{\"output_tokens\":2}}\n\n" +
	"event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n"

type captured struct {
	header http.Header
	url    string
	body   map[string]any
}

func newServer(t *testing.T, status int, response string) (*httptest.Server, <-chan captured) {
	t.Helper()
	ch := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		ch <- captured{header: r.Header.Clone(), url: r.URL.String(), body: body}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func hello() hive.Request {
	return hive.Request{Messages: []hive.Message{hive.NewUserText("Hello")}, MaxTokens: 1024}
}

func TestClient_APIKeyRequest(t *testing.T) {
	t.Parallel()

	srv, reqs := newServer(t, http.StatusOK, minimalStream)
	client := anthropic.New(hive.StaticCredentials{APIKey: "test-api-key"}, anthropic.WithBaseURL(srv.URL))

	temp := 0.7
	req := hello()
	req.Model = hive.ModelOpus
	req.SystemPrompt = "You are helpful."
	req.Temperature = &temp
	req.Tools = []hive.Tool{{Name: "read", Description: "Read a file", InputSchema: json.RawMessage(`{"type":"object"}`)}}

	body, err := client.Send(context.Background(), req)
	require.NoError(t, err)
	defer body.Close()
	got := <-reqs

	assert.Equal(t, "/v1/messages", got.url)
	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.Equal(t, "test-api-key", got.header.Get("X-Api-Key"))
	assert.Equal(t, "2023-06-01", got.header.Get("Anthropic-Version"))
	assert.Empty(t, got.header.Get("Authorization"))
	assert.Empty(t, got.header.Get("Anthropic-Beta"))

	assert.Equal(t, anthropic.ModelOpusID, got.body["model"])
	assert.Equal(t, true, got.body["stream"])
	assert.InDelta(t, 1024, got.body["max_tokens"], 0)
	assert.InDelta(t, 0.7, got.body["temperature"], 1e-9)
	assert.NotContains(t, got.body, "anthropic_version")
}

func TestClient_BearerTokenRequest(t *testing.T) {
	t.Parallel()

	srv, reqs := newServer(t, http.StatusOK, minimalStream)
	client := anthropic.New(hive.StaticCredentials{BearerToken: "tok"}, anthropic.WithBaseURL(srv.URL))

	body, err := client.Send(context.Background(), hello())
	require.NoError(t, err)
	defer body.Close()
	got := <-reqs

	assert.Equal(t, "/v1/messages?beta=true", got.url)
	assert.Equal(t, "Bearer tok", got.header.Get("Authorization"))
	assert.Empty(t, got.header.Get("X-Api-Key"))
	assert.Equal(t, "oauth-2025-04-20", got.header.Get("Anthropic-Beta"))
}

func TestClient_ThinkingRequest(t *testing.T) {
	t.Parallel()

	srv, reqs := newServer(t, http.StatusOK, minimalStream)
	client := anthropic.New(hive.StaticCredentials{BearerToken: "tok"}, anthropic.WithBaseURL(srv.URL))

	temp := 1.0
	req := hello()
	req.Thinking = &hive.ThinkingConfig{BudgetTokens: 10_000}
	req.Temperature = &temp

	body, err := client.Send(context.Background(), req)
	require.NoError(t, err)
	defer body.Close()
	got := <-reqs

	assert.Equal(t, "interleaved-thinking-2025-05-14,oauth-2025-04-20", got.header.Get("Anthropic-Beta"))
	assert.NotContains(t, got.body, "temperature")
	assert.Equal(t, map[string]any{"type": "enabled", "budget_tokens": float64(10_000)}, got.body["thinking"])
}

func TestClient_StreamDecodes(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, http.StatusOK, minimalStream)
	client := anthropic.New(hive.StaticCredentials{APIKey: "k"}, anthropic.WithBaseURL(srv.URL))

	body, err := client.Send(context.Background(), hello())
	require.NoError(t, err)
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())

	dec := client.NewDecoder()
	acc := accumulator.New(nil)
	for _, e := range append(dec.Decode(raw), dec.Flush()...) {
		acc.Process(e)
	}
	msg, usage, stop := acc.Result()
	assert.Equal(t, []hive.ContentBlock{hive.TextBlock{Text: "Hi there"}}, msg.Content)
	assert.Equal(t, hive.Usage{InputTokens: 3, OutputTokens: 2}, usage)
	assert.Equal(t, hive.StopEndTurn, stop)
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		response string
		contains []string
	}{
		{
			name:     "api error body",
			status:   http.StatusBadRequest,
			response: `{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens: integer above 1 expected"}}`,
			contains: []string{"400", "invalid_request_error", "max_tokens"},
		},
		{
			name:     "plain body",
			status:   http.StatusInternalServerError,
			response: "internal server error",
			contains: []string{"500", "internal server error"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, _ := newServer(t, tt.status, tt.response)
			client := anthropic.New(hive.StaticCredentials{APIKey: "k"}, anthropic.WithBaseURL(srv.URL))

			_, err := client.Send(context.Background(), hello())
			require.ErrorIs(t, err, hive.ErrTransport)
			for _, s := range tt.contains {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func TestClient_ConnectionError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := anthropic.New(hive.StaticCredentials{APIKey: "k"}, anthropic.WithBaseURL(url))
	_, err := client.Send(context.Background(), hello())
	require.ErrorIs(t, err, hive.ErrTransport)
}

func TestClient_Credentials(t *testing.T) {
	t.Parallel()

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		client := anthropic.New(hive.StaticCredentials{}, anthropic.WithBaseURL("http://unused.invalid"))
		_, err := client.Send(context.Background(), hello())
		require.ErrorIs(t, err, hive.ErrValidation)
	})

	t.Run("provider failure", func(t *testing.T) {
		t.Parallel()
		creds := &mock.CredentialProvider{
			CredentialsFn: func(context.Context) (hive.Credentials, error) {
				return hive.Credentials{}, errors.New("keychain locked")
			},
		}
		client := anthropic.New(creds, anthropic.WithBaseURL("http://unused.invalid"))
		_, err := client.Send(context.Background(), hello())
		require.ErrorIs(t, err, hive.ErrValidation)
		assert.Contains(t, err.Error(), "keychain locked")
	})
}
