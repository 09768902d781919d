package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-pipeline/pkg/config"
)

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)

		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
			return
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestChatClient(baseURL string) *ChatClient {
	return NewGroqChatClient(&config.GroqConfig{
		APIKey:    "test-key",
		BaseURL:   baseURL,
		ChatModel: "test-model",
	}, &config.SummarizationConfig{Temperature: 0.3, MaxTokens: 256})
}

func TestChatClient_Summarize(t *testing.T) {
	ts := chatServer(t, http.StatusOK, "  KEY TOPICS: budget  ")
	defer ts.Close()

	summary, err := newTestChatClient(ts.URL).Summarize(context.Background(), "[00:00] hello", "Weekly sync")
	require.NoError(t, err)
	assert.Equal(t, "KEY TOPICS: budget", summary)
}

func TestChatClient_SummarizeEmpty(t *testing.T) {
	ts := chatServer(t, http.StatusOK, "   ")
	defer ts.Close()

	_, err := newTestChatClient(ts.URL).Summarize(context.Background(), "x", "t")
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "groq", perr.Provider)
}

func TestChatClient_ServerError(t *testing.T) {
	ts := chatServer(t, http.StatusServiceUnavailable, "")
	defer ts.Close()

	_, err := newTestChatClient(ts.URL).Summarize(context.Background(), "x", "t")
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusServiceUnavailable, perr.StatusCode)
	assert.True(t, perr.Temporary())
}

func TestChatClient_ExtractActionItems(t *testing.T) {
	ts := chatServer(t, http.StatusOK, "```json\n[{\"description\":\"Send report\",\"assignee\":\"Ann\",\"deadline\":null,\"confidence\":0.9}]\n```")
	defer ts.Close()

	items, err := newTestChatClient(ts.URL).ExtractActionItems(context.Background(), "summary")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Send report", items[0].Description)
	require.NotNil(t, items[0].Assignee)
	assert.Equal(t, "Ann", *items[0].Assignee)
	assert.Nil(t, items[0].Deadline)
	assert.InDelta(t, 0.9, items[0].Confidence, 1e-9)
}

func TestChatClient_ExtractMalformed(t *testing.T) {
	ts := chatServer(t, http.StatusOK, "I could not find any tasks.")
	defer ts.Close()

	_, err := newTestChatClient(ts.URL).ExtractActionItems(context.Background(), "summary")
	assert.True(t, errors.Is(err, ErrMalformedOutput))
}

func TestChatClient_NotConfigured(t *testing.T) {
	c := NewOpenAIChatClient(&config.OpenAIConfig{ChatModel: "gpt-4"}, nil)
	assert.ErrorIs(t, c.Ready(), ErrNotConfigured)

	_, err := c.Summarize(context.Background(), "x", "t")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestProviderError_Temporary(t *testing.T) {
	tests := []struct {
		name string
		err  *ProviderError
		want bool
	}{
		{"rate limited", &ProviderError{StatusCode: 429}, true},
		{"server error", &ProviderError{StatusCode: 502}, true},
		{"bad request", &ProviderError{StatusCode: 400}, false},
		{"network", &ProviderError{Err: errors.New("connection reset")}, true},
		{"bare", &ProviderError{Message: "bad"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Temporary())
		})
	}
}
