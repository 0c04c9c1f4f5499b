package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &Error{Kind: StatusKind(http.StatusTooManyRequests)}, true},
		{"server error", &Error{Kind: StatusKind(http.StatusBadGateway)}, true},
		{"request timeout", &Error{Kind: StatusKind(http.StatusRequestTimeout)}, true},
		{"bad request", &Error{Kind: StatusKind(http.StatusBadRequest)}, false},
		{"unauthorized", &Error{Kind: StatusKind(http.StatusUnauthorized)}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"cancelled", context.Canceled, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func chatServer(t *testing.T, status int, reply string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.WriteHeader(status)
		fmt.Fprint(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChatCompletionProvider(t *testing.T) {
	var seen chatRequest
	srv := chatServer(t, http.StatusOK, `{"choices":[{"message":{"content":"{\"sections\":[]}"}}]}`, &seen)

	p := NewDeepSeekProvider()
	p.URL, p.APIKey = srv.URL, "test-key"

	out, err := p.GenerateResponse(context.Background(), "user", "system", Options{MaxTokens: 512, Temperature: 0.2, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"sections":[]}`, out)

	assert.Equal(t, "deepseek-chat", seen.Model)
	assert.Equal(t, 512, seen.MaxTokens)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, "user", seen.Messages[1].Content)
	require.NotNil(t, seen.ResponseFormat)
	assert.Equal(t, "json_object", seen.ResponseFormat.Type)
}

func TestChatCompletionProviderClassifiesFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		transient bool
	}{
		{"rate limit", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, true},
		{"unavailable", http.StatusServiceUnavailable, `overloaded`, true},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"bad"}}`, false},
		{"no choices", http.StatusOK, `{"choices":[]}`, true},
		{"api error body", http.StatusOK, `{"error":{"message":"quota"}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.status, tt.body, nil)
			p := NewOpenAIProvider()
			p.URL, p.APIKey = srv.URL, "test-key"

			_, err := p.GenerateResponse(context.Background(), "u", "s", Options{})
			require.Error(t, err)
			var le *Error
			require.ErrorAs(t, err, &le)
			assert.Equal(t, "openai", le.Provider)
			assert.Equal(t, tt.transient, IsTransient(err))
		})
	}
}

func TestChatCompletionProviderMissingKey(t *testing.T) {
	p := NewKimiProvider()
	p.APIKeyEnv = []string{"CONTROLBOT_TEST_UNSET_KEY"}

	_, err := p.GenerateResponse(context.Background(), "u", "s", Options{})
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.Contains(t, err.Error(), "API_KEY_MISSING")
}

func TestQwenProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "qwen-plus", body["model"])
		fmt.Fprint(w, `{"output":{"choices":[{"message":{"content":"hello"}}]}}`)
	}))
	defer srv.Close()

	p := &QwenProvider{URL: srv.URL, APIKey: "k", Model: "qwen-plus"}
	out, err := p.GenerateResponse(context.Background(), "u", "", Options{})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestQwenProviderErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"InvalidParameter","message":"bad input"}`)
	}))
	defer srv.Close()

	p := &QwenProvider{URL: srv.URL, APIKey: "k"}
	_, err := p.GenerateResponse(context.Background(), "u", "", Options{})
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.Contains(t, err.Error(), "InvalidParameter")
}

func TestProviderHonoursContext(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"choices":[{"message":{"content":"late"}}]}`, nil)
	p := NewDoubaoProvider()
	p.URL, p.APIKey = srv.URL, "test-key"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.GenerateResponse(ctx, "u", "s", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTransient(err))
}
