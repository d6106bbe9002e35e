package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "json_object", req.ResponseFormat["type"])
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":"nope"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
}

func TestOpenAICompatible_GenerateStructured(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"name":"Maria Garcia","hobbies":["reading"]}`)
	defer srv.Close()

	p := NewOpenAICompatible(srv.URL, "k", "test-model")
	out, err := p.GenerateStructured(context.Background(), "extract", "My name is Maria Garcia.")
	require.NoError(t, err)
	assert.Equal(t, "Maria Garcia", out["name"])
	assert.Equal(t, []any{"reading"}, out["hobbies"])
}

func TestOpenAICompatible_ClassifiesFailures(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		content   string
		transient bool
		malformed bool
	}{
		{"server error", http.StatusBadGateway, "", true, false},
		{"rate limited", http.StatusTooManyRequests, "", true, false},
		{"bad request", http.StatusBadRequest, "", false, false},
		{"prose instead of json", http.StatusOK, "I could not find anything.", false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := chatServer(t, tc.status, tc.content)
			defer srv.Close()

			_, err := NewOpenAICompatible(srv.URL, "k", "").GenerateStructured(context.Background(), "p", "t")
			require.Error(t, err)
			assert.Equal(t, tc.transient, IsTransient(err))
			assert.Equal(t, tc.malformed, IsMalformed(err))
		})
	}
}

func TestOpenAICompatible_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewOpenAICompatible(srv.URL, "k", "").GenerateStructured(ctx, "p", "t")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
