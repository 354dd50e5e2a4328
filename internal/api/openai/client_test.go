package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestClient(url string) *Client {
	return NewClient(ClientOptions{
		APIKey:         "test-key",
		BaseURL:        url + "/v1",
		Model:          "gemini-test",
		Timeout:        2 * time.Second,
		RequestsPerSec: 100,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
	})
}

func TestGenerateCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gemini-test", req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "user", req.Messages[1].Role)
			assert.Equal(t, "Who wins?", req.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"### PERCENTS\nA 50%"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).GenerateCompletion(context.Background(), "Who wins?")
	require.NoError(t, err)
	assert.Equal(t, "### PERCENTS\nA 50%", got)
}

func TestGenerateCompletionRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"fine"}}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).GenerateCompletion(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "fine", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenerateCompletionRetriesSlowAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"second try"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{
		APIKey:         "test-key",
		BaseURL:        srv.URL + "/v1",
		Model:          "gemini-test",
		Timeout:        300 * time.Millisecond,
		RequestsPerSec: 100,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
	})
	got, err := c.GenerateCompletion(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "second try", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCallBudget(t *testing.T) {
	assert.Equal(t, 105*time.Second, callBudget(30*time.Second, 2))
	assert.Equal(t, 15*time.Second, callBudget(10*time.Second, 0))
	assert.Equal(t, 15*time.Second, callBudget(10*time.Second, -1))
}

func TestGenerateCompletionErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		isEmpty bool
	}{
		{"empty choices", http.StatusOK, `{"choices":[]}`, true},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"auth"}}`, false},
		{"always unavailable", http.StatusServiceUnavailable, ``, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).GenerateCompletion(context.Background(), "prompt")
			require.Error(t, err)
			assert.Equal(t, tt.isEmpty, errors.Is(err, ErrEmptyCompletion))
		})
	}
}
