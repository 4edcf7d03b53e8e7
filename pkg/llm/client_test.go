package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lesson-smart-go/internal/config"

	"github.com/stretchr/testify/require"
)

// collectWriter 收集流式分块，满足 MessageWriter 接口。
type collectWriter struct {
	chunks []string
}

func (c *collectWriter) WriteMessage(_ int, data []byte) error {
	c.chunks = append(c.chunks, string(data))
	return nil
}

func TestNewClient_MissingAPIKey(t *testing.T) {
	_, err := NewClient(config.LLMConfig{BaseURL: "https://api.groq.com/openai/v1"})
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestComplete_ReturnsContentVerbatim(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotReq))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"# Lesson Plan\n\nbody"}}]}`)
	}))
	defer srv.Close()

	client, err := NewClient(config.LLMConfig{APIKey: "test-key", BaseURL: srv.URL, Model: "test-model"})
	require.NoError(t, err)

	out, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "prompt"}}, nil)
	require.NoError(t, err)
	require.Equal(t, "# Lesson Plan\n\nbody", out)
	require.Equal(t, "Bearer test-key", gotAuth)
	require.Equal(t, "test-model", gotReq.Model)
	require.False(t, gotReq.Stream)
}

func TestComplete_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient(config.LLMConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), []Message{{Role: "user", Content: "p"}}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "non-200")
}

func TestStreamChatMessages_DecodesSSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		lines := []string{
			`data: {"choices":[{"delta":{"content":"Hello"}}]}`,
			`data: {"choices":[{"delta":{"content":" world"}}]}`,
			`data: not-json-keepalive`,
			`data: [DONE]`,
		}
		for _, l := range lines {
			fmt.Fprintf(w, "%s\n\n", l)
		}
	}))
	defer srv.Close()

	client, err := NewClient(config.LLMConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	writer := &collectWriter{}
	err = client.StreamChatMessages(context.Background(), []Message{{Role: "user", Content: "p"}}, nil, writer)
	require.NoError(t, err)
	require.Equal(t, "Hello world", strings.Join(writer.chunks, ""))
}

func TestBuildRequest_GenerationParamsOverrideConfig(t *testing.T) {
	c := &groqClient{cfg: config.LLMConfig{
		Model:      "m",
		Generation: config.LLMGenerationConfig{Temperature: 0.7, TopP: 0.9, MaxTokens: 4096},
	}}

	// 未传参时取全局配置
	req := c.buildRequest(nil, nil, false)
	require.NotNil(t, req.Temperature)
	require.Equal(t, 0.7, *req.Temperature)
	require.Equal(t, 4096, *req.MaxTokens)

	// 显式传参优先
	temp := 0.1
	req = c.buildRequest(nil, &GenerationParams{Temperature: &temp}, true)
	require.Equal(t, 0.1, *req.Temperature)
	require.Nil(t, req.MaxTokens)
	require.True(t, req.Stream)
}
