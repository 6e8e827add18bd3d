package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientExtract(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"), r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [{"type": "text", "text": "{\"full_name\":\"Jane Doe\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "key-1", BaseURL: srv.URL}, nil)
	assert.Equal(t, defaultModel, c.Model())

	out, err := c.Extract(context.Background(), []byte("img"), "image/png", "read it")
	require.NoError(t, err)
	assert.Equal(t, `{"full_name":"Jane Doe"}`, out)

	assert.Equal(t, defaultModel, got["model"])
	assert.EqualValues(t, 1000, got["max_tokens"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	blocks := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, blocks, 2)
	img := blocks[0].(map[string]any)
	assert.Equal(t, "image", img["type"])
	src := img["source"].(map[string]any)
	assert.Equal(t, "image/png", src["media_type"])
	assert.Equal(t, "aW1n", src["data"])
	assert.Equal(t, "read it", blocks[1].(map[string]any)["text"])
}
