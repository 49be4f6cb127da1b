package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatClientStream(t *testing.T) {
	var gotPath, gotAuth, gotContent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		var body struct {
			Content string `json:"content"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotContent = body.Content

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, frame := range []string{"data: Bonj\n", "data: our\n", "data: [DONE]\n"} {
			fmt.Fprint(w, frame)
			flusher.Flush()
		}
	}))
	defer server.Close()

	client := NewChatClient(server.URL+"/", "secret")
	client.now = func() time.Time { return time.UnixMilli(1700000000000) }

	var ids []string
	var contents []string
	reply, err := client.Stream(context.Background(), "", "Nous cherchons un développeur", func(id, content string) {
		ids = append(ids, id)
		contents = append(contents, content)
	})
	require.NoError(t, err)

	assert.Equal(t, "/chat/temp", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "Nous cherchons un développeur", gotContent)
	assert.Equal(t, "Bonjour", reply)
	require.NotEmpty(t, contents)
	assert.Equal(t, "Bonjour", contents[len(contents)-1])
	for _, id := range ids {
		assert.Equal(t, "1700000000000-ai", id)
	}
}

func TestChatClientUsesConversationID(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, "data: ok\n")
	}))
	defer server.Close()

	_, err := NewChatClient(server.URL, "").WithHTTPClient(server.Client()).Stream(context.Background(), "b-42", "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "/chat/b-42", gotPath)
	assert.Empty(t, gotAuth)
}

func TestChatClientNon2xxIsTotalFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, "data: should not be read\n")
	}))
	defer server.Close()

	called := false
	reply, err := NewChatClient(server.URL, "bad").Stream(context.Background(), "", "hi", func(string, string) {
		called = true
	})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Empty(t, reply)
	assert.False(t, called)
}

func TestChatClientConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewChatClient(url, "").Stream(context.Background(), "", "hi", nil)
	assert.Error(t, err)
}

func TestNewStreamID(t *testing.T) {
	assert.Equal(t, "1234-ai", NewStreamID(time.UnixMilli(1234)))
}
