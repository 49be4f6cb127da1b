package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TempConversationID is used in the chat URL until the brief has been saved
const TempConversationID = "temp"

// StatusError is returned when the chat endpoint answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat endpoint error (status %d): %s", e.StatusCode, e.Body)
}

// ChatClient streams assistant replies from the brief chat endpoint
type ChatClient struct {
	baseURL  string
	token    string
	client   *http.Client
	ingestor *Ingestor
	now      func() time.Time
}

// NewChatClient creates a client for {baseURL}/chat/{id}
func NewChatClient(baseURL, token string) *ChatClient {
	// No overall timeout: a reply streams for as long as the model writes
	client := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 120 * time.Second,
		},
	}

	return &ChatClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		client:   client,
		ingestor: NewIngestor(),
		now:      time.Now,
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *ChatClient) WithHTTPClient(client *http.Client) *ChatClient {
	c.client = client
	return c
}

type chatRequest struct {
	Content string `json:"content"`
}

// NewStreamID derives the assistant message identity from the time the stream started
func NewStreamID(started time.Time) string {
	return strconv.FormatInt(started.UnixMilli(), 10) + "-ai"
}

// Stream posts content and feeds every accumulated state of the reply to onUpdate.
// The whole reply shares one message id. A non-2xx status fails the call before any
// content is delivered.
func (c *ChatClient) Stream(ctx context.Context, conversationID, content string, onUpdate func(id, content string)) (string, error) {
	if conversationID == "" {
		conversationID = TempConversationID
	}

	reqBody, err := json.Marshal(chatRequest{Content: content})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.baseURL + "/chat/" + url.PathEscape(conversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	id := NewStreamID(c.now())
	reply, err := c.ingestor.Ingest(resp.Body, id, onUpdate)
	if err != nil {
		return reply, fmt.Errorf("stream read error: %w", err)
	}
	return reply, nil
}
