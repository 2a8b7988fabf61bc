package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"codex-assistant/internal/provider"
	"codex-assistant/internal/stream"
)

// Client talks to the chat gateway and feeds the response stream into a
// Consumer.
type Client struct {
	baseURL  string
	http     *http.Client
	consumer *Consumer
}

// NewClient returns a client for the gateway at baseURL. Approved file
// modifications are applied through files.
func NewClient(baseURL string, files FileService) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No client timeout: responses stream for as long as the model
		// talks. Cancellation comes from the request context.
		http:     &http.Client{},
		consumer: NewConsumer(files),
	}
}

// Consumer returns the conversation state backing this client.
func (c *Client) Consumer() *Consumer {
	return c.consumer
}

type chatRequest struct {
	Message string                `json:"message"`
	Model   string                `json:"model"`
	Context *provider.ChatContext `json:"context,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Chat sends one message and consumes the whole response stream before
// returning. The consumer rejects a second call while one is in flight.
func (c *Client) Chat(ctx context.Context, message, model string, chatCtx *provider.ChatContext) error {
	workingDir := ""
	if chatCtx != nil {
		workingDir = chatCtx.WorkingDirectory
	}
	if err := c.consumer.Begin(message, workingDir); err != nil {
		return err
	}

	body, err := json.Marshal(chatRequest{Message: message, Model: model, Context: chatCtx})
	if err != nil {
		c.consumer.Apply(stream.Errorf("failed to encode request: %v", err))
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		c.consumer.Apply(stream.Errorf("failed to build request: %v", err))
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		c.consumer.Apply(stream.Errorf("request failed: %v", err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		json.NewDecoder(resp.Body).Decode(&e)
		if e.Detail == "" {
			e.Detail = resp.Status
		}
		c.consumer.Apply(stream.Errorf("%s", e.Detail))
		return fmt.Errorf("chat request rejected: %s", e.Detail)
	}

	return c.consumer.Consume(resp.Body)
}
