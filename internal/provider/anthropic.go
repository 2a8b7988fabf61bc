package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"codex-assistant/internal/stream"
	"codex-assistant/internal/tools"
)

const (
	anthropicAPIURL     = "https://api.anthropic.com/v1/messages"
	anthropicAPIVersion = "2023-06-01"
	anthropicModel      = "claude-3-5-sonnet-20241022"
)

// Settings holds the sampling parameters shared by the adapters.
type Settings struct {
	MaxTokens   int
	Temperature float32
}

// Anthropic streams chat turns through the Anthropic Messages API.
type Anthropic struct {
	apiKey   string
	settings Settings
	exec     *tools.Executor

	// baseURL is overridable for tests.
	baseURL string
	client  *http.Client
}

// NewAnthropic builds the Anthropic adapter.
func NewAnthropic(apiKey string, exec *tools.Executor, settings Settings) *Anthropic {
	return &Anthropic{
		apiKey:   apiKey,
		settings: settings,
		exec:     exec,
		baseURL:  anthropicAPIURL,
		client:   &http.Client{},
	}
}

func (p *Anthropic) Name() string { return "anthropic" }

func (p *Anthropic) ModelID() string { return "claude-3.5-sonnet" }

func (p *Anthropic) Available() bool { return p.apiKey != "" }

type anthropicMsg struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentBlock struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`
}

// StreamChat opens a streaming chat turn. Configuration problems are
// returned synchronously; upstream and tool failures are reported in-band.
func (p *Anthropic) StreamChat(ctx context.Context, req ChatRequest) (<-chan stream.Event, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key not configured")
	}

	messages := make([]anthropicMsg, 0, 2)
	if folded := contextMessage(req.Context); folded != "" {
		messages = append(messages, anthropicMsg{Role: "user", Content: folded})
	}
	messages = append(messages, anthropicMsg{Role: "user", Content: req.Message})

	events := make(chan stream.Event, 100)
	go func() {
		defer close(events)
		p.run(ctx, messages, workingDirectory(req.Context), events)
	}()
	return events, nil
}

// run drives the model/tool loop until the model stops asking for tools.
func (p *Anthropic) run(ctx context.Context, messages []anthropicMsg, workingDir string, events chan<- stream.Event) {
	emit := emitter(ctx, events)

	for round := 0; round < maxToolRounds; round++ {
		turn, err := p.streamOnce(ctx, messages, workingDir, emit)
		if err != nil {
			emit(stream.Errorf("Claude API error: %v", err))
			return
		}
		if turn.terminated {
			return
		}

		if turn.stopReason == "tool_use" && len(turn.toolResults) > 0 {
			messages = append(messages, anthropicMsg{Role: "assistant", Content: turn.content})
			messages = append(messages, anthropicMsg{Role: "user", Content: turn.toolResults})
			continue
		}

		emit(stream.Done())
		return
	}

	emit(stream.Errorf("tool call limit reached"))
}

type anthropicTurn struct {
	stopReason  string
	content     []contentBlock
	toolResults []any
	terminated  bool
}

func (p *Anthropic) streamOnce(ctx context.Context, messages []anthropicMsg, workingDir string, emit func(stream.Event) bool) (*anthropicTurn, error) {
	reqBody := struct {
		Model       string           `json:"model"`
		MaxTokens   int              `json:"max_tokens"`
		Temperature float32          `json:"temperature"`
		System      string           `json:"system"`
		Messages    []anthropicMsg   `json:"messages"`
		Tools       []map[string]any `json:"tools,omitempty"`
		Stream      bool             `json:"stream"`
	}{
		Model:       anthropicModel,
		MaxTokens:   p.settings.MaxTokens,
		Temperature: p.settings.Temperature,
		System:      systemPrompt,
		Messages:    messages,
		Tools:       p.toolDefinitions(),
		Stream:      true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return p.processStream(ctx, resp.Body, workingDir, emit)
}

func (p *Anthropic) toolDefinitions() []map[string]any {
	defs := p.exec.Definitions()
	out := make([]map[string]any, 0, len(defs))
	for _, def := range defs {
		out = append(out, map[string]any{
			"name":         def.Name,
			"description":  def.Description,
			"input_schema": def.Schema,
		})
	}
	return out
}

// processStream reads one SSE response. Tool invocations are executed as
// their argument blocks complete, with lifecycle events emitted in-band.
func (p *Anthropic) processStream(ctx context.Context, body io.Reader, workingDir string, emit func(stream.Event) bool) (*anthropicTurn, error) {
	scanner := bufio.NewScanner(body)
	turn := &anthropicTurn{}

	var textBuilder strings.Builder
	var currentToolInput strings.Builder
	var currentToolID string
	var currentToolName string

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var event map[string]any
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			continue
		}
		eventType, _ := event["type"].(string)

		switch eventType {
		case "content_block_start":
			block, ok := event["content_block"].(map[string]any)
			if !ok {
				continue
			}
			blockType, _ := block["type"].(string)
			if blockType == "tool_use" {
				currentToolID, _ = block["id"].(string)
				currentToolName, _ = block["name"].(string)
				currentToolInput.Reset()
				if !emit(stream.ToolStatusEvent(currentToolName, stream.ToolExecuting)) {
					turn.terminated = true
					return turn, nil
				}
			}

		case "content_block_delta":
			delta, ok := event["delta"].(map[string]any)
			if !ok {
				continue
			}
			deltaType, _ := delta["type"].(string)

			switch deltaType {
			case "text_delta":
				text, _ := delta["text"].(string)
				if text == "" {
					continue
				}
				textBuilder.WriteString(text)
				if !emit(stream.AIChunk(text)) {
					turn.terminated = true
					return turn, nil
				}

			case "input_json_delta":
				partial, _ := delta["partial_json"].(string)
				currentToolInput.WriteString(partial)
			}

		case "content_block_stop":
			if currentToolID == "" {
				continue
			}

			args := map[string]any{}
			if currentToolInput.Len() > 0 {
				if err := json.Unmarshal([]byte(currentToolInput.String()), &args); err != nil {
					emit(stream.ToolStatusEvent(currentToolName, stream.ToolFailed))
					emit(stream.Errorf("Tool execution failed: invalid arguments for %s: %v", currentToolName, err))
					turn.terminated = true
					return turn, nil
				}
			}

			resultJSON, ok := runTool(ctx, p.exec, emit, currentToolName, args, workingDir)
			if !ok {
				turn.terminated = true
				return turn, nil
			}

			turn.content = append(turn.content, contentBlock{
				Type:  "tool_use",
				ID:    currentToolID,
				Name:  currentToolName,
				Input: args,
			})
			turn.toolResults = append(turn.toolResults, map[string]any{
				"type":        "tool_result",
				"tool_use_id": currentToolID,
				"content":     resultJSON,
			})
			currentToolID = ""
			currentToolName = ""

		case "message_delta":
			if delta, ok := event["delta"].(map[string]any); ok {
				if stopReason, ok := delta["stop_reason"].(string); ok {
					turn.stopReason = stopReason
				}
			}

		case "message_stop":
			// Message complete
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("stream read error: %w", err)
	}

	if textBuilder.Len() > 0 {
		turn.content = append([]contentBlock{{
			Type: "text",
			Text: textBuilder.String(),
		}}, turn.content...)
	}
	return turn, nil
}

// GenerateText makes a non-streaming completion request.
func (p *Anthropic) GenerateText(ctx context.Context, prompt string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("Anthropic API key not configured")
	}

	reqBody := struct {
		Model       string         `json:"model"`
		MaxTokens   int            `json:"max_tokens"`
		Temperature float32        `json:"temperature"`
		Messages    []anthropicMsg `json:"messages"`
	}{
		Model:       anthropicModel,
		MaxTokens:   p.settings.MaxTokens,
		Temperature: p.settings.Temperature,
		Messages:    []anthropicMsg{{Role: "user", Content: prompt}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	var out strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(out.String()), nil
}
