package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"codex-assistant/internal/stream"
	"codex-assistant/internal/tools"
	"codex-assistant/internal/workspace"
)

func chunkBody(chunks ...string) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString("data: ")
		b.WriteString(c)
		b.WriteString("\n\n")
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

func newOpenAITestServer(t *testing.T, handler http.HandlerFunc) (*OpenAI, *httptest.Server) {
	t.Helper()
	exec, err := tools.NewExecutor(workspace.NewStore(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test")
	config.BaseURL = server.URL + "/v1"
	client := openai.NewClientWithConfig(config)

	return NewOpenAIWithClient(client, exec, Settings{MaxTokens: 1024, Temperature: 0.7}), server
}

func TestOpenAIStreamChatText(t *testing.T) {
	p, _ := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, chunkBody(
			`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"Hello"}}]}`,
			`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":" there"}}]}`,
			`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		))
	})

	events, err := p.StreamChat(context.Background(), ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("StreamChat failed: %v", err)
	}

	var collected []stream.Event
	for ev := range events {
		collected = append(collected, ev)
	}

	types := eventTypes(collected)
	want := []string{"ai_chunk", "ai_chunk", "done"}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	if collected[0].Content+collected[1].Content != "Hello there" {
		t.Errorf("text = %q, want %q", collected[0].Content+collected[1].Content, "Hello there")
	}
}

func TestOpenAIStreamChatToolLoop(t *testing.T) {
	var requests int
	var followUp []byte
	p, _ := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/event-stream")

		if requests == 1 {
			// Arguments arrive fragmented, continuation chunks carry no ID.
			fmt.Fprint(w, chunkBody(
				`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"generate_code_diff","arguments":"{\"old_code\":"}}]}}]}`,
				`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"a\",\"new_code\":\"b\"}"}}]}}]}`,
				`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
			))
			return
		}

		followUp = body
		fmt.Fprint(w, chunkBody(
			`{"id":"2","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"Diff ready."}}]}`,
			`{"id":"2","object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		))
	})

	events, err := p.StreamChat(context.Background(), ChatRequest{Message: "diff a and b"})
	if err != nil {
		t.Fatalf("StreamChat failed: %v", err)
	}

	var collected []stream.Event
	for ev := range events {
		collected = append(collected, ev)
	}

	types := eventTypes(collected)
	want := []string{"tool_status", "tool_result", "tool_status", "ai_chunk", "done"}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	if collected[0].Status != stream.ToolExecuting || collected[2].Status != stream.ToolCompleted {
		t.Errorf("statuses = %q, %q, want executing then completed", collected[0].Status, collected[2].Status)
	}

	// The tool result is fed back as a tool-role message.
	var req struct {
		Messages []struct {
			Role       string `json:"role"`
			ToolCallID string `json:"tool_call_id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(followUp, &req); err != nil {
		t.Fatalf("follow-up body invalid: %v", err)
	}
	found := false
	for _, msg := range req.Messages {
		if msg.Role == "tool" && msg.ToolCallID == "call_1" {
			found = true
		}
	}
	if !found {
		t.Errorf("follow-up request missing tool message: %s", followUp)
	}
}

func TestOpenAIStreamChatToolFailureIsTerminal(t *testing.T) {
	var requests int
	p, _ := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, chunkBody(
			`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"read_file","arguments":"{\"path\":\"missing.txt\"}"}}]}}]}`,
			`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
		))
	})

	events, err := p.StreamChat(context.Background(), ChatRequest{Message: "read it"})
	if err != nil {
		t.Fatalf("StreamChat failed: %v", err)
	}

	var collected []stream.Event
	for ev := range events {
		collected = append(collected, ev)
	}

	types := eventTypes(collected)
	want := []string{"tool_status", "tool_status", "error"}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	if collected[1].Status != stream.ToolFailed {
		t.Errorf("status = %q, want failed", collected[1].Status)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1 (no follow-up after failure)", requests)
	}
}

func TestOpenAIGenerateText(t *testing.T) {
	p, _ := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  generated text  "},"finish_reason":"stop"}]}`)
	})

	text, err := p.GenerateText(context.Background(), "write something")
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if text != "generated text" {
		t.Errorf("text = %q, want trimmed content", text)
	}
}

func TestOpenAIStreamChatWithoutKey(t *testing.T) {
	exec, err := tools.NewExecutor(workspace.NewStore(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	p := NewOpenAI("", exec, Settings{})

	if p.Available() {
		t.Error("provider without key reports available")
	}
	if _, err := p.StreamChat(context.Background(), ChatRequest{Message: "hi"}); err == nil {
		t.Error("expected configuration error")
	}
}
