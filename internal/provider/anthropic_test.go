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

	"codex-assistant/internal/stream"
	"codex-assistant/internal/tools"
	"codex-assistant/internal/workspace"
)

func newTestAnthropic(t *testing.T) *Anthropic {
	t.Helper()
	exec, err := tools.NewExecutor(workspace.NewStore(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	return NewAnthropic("test-key", exec, Settings{MaxTokens: 1024, Temperature: 0.7})
}

// collector gathers emitted events for assertions.
func collector() (func(stream.Event) bool, *[]stream.Event) {
	events := &[]stream.Event{}
	return func(ev stream.Event) bool {
		*events = append(*events, ev)
		return true
	}, events
}

func sseBody(payloads ...string) string {
	var b strings.Builder
	for _, p := range payloads {
		b.WriteString("data: ")
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	return b.String()
}

func eventTypes(events []stream.Event) []string {
	var types []string
	for _, ev := range events {
		types = append(types, string(ev.Type))
	}
	return types
}

func TestProcessStreamTextDeltas(t *testing.T) {
	p := newTestAnthropic(t)
	emit, events := collector()

	body := sseBody(
		`{"type":"message_start","message":{"usage":{"input_tokens":10}}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" world"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`,
		`{"type":"message_stop"}`,
	)

	turn, err := p.processStream(context.Background(), strings.NewReader(body), "", emit)
	if err != nil {
		t.Fatalf("processStream failed: %v", err)
	}

	if turn.stopReason != "end_turn" {
		t.Errorf("stopReason = %q, want end_turn", turn.stopReason)
	}
	if turn.terminated {
		t.Error("turn unexpectedly terminated")
	}

	var text strings.Builder
	for _, ev := range *events {
		if ev.Type != stream.EventAIChunk {
			t.Errorf("unexpected event type %s", ev.Type)
		}
		text.WriteString(ev.Content)
	}
	if text.String() != "Hello world" {
		t.Errorf("streamed text = %q, want %q", text.String(), "Hello world")
	}

	if len(turn.content) != 1 || turn.content[0].Type != "text" || turn.content[0].Text != "Hello world" {
		t.Errorf("content blocks = %#v, want single text block", turn.content)
	}
}

func TestProcessStreamToolUse(t *testing.T) {
	p := newTestAnthropic(t)
	emit, events := collector()

	// Tool input arrives as JSON fragments split mid-token.
	body := sseBody(
		`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_1","name":"generate_code_diff"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"old_code\":\"a\","}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"\"new_code\":\"b\"}"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"message_delta","delta":{"stop_reason":"tool_use"}}`,
		`{"type":"message_stop"}`,
	)

	turn, err := p.processStream(context.Background(), strings.NewReader(body), "", emit)
	if err != nil {
		t.Fatalf("processStream failed: %v", err)
	}

	types := eventTypes(*events)
	want := []string{"tool_status", "tool_result", "tool_status"}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	if (*events)[0].Status != stream.ToolExecuting {
		t.Errorf("first status = %q, want executing", (*events)[0].Status)
	}
	if (*events)[2].Status != stream.ToolCompleted {
		t.Errorf("last status = %q, want completed", (*events)[2].Status)
	}
	if (*events)[1].Tool != "generate_code_diff" {
		t.Errorf("result tool = %q, want generate_code_diff", (*events)[1].Tool)
	}

	var result struct {
		Summary struct {
			LinesAdded int `json:"lines_added"`
		} `json:"summary"`
	}
	if err := json.Unmarshal((*events)[1].Result, &result); err != nil {
		t.Fatalf("result payload invalid: %v", err)
	}
	if result.Summary.LinesAdded != 1 {
		t.Errorf("lines_added = %d, want 1", result.Summary.LinesAdded)
	}

	if turn.stopReason != "tool_use" || len(turn.toolResults) != 1 {
		t.Errorf("turn = %+v, want tool_use with one result", turn)
	}
}

func TestProcessStreamInvalidToolArguments(t *testing.T) {
	p := newTestAnthropic(t)
	emit, events := collector()

	body := sseBody(
		`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_1","name":"generate_code_diff"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{not json"}}`,
		`{"type":"content_block_stop","index":0}`,
	)

	turn, err := p.processStream(context.Background(), strings.NewReader(body), "", emit)
	if err != nil {
		t.Fatalf("processStream failed: %v", err)
	}
	if !turn.terminated {
		t.Error("turn should terminate on unparseable arguments")
	}

	types := eventTypes(*events)
	want := []string{"tool_status", "tool_status", "error"}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	if (*events)[1].Status != stream.ToolFailed {
		t.Errorf("status = %q, want failed", (*events)[1].Status)
	}
}

func TestProcessStreamUnknownTool(t *testing.T) {
	p := newTestAnthropic(t)
	emit, events := collector()

	body := sseBody(
		`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_1","name":"summon_demons"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{}"}}`,
		`{"type":"content_block_stop","index":0}`,
	)

	turn, err := p.processStream(context.Background(), strings.NewReader(body), "", emit)
	if err != nil {
		t.Fatalf("processStream failed: %v", err)
	}
	if !turn.terminated {
		t.Error("turn should terminate on unknown tool")
	}

	last := (*events)[len(*events)-1]
	if last.Type != stream.EventError || !strings.Contains(last.Error, "unknown tool") {
		t.Errorf("last event = %+v, want unknown-tool error", last)
	}
}

func TestProcessStreamIgnoresMalformedFrames(t *testing.T) {
	p := newTestAnthropic(t)
	emit, events := collector()

	body := "data: {broken json\n\n" + sseBody(
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"ok"}}`,
	)

	if _, err := p.processStream(context.Background(), strings.NewReader(body), "", emit); err != nil {
		t.Fatalf("processStream failed: %v", err)
	}
	if len(*events) != 1 || (*events)[0].Content != "ok" {
		t.Errorf("events = %+v, want single ok chunk", *events)
	}
}

func TestAnthropicStreamChatToolLoop(t *testing.T) {
	exec, err := tools.NewExecutor(workspace.NewStore(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		body, _ := io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "text/event-stream")
		if requests == 1 {
			fmt.Fprint(w, sseBody(
				`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_1","name":"generate_code_diff"}}`,
				`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"old_code\":\"a\",\"new_code\":\"b\"}"}}`,
				`{"type":"content_block_stop","index":0}`,
				`{"type":"message_delta","delta":{"stop_reason":"tool_use"}}`,
				`{"type":"message_stop"}`,
			))
			return
		}

		// The follow-up request must feed the tool result back.
		if !strings.Contains(string(body), "tool_result") {
			t.Errorf("follow-up request missing tool_result: %s", body)
		}
		fmt.Fprint(w, sseBody(
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Here is the diff."}}`,
			`{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`,
			`{"type":"message_stop"}`,
		))
	}))
	defer server.Close()

	p := NewAnthropic("test-key", exec, Settings{MaxTokens: 1024})
	p.baseURL = server.URL

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
	if !collected[len(collected)-1].Terminal() {
		t.Error("stream did not end with a terminal event")
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2", requests)
	}
}

func TestAnthropicStreamChatUpstreamError(t *testing.T) {
	exec, err := tools.NewExecutor(workspace.NewStore(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewAnthropic("test-key", exec, Settings{MaxTokens: 1024})
	p.baseURL = server.URL

	events, err := p.StreamChat(context.Background(), ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("StreamChat failed: %v", err)
	}

	var collected []stream.Event
	for ev := range events {
		collected = append(collected, ev)
	}
	if len(collected) != 1 || collected[0].Type != stream.EventError {
		t.Fatalf("events = %+v, want single error", collected)
	}
	if !strings.Contains(collected[0].Error, "429") {
		t.Errorf("error = %q, want upstream status", collected[0].Error)
	}
}

func TestAnthropicStreamChatWithoutKey(t *testing.T) {
	p := newTestAnthropic(t)
	p.apiKey = ""

	if _, err := p.StreamChat(context.Background(), ChatRequest{Message: "hi"}); err == nil {
		t.Error("expected configuration error")
	}
}
