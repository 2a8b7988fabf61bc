// Package stream defines the wire format for chat stream events and the
// server-sent-events framing used to carry them to the browser.
package stream

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType identifies one kind of stream event.
type EventType string

// Stream event types.
const (
	EventAIChunk    EventType = "ai_chunk"
	EventToolStatus EventType = "tool_status"
	EventToolResult EventType = "tool_result"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

// ToolStatus is the lifecycle state of one tool invocation.
type ToolStatus string

// Tool invocation states. Executing always precedes exactly one of the
// terminal states for a given invocation.
const (
	ToolExecuting ToolStatus = "executing"
	ToolCompleted ToolStatus = "completed"
	ToolFailed    ToolStatus = "failed"
)

// Event is one unit of streamed information. Exactly the fields relevant
// to the event type are populated; the rest are omitted on the wire.
type Event struct {
	Type      EventType       `json:"type"`
	Content   string          `json:"content,omitempty"`
	Tool      string          `json:"tool,omitempty"`
	Status    ToolStatus      `json:"status,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// Terminal reports whether no further events may follow this one.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// AIChunk builds an incremental assistant text event.
func AIChunk(content string) Event {
	return Event{Type: EventAIChunk, Content: content, Timestamp: now()}
}

// ToolStatusEvent builds a tool lifecycle marker.
func ToolStatusEvent(tool string, status ToolStatus) Event {
	return Event{Type: EventToolStatus, Tool: tool, Status: status, Timestamp: now()}
}

// ToolResultEvent builds a tool result event carrying the JSON-encoded result.
func ToolResultEvent(tool string, result any) (Event, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode result for tool %s: %w", tool, err)
	}
	return Event{Type: EventToolResult, Tool: tool, Result: data, Timestamp: now()}, nil
}

// Done builds the terminal success marker.
func Done() Event {
	return Event{Type: EventDone, Timestamp: now()}
}

// Errorf builds a terminal error event.
func Errorf(format string, args ...any) Event {
	return Event{Type: EventError, Error: fmt.Sprintf(format, args...), Timestamp: now()}
}

func now() int64 {
	return time.Now().UnixMilli()
}
