package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
	"unicode/utf8"

	"codex-assistant/internal/provider"
	"codex-assistant/internal/stream"
)

const maxMessageLength = 10000

// ToolCallRequest asks for a direct tool execution, bypassing the model.
type ToolCallRequest struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
}

// ChatRequestBody is the body of POST /api/chat.
type ChatRequestBody struct {
	Message  string                `json:"message"`
	Model    string                `json:"model"`
	Context  *provider.ChatContext `json:"context,omitempty"`
	ToolCall *ToolCallRequest      `json:"tool_call,omitempty"`
}

// handleChat validates the request synchronously, then answers with a
// server-sent event stream. Validation failures are plain 400/503 responses;
// once the stream is open all failures are in-band error events.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	length := utf8.RuneCountInString(req.Message)
	if length == 0 {
		writeBadRequest(w, "Message is required")
		return
	}
	if length > maxMessageLength {
		writeBadRequest(w, fmt.Sprintf("Message exceeds %d characters", maxMessageLength))
		return
	}

	p, ok := s.registry.Lookup(req.Model)
	if !ok {
		writeBadRequest(w, fmt.Sprintf("Unsupported model: %s", req.Model))
		return
	}
	if !p.Available() {
		writeError(w, http.StatusServiceUnavailable,
			fmt.Sprintf("%s service not available (API key not configured)", p.Name()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	var events <-chan stream.Event
	if req.ToolCall != nil {
		events = s.directToolCall(ctx, req.ToolCall, req.Context)
	} else {
		var err error
		events, err = p.StreamChat(ctx, provider.ChatRequest{
			Message: req.Message,
			Context: req.Context,
		})
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}

	s.streamEvents(w, r, events)
}

// streamEvents is the single writer of the response. Events and heartbeats
// are serialized through one select loop so frames never interleave.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request, events <-chan stream.Event) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(s.config.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case ev, open := <-events:
			if !open {
				return
			}
			frame, err := stream.Encode(ev)
			if err != nil {
				log.Printf("failed to encode stream event: %v", err)
				continue
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()

		case <-heartbeat.C:
			if _, err := w.Write(stream.Heartbeat()); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// directToolCall runs one tool without a model round trip, wrapped in the
// same event lifecycle a model-initiated invocation would produce.
func (s *Server) directToolCall(ctx context.Context, call *ToolCallRequest, chatCtx *provider.ChatContext) <-chan stream.Event {
	workingDir := ""
	if chatCtx != nil {
		workingDir = chatCtx.WorkingDirectory
	}

	events := make(chan stream.Event, 16)
	go func() {
		defer close(events)

		events <- stream.ToolStatusEvent(call.ToolName, stream.ToolExecuting)

		result, err := s.executor.Execute(ctx, call.ToolName, call.Parameters, workingDir)
		if err != nil {
			events <- stream.ToolStatusEvent(call.ToolName, stream.ToolFailed)
			events <- stream.Errorf("Tool execution failed: %v", err)
			return
		}

		ev, err := stream.ToolResultEvent(call.ToolName, result)
		if err != nil {
			events <- stream.ToolStatusEvent(call.ToolName, stream.ToolFailed)
			events <- stream.Errorf("Tool execution failed: %v", err)
			return
		}

		events <- ev
		events <- stream.ToolStatusEvent(call.ToolName, stream.ToolCompleted)
		events <- stream.Done()
	}()
	return events
}
