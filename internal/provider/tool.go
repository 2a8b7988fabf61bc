package provider

import (
	"context"

	"codex-assistant/internal/stream"
	"codex-assistant/internal/tools"
)

// maxToolRounds bounds the number of model/tool round trips in one chat
// turn so a confused model cannot loop forever.
const maxToolRounds = 5

// emitter wraps the event channel so producers stop instead of blocking
// when the consumer has gone away.
func emitter(ctx context.Context, events chan<- stream.Event) func(stream.Event) bool {
	return func(ev stream.Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
}

// runTool executes one tool invocation and emits its lifecycle events. On
// success it returns the serialized result for feeding back upstream. ok is
// false when the stream must terminate: a failed tool ends the turn with a
// terminal error.
func runTool(ctx context.Context, exec *tools.Executor, emit func(stream.Event) bool, name string, args map[string]any, workingDir string) (resultJSON string, ok bool) {
	result, err := exec.Execute(ctx, name, args, workingDir)
	if err != nil {
		emit(stream.ToolStatusEvent(name, stream.ToolFailed))
		emit(stream.Errorf("Tool execution failed: %v", err))
		return "", false
	}

	ev, err := stream.ToolResultEvent(name, result)
	if err != nil {
		emit(stream.ToolStatusEvent(name, stream.ToolFailed))
		emit(stream.Errorf("Tool execution failed: %v", err))
		return "", false
	}

	if !emit(ev) {
		return "", false
	}
	if !emit(stream.ToolStatusEvent(name, stream.ToolCompleted)) {
		return "", false
	}
	return string(ev.Result), true
}
