// Package client consumes a chat event stream and reconstructs conversation
// state from it: assistant text accumulates across chunks, tool results are
// folded in through per-tool reducers, and file modifications pause in a
// review state until the user approves or rejects them.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"codex-assistant/internal/stream"
	"codex-assistant/internal/tools"
)

// Role identifies who authored a chat turn.
type Role string

// Chat turn roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is one rendered message in the conversation.
type ChatTurn struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// PendingModification is a proposed file change awaiting user review. No
// file is written until Approve is called.
type PendingModification struct {
	FilePath         string
	OriginalContent  string
	ModifiedContent  string
	Diff             tools.CodeDiffResult
	Summary          string
	WorkingDirectory string
}

// FileService applies approved file modifications.
type FileService interface {
	Write(path, content, workingDirectory string) error
}

// Consumer state errors.
var (
	ErrBusy      = errors.New("a response is already being generated")
	ErrNoPending = errors.New("no modification awaiting review")
)

// Consumer folds stream events into conversation state. All mutation goes
// through one mutex-guarded path, so events, approvals, and reads never
// race. Events arriving after a terminal done or error are ignored.
type Consumer struct {
	mu    sync.Mutex
	files FileService

	turns            []ChatTurn
	assistantText    string
	hasAssistantTurn bool
	assistantIdx     int

	pending    *PendingModification
	workingDir string
	generating bool
	terminated bool
	errs       []string
}

// NewConsumer returns a consumer that applies approved modifications
// through files.
func NewConsumer(files FileService) *Consumer {
	return &Consumer{files: files}
}

// Begin records the user's message and resets per-response state. It fails
// with ErrBusy while a previous response is still being generated, so two
// streams can never interleave into one accumulator.
func (c *Consumer) Begin(message, workingDirectory string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generating {
		return ErrBusy
	}

	c.turns = append(c.turns, ChatTurn{
		ID:      uuid.NewString(),
		Role:    RoleUser,
		Content: message,
	})
	c.assistantText = ""
	c.hasAssistantTurn = false
	c.workingDir = workingDirectory
	c.generating = true
	c.terminated = false
	return nil
}

// Apply folds one stream event into the conversation state.
func (c *Consumer) Apply(ev stream.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminated {
		return
	}

	switch ev.Type {
	case stream.EventAIChunk:
		c.assistantText += ev.Content
		c.upsertAssistantTurn()

	case stream.EventToolResult:
		c.applyToolResult(ev.Tool, ev.Result)

	case stream.EventToolStatus:
		// Lifecycle markers carry no renderable state.

	case stream.EventError:
		c.terminated = true
		c.generating = false
		c.errs = append(c.errs, ev.Error)
		if !c.hasAssistantTurn {
			c.assistantText = "Something went wrong while generating a response."
			c.upsertAssistantTurn()
		}

	case stream.EventDone:
		c.terminated = true
		c.generating = false
	}
}

// Consume reads a fragmented event stream until EOF, applying every decoded
// event. A stream that ends without a terminal event is treated as an error
// so the consumer never stays stuck in the generating state.
func (c *Consumer) Consume(r io.Reader) error {
	var dec stream.Decoder
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			for _, ev := range dec.Push(buf[:n]) {
				c.Apply(ev)
			}
		}
		if err != nil {
			if err != io.EOF {
				c.Apply(stream.Errorf("stream read failed: %v", err))
				return err
			}
			break
		}
	}

	c.mu.Lock()
	ended := c.terminated
	c.mu.Unlock()
	if !ended {
		c.Apply(stream.Errorf("stream ended before completion"))
	}
	return nil
}

// Approve applies the pending modification through the file service and
// appends the outcome to the assistant turn.
func (c *Consumer) Approve() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return ErrNoPending
	}
	p := c.pending
	c.pending = nil

	if err := c.files.Write(p.FilePath, p.ModifiedContent, p.WorkingDirectory); err != nil {
		c.appendNotice(fmt.Sprintf("Failed to apply changes to %s: %v", p.FilePath, err))
		return err
	}
	c.appendNotice(fmt.Sprintf("Applied changes to %s.", p.FilePath))
	return nil
}

// Reject discards the pending modification without writing anything.
func (c *Consumer) Reject() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return ErrNoPending
	}
	path := c.pending.FilePath
	c.pending = nil
	c.appendNotice(fmt.Sprintf("Rejected changes to %s.", path))
	return nil
}

// Turns returns a snapshot of the conversation.
func (c *Consumer) Turns() []ChatTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChatTurn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Pending returns the modification awaiting review, if any.
func (c *Consumer) Pending() (PendingModification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return PendingModification{}, false
	}
	return *c.pending, true
}

// Generating reports whether a response stream is still in progress.
func (c *Consumer) Generating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generating
}

// Errors returns the stream errors surfaced so far.
func (c *Consumer) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.errs))
	copy(out, c.errs)
	return out
}

// upsertAssistantTurn creates the assistant turn on first content, then
// replaces its content with the full accumulated text on every later
// update. The turn always shows the cumulative string, never a delta.
func (c *Consumer) upsertAssistantTurn() {
	if !c.hasAssistantTurn {
		c.turns = append(c.turns, ChatTurn{
			ID:      uuid.NewString(),
			Role:    RoleAssistant,
			Content: c.assistantText,
		})
		c.assistantIdx = len(c.turns) - 1
		c.hasAssistantTurn = true
		return
	}
	c.turns[c.assistantIdx].Content = c.assistantText
}

// appendNotice adds a summary line to the assistant text, separated from
// earlier content by a blank line.
func (c *Consumer) appendNotice(notice string) {
	if c.assistantText != "" {
		c.assistantText += "\n\n" + notice
	} else {
		c.assistantText = notice
	}
	c.upsertAssistantTurn()
}

// applyToolResult renders one tool result into the conversation. Unknown
// tools fall back to a generic notice naming the tool, so no result is
// ever silently dropped.
func (c *Consumer) applyToolResult(tool string, raw json.RawMessage) {
	switch tool {
	case "modify_file_with_diff":
		var r tools.FileModificationResult
		if err := json.Unmarshal(raw, &r); err != nil {
			c.appendNotice(fmt.Sprintf("Tool %s returned an unreadable result.", tool))
			return
		}
		c.openModification(r)

	case "generate_code_diff":
		var r tools.CodeDiffResult
		if err := json.Unmarshal(raw, &r); err != nil {
			c.appendNotice(fmt.Sprintf("Tool %s returned an unreadable result.", tool))
			return
		}
		c.appendNotice(fmt.Sprintf("Generated a diff: +%d/-%d lines, %d changed.",
			r.Summary.LinesAdded, r.Summary.LinesRemoved, r.Summary.LinesChanged))

	case "generate_documentation":
		var r tools.DocumentationResult
		if err := json.Unmarshal(raw, &r); err != nil {
			c.appendNotice(fmt.Sprintf("Tool %s returned an unreadable result.", tool))
			return
		}
		c.appendNotice(fmt.Sprintf("Generated %s documentation (%d words).", r.DocType, r.WordCount))

	case "generate_multiple_documentation":
		var r tools.MultiDocumentationResult
		if err := json.Unmarshal(raw, &r); err != nil {
			c.appendNotice(fmt.Sprintf("Tool %s returned an unreadable result.", tool))
			return
		}
		lines := make([]string, 0, len(r.Results))
		for _, out := range r.Results {
			if out.Error != "" {
				lines = append(lines, fmt.Sprintf("%s: failed (%s)", out.DocType, out.Error))
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: written to %s", out.DocType, out.FilePath))
		}
		c.appendNotice("Generated documentation:\n" + strings.Join(lines, "\n"))

	case "analyze_code_structure":
		var r tools.CodeAnalysisResult
		if err := json.Unmarshal(raw, &r); err != nil {
			c.appendNotice(fmt.Sprintf("Tool %s returned an unreadable result.", tool))
			return
		}
		c.appendNotice(fmt.Sprintf(
			"Code analysis: %d functions, %d classes, complexity %d, maintainability %.0f.",
			len(r.Structure.Functions), len(r.Structure.Classes),
			r.Metrics.Complexity, r.Metrics.MaintainabilityScore))

	case "refactor_code":
		var r tools.RefactorResult
		if err := json.Unmarshal(raw, &r); err != nil {
			c.appendNotice(fmt.Sprintf("Tool %s returned an unreadable result.", tool))
			return
		}
		c.appendNotice(fmt.Sprintf("Applied %s refactoring with %d changes.",
			r.RefactorType, len(r.Changes)))

	case "read_file":
		var r tools.FileContentResult
		if err := json.Unmarshal(raw, &r); err != nil {
			c.appendNotice(fmt.Sprintf("Tool %s returned an unreadable result.", tool))
			return
		}
		c.appendNotice(fmt.Sprintf("Read %d characters from the file.", len(r.Content)))

	case "write_file":
		var r tools.WriteResult
		if err := json.Unmarshal(raw, &r); err != nil {
			c.appendNotice(fmt.Sprintf("Tool %s returned an unreadable result.", tool))
			return
		}
		c.appendNotice(r.Message)

	case "list_directory":
		var r tools.TreeResult
		if err := json.Unmarshal(raw, &r); err != nil {
			c.appendNotice(fmt.Sprintf("Tool %s returned an unreadable result.", tool))
			return
		}
		c.appendNotice(fmt.Sprintf("Listed %d entries.", len(r.Tree)))

	case "generate_code":
		var r tools.GeneratedCodeResult
		if err := json.Unmarshal(raw, &r); err != nil {
			c.appendNotice(fmt.Sprintf("Tool %s returned an unreadable result.", tool))
			return
		}
		lines := make([]string, 0, len(r.Items))
		for _, item := range r.Items {
			lines = append(lines, fmt.Sprintf("%s: %s", item.FilePath, item.Message))
		}
		c.appendNotice("Generated code:\n" + strings.Join(lines, "\n"))

	case "security_analysis":
		var r tools.SecurityAnalysisResult
		if err := json.Unmarshal(raw, &r); err != nil {
			c.appendNotice(fmt.Sprintf("Tool %s returned an unreadable result.", tool))
			return
		}
		c.appendNotice(fmt.Sprintf(
			"Security analysis: %d issues (%d critical, %d high), score %.0f.",
			len(r.Issues), r.Summary["critical"], r.Summary["high"], r.SecurityScore))

	case "comprehensive_code_review":
		var r tools.CodeReviewResult
		if err := json.Unmarshal(raw, &r); err != nil {
			c.appendNotice(fmt.Sprintf("Tool %s returned an unreadable result.", tool))
			return
		}
		c.appendNotice(fmt.Sprintf(
			"Code review (%s): score %.0f, %d issues, %d priority fixes.",
			r.ReviewFocus, r.OverallScore, len(r.Issues), len(r.PriorityFixes)))

	case "smart_code_action":
		var r tools.SmartActionResult
		if err := json.Unmarshal(raw, &r); err != nil {
			c.appendNotice(fmt.Sprintf("Tool %s returned an unreadable result.", tool))
			return
		}
		c.applySmartAction(r)

	default:
		c.appendNotice(fmt.Sprintf("Tool %s executed.", tool))
	}
}

// applySmartAction renders the payload matching the chosen strategy. A
// modification payload goes through the same review gate as
// modify_file_with_diff.
func (c *Consumer) applySmartAction(r tools.SmartActionResult) {
	switch {
	case r.Modification != nil:
		c.openModification(*r.Modification)
	case r.Refactor != nil:
		c.appendNotice(fmt.Sprintf("Smart action applied %s refactoring to %s with %d changes.",
			r.Refactor.RefactorType, r.FilePath, len(r.Refactor.Changes)))
	case r.Security != nil:
		c.appendNotice(fmt.Sprintf("Smart action ran a security scan on %s: %d issues, score %.0f.",
			r.FilePath, len(r.Security.Issues), r.Security.SecurityScore))
	case r.Analysis != nil:
		c.appendNotice(fmt.Sprintf("Smart action analyzed %s: complexity %d, maintainability %.0f.",
			r.FilePath, r.Analysis.Metrics.Complexity, r.Analysis.Metrics.MaintainabilityScore))
	default:
		c.appendNotice(fmt.Sprintf("Smart action completed on %s (%s).", r.FilePath, r.Strategy.Type))
	}
}

// openModification puts a proposal into the review state. A proposal that
// arrives while another is still unresolved replaces it, with an explicit
// discard notice so the replaced one does not vanish silently.
func (c *Consumer) openModification(r tools.FileModificationResult) {
	if c.pending != nil {
		c.appendNotice(fmt.Sprintf("Discarded unreviewed changes to %s.", c.pending.FilePath))
	}
	c.pending = &PendingModification{
		FilePath:         r.FilePath,
		OriginalContent:  r.OriginalContent,
		ModifiedContent:  r.ModifiedContent,
		Diff:             r.Diff,
		Summary:          r.ModificationSummary,
		WorkingDirectory: c.workingDir,
	}
	c.appendNotice(fmt.Sprintf("Proposed changes to %s, awaiting your review.", r.FilePath))
}
