package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"codex-assistant/internal/stream"
	"codex-assistant/internal/tools"
)

const openaiModel = "gpt-4o"

// OpenAI streams chat turns through the OpenAI Chat Completions API.
type OpenAI struct {
	client   *openai.Client
	apiKey   string
	settings Settings
	exec     *tools.Executor
}

// NewOpenAI builds the OpenAI adapter.
func NewOpenAI(apiKey string, exec *tools.Executor, settings Settings) *OpenAI {
	p := &OpenAI{
		apiKey:   apiKey,
		settings: settings,
		exec:     exec,
	}
	if apiKey != "" {
		p.client = openai.NewClient(apiKey)
	}
	return p
}

// NewOpenAIWithClient builds the adapter around an existing client, which
// lets tests point it at a local server.
func NewOpenAIWithClient(client *openai.Client, exec *tools.Executor, settings Settings) *OpenAI {
	return &OpenAI{
		client:   client,
		apiKey:   "test",
		settings: settings,
		exec:     exec,
	}
}

func (p *OpenAI) Name() string { return "openai" }

func (p *OpenAI) ModelID() string { return openaiModel }

func (p *OpenAI) Available() bool { return p.apiKey != "" }

// StreamChat opens a streaming chat turn. Configuration problems are
// returned synchronously; upstream and tool failures are reported in-band.
func (p *OpenAI) StreamChat(ctx context.Context, req ChatRequest) (<-chan stream.Event, error) {
	if p.client == nil {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if folded := contextMessage(req.Context); folded != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: folded,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Message,
	})

	events := make(chan stream.Event, 100)
	go func() {
		defer close(events)
		p.run(ctx, messages, workingDirectory(req.Context), events)
	}()
	return events, nil
}

// run drives the model/tool loop until the model stops asking for tools.
func (p *OpenAI) run(ctx context.Context, messages []openai.ChatCompletionMessage, workingDir string, events chan<- stream.Event) {
	emit := emitter(ctx, events)

	for round := 0; round < maxToolRounds; round++ {
		assistantMsg, toolCalls, terminated, err := p.streamOnce(ctx, messages, emit)
		if err != nil {
			emit(stream.Errorf("OpenAI API error: %v", err))
			return
		}
		if terminated {
			return
		}

		if len(toolCalls) == 0 {
			emit(stream.Done())
			return
		}

		messages = append(messages, assistantMsg)
		for _, call := range toolCalls {
			args := map[string]any{}
			if call.Function.Arguments != "" {
				if jsonErr := json.Unmarshal([]byte(call.Function.Arguments), &args); jsonErr != nil {
					emit(stream.ToolStatusEvent(call.Function.Name, stream.ToolFailed))
					emit(stream.Errorf("Tool execution failed: invalid arguments for %s: %v", call.Function.Name, jsonErr))
					return
				}
			}

			resultJSON, ok := runTool(ctx, p.exec, emit, call.Function.Name, args, workingDir)
			if !ok {
				return
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    resultJSON,
				ToolCallID: call.ID,
			})
		}
	}

	emit(stream.Errorf("tool call limit reached"))
}

// streamOnce makes one streaming request and collects any tool calls the
// model assembles across chunks. Argument fragments without an ID belong to
// the most recently started call.
func (p *OpenAI) streamOnce(ctx context.Context, messages []openai.ChatCompletionMessage, emit func(stream.Event) bool) (openai.ChatCompletionMessage, []openai.ToolCall, bool, error) {
	assistantMsg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant}

	req := openai.ChatCompletionRequest{
		Model:       openaiModel,
		Temperature: p.settings.Temperature,
		MaxTokens:   p.settings.MaxTokens,
		Messages:    messages,
		Tools:       p.toolDefinitions(),
		Stream:      true,
	}

	completionStream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return assistantMsg, nil, false, err
	}
	defer completionStream.Close()

	var contentBuffer strings.Builder
	toolCalls := make(map[string]*openai.ToolCall)
	var callOrder []string
	lastCallID := ""

	for {
		response, err := completionStream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return assistantMsg, nil, false, fmt.Errorf("error receiving stream data: %v", err)
		}
		if len(response.Choices) == 0 {
			continue
		}
		delta := response.Choices[0].Delta

		if delta.Content != "" {
			contentBuffer.WriteString(delta.Content)
			if !emit(stream.AIChunk(delta.Content)) {
				return assistantMsg, nil, true, nil
			}
		}

		for _, call := range delta.ToolCalls {
			switch {
			case call.ID != "":
				lastCallID = call.ID
				if existing, ok := toolCalls[call.ID]; ok {
					existing.Function.Arguments += call.Function.Arguments
					continue
				}
				toolCalls[call.ID] = &openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Function.Name,
						Arguments: call.Function.Arguments,
					},
				}
				callOrder = append(callOrder, call.ID)
				if call.Function.Name != "" {
					if !emit(stream.ToolStatusEvent(call.Function.Name, stream.ToolExecuting)) {
						return assistantMsg, nil, true, nil
					}
				}
			case lastCallID != "":
				toolCalls[lastCallID].Function.Arguments += call.Function.Arguments
			}
		}
	}

	assistantMsg.Content = contentBuffer.String()

	ordered := make([]openai.ToolCall, 0, len(callOrder))
	for _, id := range callOrder {
		ordered = append(ordered, *toolCalls[id])
	}
	if len(ordered) > 0 {
		assistantMsg.ToolCalls = ordered
	}
	return assistantMsg, ordered, false, nil
}

func (p *OpenAI) toolDefinitions() []openai.Tool {
	defs := p.exec.Definitions()
	out := make([]openai.Tool, 0, len(defs))
	for _, def := range defs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Schema,
			},
		})
	}
	return out
}

// GenerateText makes a non-streaming completion request.
func (p *OpenAI) GenerateText(ctx context.Context, prompt string) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       openaiModel,
		Temperature: p.settings.Temperature,
		MaxTokens:   p.settings.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI text generation error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
