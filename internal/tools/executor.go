// Package tools implements the tool catalog exposed to language models and
// the executor that validates and dispatches tool invocations.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"codex-assistant/internal/workspace"
)

// Generator produces text from a prompt. It is how generator-backed tools
// reach back into the model layer without the executor depending on it.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Handler executes a single tool invocation. Arguments have already been
// validated against the tool's schema when a handler runs.
type Handler func(ctx context.Context, args map[string]any, workingDir string) (Result, error)

// Definition describes a registered tool for model adapters and the catalog
// endpoint. Schema is a JSON Schema object for the tool's arguments.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}

// UnknownToolError reports an invocation of a tool that is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// InvalidArgumentsError reports arguments that failed schema validation.
type InvalidArgumentsError struct {
	Tool   string
	Detail string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: %s", e.Tool, e.Detail)
}

// HandlerError wraps a failure inside a tool handler.
type HandlerError struct {
	Tool string
	Err  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

type registeredTool struct {
	def      Definition
	compiled *jsonschema.Schema
	handler  Handler
}

// Executor holds the tool registry and dispatches invocations. It is safe
// for concurrent use after construction; SetGenerator must be called before
// any request is served.
type Executor struct {
	store *workspace.Store
	gen   Generator

	tools map[string]*registeredTool
	order []string
}

// NewExecutor builds an executor with the full builtin tool set registered.
func NewExecutor(store *workspace.Store) (*Executor, error) {
	e := &Executor{
		store: store,
		tools: make(map[string]*registeredTool),
	}
	if err := e.registerBuiltins(); err != nil {
		return nil, err
	}
	return e, nil
}

// SetGenerator injects the text generator used by tools that need model
// output, such as modify_file_with_diff. It breaks the construction cycle
// between the executor and the model adapters.
func (e *Executor) SetGenerator(gen Generator) {
	e.gen = gen
}

func (e *Executor) register(name, description string, schema map[string]any, h Handler) error {
	compiled, err := compileSchema(schema)
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", name, err)
	}
	e.tools[name] = &registeredTool{
		def:      Definition{Name: name, Description: description, Schema: schema},
		compiled: compiled,
		handler:  h,
	}
	e.order = append(e.order, name)
	return nil
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return nil, err
	}
	return c.Compile("schema.json")
}

// Definitions returns the registered tools in registration order.
func (e *Executor) Definitions() []Definition {
	defs := make([]Definition, 0, len(e.order))
	for _, name := range e.order {
		defs = append(defs, e.tools[name].def)
	}
	return defs
}

// Has reports whether a tool with the given name is registered.
func (e *Executor) Has(name string) bool {
	_, ok := e.tools[name]
	return ok
}

// Execute validates the arguments against the tool's schema and runs the
// handler. Failures are classified so callers can distinguish an unknown
// tool, bad arguments, and a handler failure.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any, workingDir string) (result Result, err error) {
	tool, ok := e.tools[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}

	if args == nil {
		args = map[string]any{}
	}
	instance, convErr := toJSONInstance(args)
	if convErr != nil {
		return nil, &InvalidArgumentsError{Tool: name, Detail: convErr.Error()}
	}
	if vErr := tool.compiled.Validate(instance); vErr != nil {
		return nil, &InvalidArgumentsError{Tool: name, Detail: vErr.Error()}
	}

	// A panicking handler must not take the stream down with it.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("tool %s panicked: %v", name, r)
			result = nil
			err = &HandlerError{Tool: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	result, hErr := tool.handler(ctx, args, workingDir)
	if hErr != nil {
		return nil, &HandlerError{Tool: name, Err: hErr}
	}
	return result, nil
}

// toJSONInstance normalizes arguments to the value shapes the validator
// expects, matching what json.Unmarshal would have produced.
func toJSONInstance(args map[string]any) (any, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, err
	}
	return instance, nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func stringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
