package agentcore

import (
	"context"

	"github.com/dossierlab/dossier/llmclient"
)

// Handler executes one tool invocation with parsed arguments and returns the
// observation text for the model. An empty return with a nil error is
// reported to the model as "OK". Errors never abort the run; the dispatcher
// converts them into observation strings.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Tool is a named, invocable capability offered to the model for one run.
// Parameters is a JSON-Schema-shaped object describing accepted arguments.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     Handler
}

// Registry holds the tool set for a single run. Registration order is
// preserved so the definitions sent to the provider are deterministic.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry creates a registry from the given tools. Later tools with the
// same name replace earlier ones.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// Definitions returns the schema-only tool descriptions to send to the
// provider, in registration order.
func (r *Registry) Definitions() []llmclient.ToolDefinition {
	defs := make([]llmclient.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		params := t.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		defs = append(defs, llmclient.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  params,
		})
	}
	return defs
}

// StringArg extracts a string argument from parsed tool arguments.
func StringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// FloatArg extracts a numeric argument from parsed tool arguments.
func FloatArg(args map[string]any, key string) (float64, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// IntArg extracts an integer argument from parsed tool arguments. JSON
// numbers decode as float64, so integral floats are accepted.
func IntArg(args map[string]any, key string) (int, bool) {
	f, ok := FloatArg(args, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}
