package agentcore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// okObservation is returned to the model when a handler succeeds with no
// output.
const okObservation = "OK"

// Dispatcher resolves requested tool names against a registry, executes
// handlers, and converts every outcome into an observation string. It owns
// the run's audit trail of successfully invoked tools. A dispatcher belongs
// to exactly one run and is not safe for concurrent use.
type Dispatcher struct {
	registry   *Registry
	finishTool string
	outputs    map[string][]map[string]any
}

// NewDispatcher creates a dispatcher over the given registry. finishTool
// names the designated finish tool; its invocations appear in the audit map
// as a key with no recorded argument sets.
func NewDispatcher(registry *Registry, finishTool string) *Dispatcher {
	return &Dispatcher{
		registry:   registry,
		finishTool: finishTool,
		outputs:    make(map[string][]map[string]any),
	}
}

// Dispatch executes one requested tool call and returns the observation for
// the model. It never returns an error: unknown tools, unparseable
// arguments, and handler failures all become observation strings so the loop
// keeps going.
func (d *Dispatcher) Dispatch(ctx context.Context, name, rawArgs string) string {
	args := parseArguments(rawArgs)

	tool, ok := d.registry.Get(name)
	if !ok {
		return fmt.Sprintf("unknown tool: %s", name)
	}

	result, err := tool.Handler(ctx, args)
	if err != nil {
		log.Warn().Str("tool", name).Err(err).Msg("tool handler failed")
		return fmt.Sprintf("tool %s failed: %v", name, err)
	}

	d.record(name, args)

	if result == "" {
		return okObservation
	}
	return result
}

// Outputs returns the audit map of successfully invoked tools: tool name to
// the argument sets it was called with, in call order.
func (d *Dispatcher) Outputs() map[string][]map[string]any {
	return d.outputs
}

func (d *Dispatcher) record(name string, args map[string]any) {
	if name == d.finishTool {
		// Finish-tool invocations mark the key without recording arguments.
		if _, ok := d.outputs[name]; !ok {
			d.outputs[name] = []map[string]any{}
		}
		return
	}
	d.outputs[name] = append(d.outputs[name], args)
}

// parseArguments decodes the provider-supplied raw argument text. Anything
// that does not decode to an object is treated as an empty argument set so a
// malformed call still executes rather than failing the turn.
func parseArguments(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		log.Debug().Str("arguments", raw).Msg("unparseable tool arguments, using empty set")
		return map[string]any{}
	}
	return args
}
