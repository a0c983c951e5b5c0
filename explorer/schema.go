package explorer

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// schemaFor generates the JSON-Schema parameter object for a tool from its
// argument struct, with definitions expanded inline.
func schemaFor(v any) map[string]any {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(v)
	schema.Version = ""
	if schema.Type == "" {
		schema.Type = "object"
	}

	b, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	delete(out, "additionalProperties")
	return out
}
