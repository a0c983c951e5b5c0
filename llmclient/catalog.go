package llmclient

import "strings"

// ModelInfo describes a known model in the catalog.
type ModelInfo struct {
	ID                string   `json:"id"`
	Provider          string   `json:"provider"`
	DisplayName       string   `json:"display_name"`
	ContextWindow     int      `json:"context_window"`
	MaxOutput         *int     `json:"max_output,omitempty"`
	SupportsTools     bool     `json:"supports_tools"`
	SupportsReasoning bool     `json:"supports_reasoning"`
	Aliases           []string `json:"aliases,omitempty"`
}

func intPtr(v int) *int { return &v }

// Models is the built-in model catalog (February 2026).
var Models = []ModelInfo{
	// OpenAI
	{
		ID: "gpt-5.2", Provider: "openai", DisplayName: "GPT-5.2",
		ContextWindow: 1047576, MaxOutput: intPtr(32768),
		SupportsTools: true, SupportsReasoning: true,
		Aliases: []string{"gpt5"},
	},
	{
		ID: "gpt-5.2-mini", Provider: "openai", DisplayName: "GPT-5.2 Mini",
		ContextWindow: 1047576, MaxOutput: intPtr(16384),
		SupportsTools: true, SupportsReasoning: true,
		Aliases: []string{"gpt5-mini"},
	},

	// Anthropic
	{
		ID: "claude-opus-4-6", Provider: "anthropic", DisplayName: "Claude Opus 4.6",
		ContextWindow: 200000, MaxOutput: intPtr(32768),
		SupportsTools: true, SupportsReasoning: true,
		Aliases: []string{"opus", "claude-opus"},
	},
	{
		ID: "claude-sonnet-4-5", Provider: "anthropic", DisplayName: "Claude Sonnet 4.5",
		ContextWindow: 200000, MaxOutput: intPtr(16384),
		SupportsTools: true, SupportsReasoning: true,
		Aliases: []string{"sonnet", "claude-sonnet"},
	},

	// Gemini
	{
		ID: "gemini-3-pro-preview", Provider: "gemini", DisplayName: "Gemini 3 Pro (Preview)",
		ContextWindow: 1048576, MaxOutput: intPtr(65536),
		SupportsTools: true, SupportsReasoning: true,
		Aliases: []string{"gemini-pro", "gemini-3-pro"},
	},
	{
		ID: "gemini-3-flash-preview", Provider: "gemini", DisplayName: "Gemini 3 Flash (Preview)",
		ContextWindow: 1048576, MaxOutput: intPtr(65536),
		SupportsTools: true, SupportsReasoning: true,
		Aliases: []string{"gemini-flash", "gemini-3-flash"},
	},
}

// GetModelInfo returns the catalog entry for a model, or nil if unknown.
func GetModelInfo(modelID string) *ModelInfo {
	for i := range Models {
		if Models[i].ID == modelID {
			return &Models[i]
		}
		for _, alias := range Models[i].Aliases {
			if alias == modelID {
				return &Models[i]
			}
		}
	}
	return nil
}

// ListModels returns all known models, optionally filtered by provider.
func ListModels(provider string) []ModelInfo {
	if provider == "" {
		result := make([]ModelInfo, len(Models))
		copy(result, Models)
		return result
	}
	var result []ModelInfo
	for _, m := range Models {
		if m.Provider == provider {
			result = append(result, m)
		}
	}
	return result
}

// quirkBundle is a set of provider options merged into requests for a model
// family that needs special handling. match is a prefix on the resolved
// model ID.
type quirkBundle struct {
	match   string
	options map[string]any
}

// Known per-family request quirks. Tool-calling runs must not let reasoning
// models emit interleaved thinking blocks in place of tool calls, so the
// families that default to extended thinking get it disabled here.
var quirkBundles = []quirkBundle{
	{
		match: "gemini-3",
		options: map[string]any{
			"thinking_config": map[string]any{"thinking_budget": 0},
		},
	},
	{
		match: "claude-opus",
		options: map[string]any{
			"thinking": map[string]any{"type": "disabled"},
		},
	},
}

// ApplyQuirks merges the quirk bundle for the request's model family into
// ProviderOptions. Options already set on the request win. Unknown models
// pass through unchanged.
func ApplyQuirks(req Request) Request {
	model := req.Model
	if info := GetModelInfo(model); info != nil {
		model = info.ID
	}
	for _, qb := range quirkBundles {
		if !strings.HasPrefix(model, qb.match) {
			continue
		}
		merged := make(map[string]any, len(qb.options)+len(req.ProviderOptions))
		for k, v := range qb.options {
			merged[k] = v
		}
		for k, v := range req.ProviderOptions {
			merged[k] = v
		}
		req.ProviderOptions = merged
		return req
	}
	return req
}
