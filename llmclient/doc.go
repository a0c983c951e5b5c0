// Package llmclient provides a provider-agnostic LLM client used by the
// dossier orchestration engine. It normalizes every backend into a single
// wire-shaped Response (choices, finish reason, tool calls) so that the
// engine above it never has to absorb provider quirks.
//
// The package is organized around these concepts:
//
//   - Message / ToolCall: the flat chat-completions wire shapes shared by
//     conversation history, requests, and responses.
//   - ProviderAdapter: the interface every backend implements. Adapters own
//     all provider-specific translation; quirk bundles for model families
//     that need special request parameters live in the catalog.
//   - Client: routes requests to registered adapters and applies middleware.
//   - Retry: bounded retry with exponential backoff and jitter, driven by the
//     typed error taxonomy in errors.go (IsRetryable).
//
// Two adapters ship with the package: an OpenAI chat-completions adapter with
// native tool calling and delta streaming, and a gollm-backed adapter that
// flattens conversations into prompts for providers without a native
// tool-call wire format.
package llmclient
