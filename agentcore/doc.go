// Package agentcore implements a turn-bounded, tool-calling agent loop on
// top of the llmclient provider layer. The engine drives a model through a
// reason/call-tool/observe cycle until it produces a text-only answer, calls
// a designated finish tool, or exhausts its turn budget. Transient provider
// failures are retried with bounded attempts; when retries are exhausted the
// engine degrades to a tool-free JSON extraction pass instead of surfacing an
// error. A streaming variant emits the same run as an ordered event sequence
// for SSE-style consumers.
package agentcore
