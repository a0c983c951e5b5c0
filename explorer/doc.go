// Package explorer runs specialized agent loops that mine unstructured
// evidence sources into structured dossier reports. Each explorer owns a
// run-scoped accumulator, exposes a large save_*/browse tool set bound to it,
// and always produces a best-effort ExplorerReport, degrading through
// fallback JSON recovery rather than failing.
package explorer
