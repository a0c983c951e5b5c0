package llmclient

import "context"

// ProviderAdapter is the interface every provider backend must implement.
// Adapters translate between the normalized types in this package and the
// provider's native API, including error translation into the taxonomy in
// errors.go.
type ProviderAdapter interface {
	// Name returns the provider identifier (e.g. "openai", "anthropic").
	Name() string

	// Complete sends a blocking request and returns the normalized response.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Stream sends a request and returns a channel of stream events. The
	// channel is closed after the final event.
	Stream(ctx context.Context, req Request) (<-chan StreamEvent, error)
}

// Closer is implemented by adapters that hold resources.
type Closer interface {
	Close() error
}
