package llm

import "context"

// Stream is a one-shot sequence of text deltas from a streaming completion.
// Recv returns io.EOF once the upstream service signals end-of-stream; a
// stream is never restartable. Close releases the underlying connection and
// must be called exactly once.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// CompleteStream sends a completion request and returns a stream of
	// text deltas. Cancelling ctx aborts the stream.
	CompleteStream(ctx context.Context, req CompletionRequest) (Stream, error)

	// Name returns the name of this provider.
	Name() string
}
