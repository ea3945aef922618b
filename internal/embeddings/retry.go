package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy is an explicit, inspectable retry policy applied to embedding
// calls. All fields are plain values so a policy can be asserted on in
// tests independently of any call site.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Delay is the fixed wait between attempts.
	Delay time.Duration
	// Retryable decides whether an error is worth another attempt.
	// Nil means every error is retryable.
	Retryable func(error) bool
}

// DefaultPolicy retries three times with a fixed two second wait.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 2 * time.Second}
}

// EmbedError is returned when a text could not be embedded after the
// policy's attempts were exhausted. Callers treat it as "skip this item",
// not as a fatal failure.
type EmbedError struct {
	Attempts int
	Err      error
}

func (e *EmbedError) Error() string {
	return fmt.Sprintf("embedding failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *EmbedError) Unwrap() error { return e.Err }

// RetryEmbedder wraps an Embedder with a Policy. A single text is retried
// per the policy; exhaustion yields an *EmbedError.
type RetryEmbedder struct {
	inner  Embedder
	policy Policy
	logger *slog.Logger
}

// NewRetryEmbedder wraps the given embedder with the given retry policy.
func NewRetryEmbedder(inner Embedder, policy Policy, logger *slog.Logger) *RetryEmbedder {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryEmbedder{inner: inner, policy: policy, logger: logger}
}

func (r *RetryEmbedder) Name() string    { return r.inner.Name() }
func (r *RetryEmbedder) Dimensions() int { return r.inner.Dimensions() }

// Embed delegates to the wrapped embedder without retries; use EmbedOne for
// per-item retry semantics.
func (r *RetryEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return r.inner.Embed(ctx, texts)
}

// EmbedOne embeds a single text, retrying per the policy. Context
// cancellation aborts immediately and is returned as-is, not wrapped.
func (r *RetryEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vectors, err := r.inner.Embed(ctx, []string{text})
		if err == nil {
			if len(vectors) != 1 {
				return nil, &EmbedError{Attempts: attempt, Err: fmt.Errorf("embedder returned %d vectors for one text", len(vectors))}
			}
			return vectors[0], nil
		}
		lastErr = err

		if r.policy.Retryable != nil && !r.policy.Retryable(err) {
			return nil, &EmbedError{Attempts: attempt, Err: err}
		}

		if attempt == r.policy.MaxAttempts {
			break
		}

		r.logger.Debug("embedding attempt failed, retrying",
			"attempt", attempt, "max_attempts", r.policy.MaxAttempts, "error", err)

		timer := time.NewTimer(r.policy.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, &EmbedError{Attempts: r.policy.MaxAttempts, Err: lastErr}
}
