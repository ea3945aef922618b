package vectordb

import "context"

// Store defines the vector similarity store contract. Collections are
// partitioned by repository id; writes are idempotent by document id.
type Store interface {
	// Upsert adds or replaces documents in the repository's collection.
	Upsert(ctx context.Context, repoID string, docs []Document) error

	// Query returns up to topK documents nearest to the question, in
	// descending similarity order. Fewer are returned if the collection
	// holds fewer.
	Query(ctx context.Context, repoID string, question string, topK int) ([]SearchResult, error)

	// Count returns the number of documents stored for the repository.
	Count(repoID string) int

	// Persist saves the store's data under the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error
}
