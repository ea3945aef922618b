package ingest

import "github.com/Encore7/codebase-explainer-agent/internal/gitwalk"

// Batcher groups change records into fixed-size batches, preserving
// arrival order. It holds at most size-1 records between calls.
type Batcher struct {
	size  int
	items []gitwalk.ChangeRecord
}

// NewBatcher creates a batcher producing batches of exactly size records,
// except possibly the final flushed remainder.
func NewBatcher(size int) *Batcher {
	if size < 1 {
		size = 1
	}
	return &Batcher{size: size}
}

// Add appends a record. When the batch boundary is reached the full batch
// is returned and the batcher resets; otherwise Add returns nil.
func (b *Batcher) Add(rec gitwalk.ChangeRecord) []gitwalk.ChangeRecord {
	b.items = append(b.items, rec)
	if len(b.items) < b.size {
		return nil
	}
	batch := b.items
	b.items = nil
	return batch
}

// Flush returns the pending remainder, or nil if nothing is buffered.
func (b *Batcher) Flush() []gitwalk.ChangeRecord {
	if len(b.items) == 0 {
		return nil
	}
	batch := b.items
	b.items = nil
	return batch
}

// Len reports how many records are currently buffered.
func (b *Batcher) Len() int { return len(b.items) }
