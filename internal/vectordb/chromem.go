package vectordb

import (
	"context"
	"fmt"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/Encore7/codebase-explainer-agent/internal/embeddings"
)

const snapshotFile = "chromem.gob.gz"

// ChromemStore implements Store using chromem-go with one collection per
// repository. Safe for concurrent use: ingestion may write a collection
// while query sessions read it.
type ChromemStore struct {
	mu        sync.Mutex
	db        *chromem.DB
	embedder  embeddings.Embedder
	embedFunc chromem.EmbeddingFunc
}

// NewChromemStore creates a new in-memory ChromemStore. The embedder is
// used to embed query texts; ingestion supplies precomputed vectors.
func NewChromemStore(embedder embeddings.Embedder) *ChromemStore {
	return &ChromemStore{
		db:        chromem.NewDB(),
		embedder:  embedder,
		embedFunc: embeddings.ToChromemFunc(embedder),
	}
}

// collection returns the repository's collection, creating it if needed.
func (s *ChromemStore) collection(repoID string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, err := s.db.GetOrCreateCollection(repoID, nil, s.embedFunc)
	if err != nil {
		return nil, fmt.Errorf("collection %s: %w", repoID, err)
	}
	return col, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, repoID string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	col, err := s.collection(repoID)
	if err != nil {
		return err
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: doc.Embedding,
			Metadata:  metadataToMap(doc.Metadata),
		}
	}

	if err := col.AddDocuments(ctx, chromDocs, 1); err != nil {
		return fmt.Errorf("chromem upsert: %w", err)
	}
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, repoID string, question string, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}

	col, err := s.collection(repoID)
	if err != nil {
		return nil, err
	}

	// chromem-go requires nResults <= collection size.
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := col.Query(ctx, question, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}

	return searchResults, nil
}

func (s *ChromemStore) Count(repoID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.db.GetCollection(repoID, s.embedFunc)
	if col == nil {
		return 0
	}
	return col.Count()
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.ExportToFile(dir+"/"+snapshotFile, true, "")
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.ImportFromFile(dir+"/"+snapshotFile, ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}
	return nil
}

// metadataToMap converts Metadata to a flat map[string]string for chromem.
func metadataToMap(m Metadata) map[string]string {
	return map[string]string{
		"commit": m.Commit,
		"path":   m.Path,
		"author": m.Author,
		"date":   m.Date.Format(time.RFC3339),
	}
}

// mapToMetadata converts a flat map[string]string back to Metadata.
func mapToMetadata(m map[string]string) Metadata {
	date, _ := time.Parse(time.RFC3339, m["date"])
	return Metadata{
		Commit: m["commit"],
		Path:   m["path"],
		Author: m["author"],
		Date:   date,
	}
}
