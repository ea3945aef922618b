package vectordb

import "time"

// Document is one embedded unit of commit history: a single changed file
// within a single commit, plus its citation metadata.
type Document struct {
	// ID is "commitHash:filePath", stable across re-ingestions.
	ID        string
	Content   string
	Embedding []float32
	Metadata  Metadata
}

// Metadata holds citation information for a document.
type Metadata struct {
	Commit string
	Path   string
	Author string
	Date   time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}
