package agent

import (
	"fmt"

	"github.com/Encore7/codebase-explainer-agent/internal/vectordb"
)

// Question is the initial state of an answer pipeline: a user question
// about one ingested repository. Each question gets a fresh pipeline; no
// state is shared between questions.
type Question struct {
	RepoID string
	Text   string
}

// Retrieved is a question plus the history chunks nearest to it.
type Retrieved struct {
	Question
	Results []vectordb.SearchResult
}

// Summary is a plain-English explanation of one retrieved chunk.
type Summary struct {
	Commit string
	Path   string
	Author string
	Date   string
	Text   string
}

// Summarized is a retrieval plus one summary per chunk, in the same order
// as the retrieval results.
type Summarized struct {
	Retrieved
	Summaries []Summary
}

// StageError reports which pipeline stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
