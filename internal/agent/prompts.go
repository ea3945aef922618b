package agent

import (
	"fmt"
	"strings"

	"github.com/Encore7/codebase-explainer-agent/internal/llm"
)

const summarySystemPrompt = `You are a senior software engineer reviewing a project's git history. Be precise and factual. Do not invent details that are not present in the diff.`

const summaryPromptTemplate = `Explain in plain English what changed in this commit to the file %s. Focus on intent: what the change does and why it might have been made. Answer in 2-3 sentences.

Commit message and diff:

%s`

const composeSystemPrompt = `You are a senior software engineer answering questions about a project's development history. Base your answer only on the commit summaries provided. Cite commits by their short hash when you reference them. If the summaries do not answer the question, say so.`

const composePromptTemplate = `Question about this repository's history:

%s

Relevant commits, most similar first:

%s

Answer the question using only these commits.`

// buildSummaryMessages constructs the per-chunk summarization prompt.
func buildSummaryMessages(path string, content string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: summarySystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(summaryPromptTemplate, path, content)},
	}
}

// buildComposeMessages constructs the final answer prompt from the numbered
// chunk summaries.
func buildComposeMessages(question string, summaries []Summary) []llm.Message {
	var b strings.Builder
	for i, s := range summaries {
		commit := s.Commit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		fmt.Fprintf(&b, "%d. commit %s (%s, %s, %s):\n%s\n\n",
			i+1, commit, s.Path, s.Author, s.Date, s.Text)
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: composeSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(composePromptTemplate, question, strings.TrimSpace(b.String()))},
	}
}
