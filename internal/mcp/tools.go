package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askRepositoryTool defines the ask_repository MCP tool.
var askRepositoryTool = mcp.NewTool("ask_repository",
	mcp.WithDescription("Ask a natural language question about an ingested repository's commit history. Returns a full answer citing the relevant commits."),
	mcp.WithString("repo_id",
		mcp.Required(),
		mcp.Description("Id of the ingested repository, as returned by the ingestion API"),
	),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Natural language question about the repository's history"),
	),
)

// searchHistoryTool defines the search_history MCP tool.
var searchHistoryTool = mcp.NewTool("search_history",
	mcp.WithDescription("Search an ingested repository's commit history semantically. Returns the raw matching commits and diffs without summarization."),
	mcp.WithString("repo_id",
		mcp.Required(),
		mcp.Description("Id of the ingested repository"),
	),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
)

// ingestStatusTool defines the ingest_status MCP tool.
var ingestStatusTool = mcp.NewTool("ingest_status",
	mcp.WithDescription("Get the status of a repository ingestion job."),
	mcp.WithString("repo_id",
		mcp.Required(),
		mcp.Description("Id of the ingestion job"),
	),
)
