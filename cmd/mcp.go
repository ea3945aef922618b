package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Encore7/codebase-explainer-agent/internal/agent"
	"github.com/Encore7/codebase-explainer-agent/internal/jobs"
	mcpserver "github.com/Encore7/codebase-explainer-agent/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing repository history tools for AI agents like Claude Code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		embedder, err := createRetryEmbedderFromConfig(cfg, logger)
		if err != nil {
			return err
		}
		store := openStore(cfg, embedder, logger)

		provider, err := createLLMProviderFromConfig(cfg)
		if err != nil {
			return err
		}

		summaryModel := cfg.SummaryModel
		if summaryModel == "" {
			summaryModel = cfg.Model
		}
		ag := agent.New(store, provider, summaryModel, cfg.Model, cfg.TopK, logger)
		jobStore := jobs.NewStore(database)

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintln(os.Stderr, "explainer MCP server started on stdio")

		srv := mcpserver.NewServer(ag, store, jobStore)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
