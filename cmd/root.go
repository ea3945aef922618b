package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "explainer",
	Short: "AI-powered question answering over git commit history",
	Long: `Explainer ingests a git repository's full commit history into a
semantic vector index and answers natural language questions about how
and why the code evolved, citing the relevant commits. It exposes an
HTTP API with streaming chat and integrates with AI agents via MCP.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".explainer.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
