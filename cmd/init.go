package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Encore7/codebase-explainer-agent/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize explainer configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure explainer and generates a .explainer.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
