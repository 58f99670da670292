package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rezprod",
	Short: "hierarchical package-override configuration for production environments",
	Long: `rezprod - hierarchical package-override configuration for production environments
  - manage: edit the staging configuration and promote it to production
  - resolve: read the package list for a scope from production`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(manageCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(versionCmd)
}
