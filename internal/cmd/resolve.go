package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/rezprod/internal/config"
	"github.com/runger/rezprod/internal/resolver"
	"github.com/runger/rezprod/internal/storage"
)

var (
	resolveStep     string
	resolveSoftware string
	resolveStaging  bool
	resolveNoVerify bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [project [category [entity]]]",
	Short: "Resolve the package list for a scope",
	Long: `Resolve the package list for a production scope.

Reads the production store and prints the merged package list for the given
scope, broadest level first, with narrower scopes overriding broader ones.
Use --staging to read the staging store instead.

Examples:
  rezprod resolve                           # Studio-wide packages
  rezprod resolve alpha assets hero         # Packages for an entity
  rezprod resolve alpha -s lighting         # Narrowed by pipeline step
  rezprod resolve --staging                 # Read the staging configuration`,
	Args: cobra.MaximumNArgs(3),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveStep, "step", "s", "", "Pipeline step to resolve for")
	resolveCmd.Flags().StringVar(&resolveSoftware, "software", "", "Software to resolve for")
	resolveCmd.Flags().BoolVarP(&resolveStaging, "staging", "S", false, "Read the staging store instead of production")
	resolveCmd.Flags().BoolVar(&resolveNoVerify, "no-verify", false, "Skip resolver validation of the resulting list")
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	mode := resolver.ModeProduction
	path := cfg.Store.ProductionDatabase
	if resolveStaging {
		mode = resolver.ModeStaging
		path = cfg.Store.StagingPath()
	}

	if !storage.Exists(path) {
		return fmt.Errorf("%s store not found at %s", mode, path)
	}

	scope, err := resolver.NewScope(args...)
	if err != nil {
		return err
	}

	session, err := resolver.Open(cmd.Context(), cfg, mode,
		resolver.WithSolver(solverFromConfig(cfg)))
	if err != nil {
		return err
	}
	defer session.Close()

	out := cmd.OutOrStdout()
	printScopeLine(out, scope, resolveStep, resolveSoftware)

	axis := resolver.Axis{Step: resolveStep, Software: resolveSoftware}
	packages, err := session.ListPackages(cmd.Context(), scope, axis, !resolveNoVerify)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Installed packages:", strings.Join(packages, ", "))
	return nil
}
