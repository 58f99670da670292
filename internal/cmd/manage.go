package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/rezprod/internal/config"
	"github.com/runger/rezprod/internal/resolver"
	"github.com/runger/rezprod/internal/solver"
)

var (
	manageStep      string
	manageSoftware  string
	manageInstall   []string
	manageUninstall []string
	manageList      bool
	manageInit      bool
	manageDeploy    bool
	manageForce     bool
)

var manageCmd = &cobra.Command{
	Use:   "manage [project [category [entity]]]",
	Short: "Edit the staging configuration",
	Long: `Edit the staging package configuration for a production scope.

The positional arguments name the scope, broadest first: project, category,
entity. With no arguments the studio scope is used. Uninstalls are always
processed before installs. Changes are saved to the staging store; use
--deploy to promote the staging configuration to production.

Examples:
  rezprod manage --init                          # Initialize the staging store
  rezprod manage -i maya-2024                    # Install at studio scope
  rezprod manage alpha -i arnold-7 -s lighting   # Install for project "alpha", step "lighting"
  rezprod manage alpha assets hero --list        # List packages resolved for an entity
  rezprod manage --deploy                        # Promote staging to production`,
	Args: cobra.MaximumNArgs(3),
	RunE: runManage,
}

func init() {
	manageCmd.Flags().StringVarP(&manageStep, "step", "s", "", "Pipeline step the operation applies to")
	manageCmd.Flags().StringVar(&manageSoftware, "software", "", "Software the operation applies to")
	manageCmd.Flags().StringArrayVarP(&manageInstall, "install", "i", nil, "Package to install in the current scope (repeatable)")
	manageCmd.Flags().StringArrayVar(&manageUninstall, "uninstall", nil, "Package to uninstall from the current scope (repeatable)")
	manageCmd.Flags().BoolVarP(&manageList, "list", "l", false, "List the packages resolved for the current scope")
	manageCmd.Flags().BoolVar(&manageInit, "init", false, "Initialize the staging store")
	manageCmd.Flags().BoolVar(&manageDeploy, "deploy", false, "Deploy the staging configuration to production")
	manageCmd.Flags().BoolVarP(&manageForce, "force", "f", false, "Skip confirmations and resolver validation")
}

func runManage(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	scope, err := resolver.NewScope(args...)
	if err != nil {
		return err
	}

	session, err := resolver.Open(cmd.Context(), cfg, resolver.ModeStaging,
		resolver.WithSolver(solverFromConfig(cfg)))
	if err != nil {
		return err
	}
	defer session.Close()

	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	if manageInit {
		if !confirm(in, out, "Do you want to generate a new staging store (existing values could be lost)?") {
			fmt.Fprintln(out, "Store initialization aborted by user.")
			return nil
		}
		if err := session.Initialize(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "%sStaging store initialized successfully!%s\n", colorGreen, colorReset)
		return nil
	}

	if ok, err := session.Initialized(ctx); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("staging store is not initialized; run 'rezprod manage --init' first")
	}

	printScopeLine(out, scope, manageStep, manageSoftware)

	if _, err := session.EnsureScope(ctx, scope); err != nil {
		return err
	}

	axis := resolver.Axis{Step: manageStep, Software: manageSoftware}

	if manageList {
		packages, err := session.ListPackages(ctx, scope, axis, !manageForce)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Installed packages:", strings.Join(packages, ", "))
		return nil
	}

	// Uninstalls always run before installs so a replace-in-place sequence
	// validates against the already-shrunk list.
	if len(manageUninstall) > 0 {
		if !confirmAction(in, out, "uninstall", manageUninstall, manageForce) {
			return nil
		}
		for _, name := range manageUninstall {
			if err := session.RemovePackage(ctx, scope, name, axis, !manageForce); err != nil {
				fmt.Fprintf(out, "%s%v%s\n", colorRed, err, colorReset)
				return nil
			}
		}
	}

	if len(manageInstall) > 0 {
		if !confirmAction(in, out, "install", manageInstall, manageForce) {
			return nil
		}
		for _, name := range manageInstall {
			if _, err := session.AddPackage(ctx, scope, name, axis, !manageForce); err != nil {
				fmt.Fprintf(out, "%s%v%s\n", colorRed, err, colorReset)
				return nil
			}
		}
	}

	if err := session.Save(ctx, resolver.SaveOptions{}); err != nil {
		return err
	}

	if manageDeploy {
		if !manageForce {
			if !confirm(in, out, "Do you want to move the staging configuration to production?") {
				fmt.Fprintln(out, "Deployment aborted by user.")
				return nil
			}
		}
		if err := session.Deploy(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "%sProduction configuration updated successfully!%s\n", colorGreen, colorReset)
	}

	return nil
}

// printScopeLine echoes the scope an operation applies to, studio root
// included, with the requested axis values.
func printScopeLine(out io.Writer, scope resolver.Scope, step, software string) {
	levels := append([]string{"studio"}, scope.Levels()...)
	fmt.Fprintf(out, "Current scope: %s [step: %s] (software: %s)\n",
		strings.Join(levels, ", "), orNone(step), orNone(software))
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// solverFromConfig builds the external resolver capability. Without a
// configured command every package set is accepted.
func solverFromConfig(cfg *config.Config) solver.Solver {
	if cfg.Resolver.Command == "" {
		return solver.AcceptAll()
	}
	cs, err := solver.NewCommand(cfg.Resolver.Command, time.Duration(cfg.Resolver.TimeoutSecs)*time.Second)
	if err != nil {
		// A broken resolver configuration must reject mutations, not wave
		// them through.
		return solver.Func(func(context.Context, []string) error {
			return fmt.Errorf("resolver command is misconfigured: %w", err)
		})
	}
	return cs
}
