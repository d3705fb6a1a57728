// Package cmd provides the CLI commands for chartbump.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "chartbump",
	Short: "Pin ArgoCD Application chart versions from CI",
	Long: `chartbump - chart version bumps for ArgoCD package catalogs

Given a repository with a packages catalog, chartbump finds one package's
ArgoCD Application manifest, rewrites its Helm chart targetRevision, and
commits and pushes the change when the value actually changed.

COMMANDS
  bump                  Update a package's targetRevision and push
    --dry-run, -n       Show the resulting diff without committing
  update                Update chartbump to the latest release

Inputs can be passed as flags or environment variables; see
'chartbump bump --help' for the full list.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate("chartbump version {{.Version}}\n")
}
