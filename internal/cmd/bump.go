package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gitopsworks/chartbump/internal/bump"
	"github.com/gitopsworks/chartbump/internal/config"
	"github.com/gitopsworks/chartbump/internal/ui"
)

var (
	bumpRepoURL     string
	bumpToken       string
	bumpPackageFile string
	bumpPackage     string
	bumpVersion     string
	bumpChart       string
	bumpBranch      string
	bumpEnvironment string
	bumpWorkdir     string
	bumpDryRun      bool
)

// bumpCmd represents the bump command.
var bumpCmd = &cobra.Command{
	Use:   "bump",
	Short: "Update a package's chart targetRevision and push the change",
	Long: `Bump runs the chart version update workflow:

1. Shallow-clone the repository branch into an isolated workdir
2. Look up the package in the packages catalog
3. Resolve the package path (substituting the $ environment placeholder)
4. Locate the ArgoCD Application manifest (file, or directory scan)
5. Patch spec.source.targetRevision (or the matching spec.sources entry)
6. Commit and push, unless the revision was already at the target version

Configuration is read from environment variables, with flags taking
precedence:
  REPO_URL           - Git repository URL (required)
  TOKEN              - Access token for clone and push (required)
  PACKAGE_FILE_PATH  - Path of the packages catalog in the repo (required)
  PACKAGE_NAME       - Package to update (required)
  VERSION            - Chart version to pin (required)
  CHART_NAME         - Chart name for disambiguation (optional)
  BRANCH             - Branch to clone and push (default: main)
  ENVIRONMENT        - Value for the $ placeholder in package paths (optional)`,
	Run: runBump,
}

func init() {
	bumpCmd.Flags().StringVar(&bumpRepoURL, "repo", "", "Git repository URL")
	bumpCmd.Flags().StringVar(&bumpToken, "token", "", "Access token for clone and push")
	bumpCmd.Flags().StringVar(&bumpPackageFile, "package-file", "", "Path of the packages catalog in the repository")
	bumpCmd.Flags().StringVar(&bumpPackage, "package", "", "Package name to update")
	bumpCmd.Flags().StringVar(&bumpVersion, "to", "", "Chart version to pin")
	bumpCmd.Flags().StringVar(&bumpChart, "chart", "", "Chart name for disambiguation")
	bumpCmd.Flags().StringVar(&bumpBranch, "branch", "", "Branch to clone and push (default: main)")
	bumpCmd.Flags().StringVar(&bumpEnvironment, "env", "", "Value for the $ placeholder in package paths")
	bumpCmd.Flags().StringVar(&bumpWorkdir, "workdir", "", "Clone directory (default: fresh temp directory)")
	bumpCmd.Flags().BoolVarP(&bumpDryRun, "dry-run", "n", false, "Show the resulting diff without committing")

	rootCmd.AddCommand(bumpCmd)
}

func runBump(cmd *cobra.Command, args []string) {
	cfg := buildBumpConfig()
	if err := cfg.Validate(); err != nil {
		ui.Fatal("%v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runner := bump.New(cfg)
	if err := runner.Run(ctx); err != nil {
		ui.Fatal("%v", err)
	}
}

// buildBumpConfig layers flag values over the environment configuration.
func buildBumpConfig() *config.Config {
	cfg := config.FromEnv()

	if bumpRepoURL != "" {
		cfg.RepoURL = bumpRepoURL
	}
	if bumpToken != "" {
		cfg.Token = bumpToken
	}
	if bumpPackageFile != "" {
		cfg.PackageFile = bumpPackageFile
	}
	if bumpPackage != "" {
		cfg.PackageName = bumpPackage
	}
	if bumpVersion != "" {
		cfg.Version = bumpVersion
	}
	if bumpChart != "" {
		cfg.ChartName = bumpChart
	}
	if bumpBranch != "" {
		cfg.Branch = bumpBranch
	}
	if bumpEnvironment != "" {
		cfg.Environment = bumpEnvironment
	}
	if bumpWorkdir != "" {
		cfg.Workdir = bumpWorkdir
	}
	if bumpDryRun {
		cfg.DryRun = true
	}

	return cfg
}
