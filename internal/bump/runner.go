// Package bump orchestrates the chart version bump workflow.
package bump

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/gitopsworks/chartbump/internal/argocd"
	"github.com/gitopsworks/chartbump/internal/config"
	"github.com/gitopsworks/chartbump/internal/fileutil"
	"github.com/gitopsworks/chartbump/internal/gitops"
	"github.com/gitopsworks/chartbump/internal/index"
	"github.com/gitopsworks/chartbump/internal/ui"
)

// cloneDepth is used for the working clone; each run operates on an
// isolated shallow clone.
const cloneDepth = 1

// GitClient defines the git operations the runner needs.
type GitClient interface {
	// Clone checks out the configured branch into the workdir.
	// If depth is 0, a full clone is performed.
	Clone(ctx context.Context, depth int) error

	// CommitAndPush stages relPath, commits with message, and pushes.
	// Returns gitops.ErrNothingToCommit when the worktree is clean.
	CommitAndPush(ctx context.Context, relPath, message string) error
}

// Runner executes one bump run against a fresh clone.
type Runner struct {
	cfg     *config.Config
	git     GitClient
	workdir string

	// keepWorkdir skips cleanup when the caller supplied the directory.
	keepWorkdir bool
}

// New creates a Runner for the given configuration.
func New(cfg *config.Config, opts ...Option) *Runner {
	workdir := cfg.Workdir
	keep := workdir != ""
	if workdir == "" {
		workdir = filepath.Join(os.TempDir(), "chartbump-"+uuid.NewString())
	}

	r := &Runner{
		cfg:         cfg,
		git:         gitops.New(cfg.RepoURL, cfg.Branch, workdir, cfg.Token),
		workdir:     workdir,
		keepWorkdir: keep,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Option is a functional option for configuring the Runner.
type Option func(*Runner)

// WithGitClient sets the GitClient implementation.
func WithGitClient(git GitClient) Option {
	return func(r *Runner) {
		r.git = git
	}
}

// Workdir returns the directory the repository is cloned into.
func (r *Runner) Workdir() string {
	return r.workdir
}

// CommitMessage returns the commit message for a package/version pair.
func CommitMessage(pkg, version string) string {
	return fmt.Sprintf("chore(helm): update %s to %s", pkg, version)
}

// Run executes the full bump workflow: clone, resolve the package path,
// locate the Application manifest, patch the target revision, and
// commit/push when something changed.
func (r *Runner) Run(ctx context.Context) error {
	if !r.keepWorkdir {
		defer os.RemoveAll(r.workdir)
	}

	ui.Info("Cloning %s (branch %s)...", r.cfg.RepoURL, r.cfg.Branch)
	if err := r.git.Clone(ctx, cloneDepth); err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}

	pkgPath, err := r.resolvePackage()
	if err != nil {
		return err
	}

	manifest, err := argocd.Locate(filepath.Join(r.workdir, pkgPath), r.cfg.ChartName)
	if err != nil {
		return err
	}

	relPath, err := filepath.Rel(r.workdir, manifest.Path)
	if err != nil {
		return fmt.Errorf("relativize manifest path: %w", err)
	}

	original, err := os.ReadFile(manifest.Path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	changed, err := manifest.SetTargetRevision(r.cfg.Version, r.cfg.ChartName)
	if err != nil {
		return err
	}
	if !changed {
		ui.Info("targetRevision in %s is already %s, no change needed", relPath, r.cfg.Version)
		return nil
	}

	updated, err := manifest.Encode()
	if err != nil {
		return err
	}

	if r.cfg.DryRun {
		ui.Warning("DRY RUN MODE - no changes will be committed")
		return printDiff(relPath, original, updated)
	}

	if err := fileutil.WriteFile(manifest.Path, updated, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	ui.Success("Updated targetRevision to %s in %s", r.cfg.Version, relPath)

	message := CommitMessage(r.cfg.PackageName, r.cfg.Version)
	if err := r.git.CommitAndPush(ctx, relPath, message); err != nil {
		if errors.Is(err, gitops.ErrNothingToCommit) {
			ui.Info("No changes to commit")
			return nil
		}
		return fmt.Errorf("failed to commit and push: %w", err)
	}

	ui.Success("Pushed changes to %s", r.cfg.Branch)
	return nil
}

// resolvePackage loads the packages catalog and resolves the target
// package's manifest path.
func (r *Runner) resolvePackage() (string, error) {
	path := filepath.Join(r.workdir, r.cfg.PackageFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read package file %s: %w", r.cfg.PackageFile, err)
	}

	catalog, err := index.Load(data)
	if err != nil {
		return "", fmt.Errorf("load package file %s: %w", r.cfg.PackageFile, err)
	}

	pkgPath, err := catalog.Resolve(r.cfg.PackageName, r.cfg.Environment)
	if err != nil {
		return "", err
	}
	return pkgPath, nil
}

// printDiff writes a unified diff of the manifest change to stdout.
func printDiff(relPath string, original, updated []byte) error {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(original)),
		B:        difflib.SplitLines(string(updated)),
		FromFile: "a/" + relPath,
		ToFile:   "b/" + relPath,
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("render diff: %w", err)
	}
	ui.Plain("%s", diff)
	return nil
}
