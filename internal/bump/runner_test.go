package bump

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitopsworks/chartbump/internal/argocd"
	"github.com/gitopsworks/chartbump/internal/config"
	"github.com/gitopsworks/chartbump/internal/gitops"
	"github.com/gitopsworks/chartbump/internal/index"
)

// mockGit records git operations instead of touching a remote.
type mockGit struct {
	cloneErr  error
	commitErr error

	cloned   bool
	depth    int
	paths    []string
	messages []string
}

func (m *mockGit) Clone(ctx context.Context, depth int) error {
	m.cloned = true
	m.depth = depth
	return m.cloneErr
}

func (m *mockGit) CommitAndPush(ctx context.Context, relPath, message string) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.paths = append(m.paths, relPath)
	m.messages = append(m.messages, message)
	return nil
}

const appManifest = `apiVersion: argoproj.io/v1alpha1
kind: Application
metadata:
  name: grafana
spec:
  source:
    repoURL: https://grafana.github.io/helm-charts
    chart: grafana
    targetRevision: "7.3.0"
`

// seedWorkdir lays out a fake checkout with a packages catalog and one
// Application manifest, returning the workdir.
func seedWorkdir(t *testing.T, pkgPath string) string {
	t.Helper()
	dir := t.TempDir()

	catalog := "packages:\n  - name: grafana\n    path: " + pkgPath + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "packages.yaml"), []byte(catalog), 0644))

	appDir := filepath.Join(dir, "apps", "grafana")
	require.NoError(t, os.MkdirAll(appDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "application.yaml"), []byte(appManifest), 0644))

	return dir
}

func testConfig(workdir string) *config.Config {
	return &config.Config{
		RepoURL:     "https://github.com/org/deployments",
		Token:       "ghs_token",
		PackageFile: "packages.yaml",
		PackageName: "grafana",
		Version:     "8.0.0",
		Branch:      "main",
		Workdir:     workdir,
	}
}

func TestNew(t *testing.T) {
	t.Run("generates temp workdir", func(t *testing.T) {
		r := New(testConfig(""))
		assert.Contains(t, r.Workdir(), "chartbump-")
		assert.False(t, r.keepWorkdir)
	})

	t.Run("keeps supplied workdir", func(t *testing.T) {
		r := New(testConfig("/tmp/checkout"))
		assert.Equal(t, "/tmp/checkout", r.Workdir())
		assert.True(t, r.keepWorkdir)
	})
}

func TestCommitMessage(t *testing.T) {
	assert.Equal(t, "chore(helm): update grafana to 8.0.0", CommitMessage("grafana", "8.0.0"))
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("patches manifest and pushes", func(t *testing.T) {
		dir := seedWorkdir(t, "./apps/grafana/application.yaml")
		git := &mockGit{}
		r := New(testConfig(dir), WithGitClient(git))

		require.NoError(t, r.Run(ctx))

		assert.True(t, git.cloned)
		assert.Equal(t, 1, git.depth)
		require.Len(t, git.messages, 1)
		assert.Equal(t, "chore(helm): update grafana to 8.0.0", git.messages[0])
		assert.Equal(t, filepath.Join("apps", "grafana", "application.yaml"), git.paths[0])

		data, err := os.ReadFile(filepath.Join(dir, "apps", "grafana", "application.yaml"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `targetRevision: "8.0.0"`)
	})

	t.Run("second run with same version is a no-op", func(t *testing.T) {
		dir := seedWorkdir(t, "./apps/grafana/application.yaml")
		git := &mockGit{}
		cfg := testConfig(dir)

		require.NoError(t, New(cfg, WithGitClient(git)).Run(ctx))
		require.NoError(t, New(cfg, WithGitClient(git)).Run(ctx))

		assert.Len(t, git.messages, 1, "no second commit expected")
	})

	t.Run("directory path falls back to scan", func(t *testing.T) {
		dir := seedWorkdir(t, "./apps/grafana")
		git := &mockGit{}

		require.NoError(t, New(testConfig(dir), WithGitClient(git)).Run(ctx))
		require.Len(t, git.paths, 1)
		assert.Equal(t, filepath.Join("apps", "grafana", "application.yaml"), git.paths[0])
	})

	t.Run("placeholder path resolved with environment", func(t *testing.T) {
		dir := seedWorkdir(t, "./apps/$/application.yaml")
		git := &mockGit{}
		cfg := testConfig(dir)
		cfg.Environment = "grafana"

		require.NoError(t, New(cfg, WithGitClient(git)).Run(ctx))
		assert.Len(t, git.messages, 1)
	})

	t.Run("placeholder without environment fails", func(t *testing.T) {
		dir := seedWorkdir(t, "./apps/$/application.yaml")
		git := &mockGit{}

		err := New(testConfig(dir), WithGitClient(git)).Run(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, index.ErrEnvironmentRequired)
	})

	t.Run("unknown package fails", func(t *testing.T) {
		dir := seedWorkdir(t, "./apps/grafana/application.yaml")
		git := &mockGit{}
		cfg := testConfig(dir)
		cfg.PackageName = "loki"

		err := New(cfg, WithGitClient(git)).Run(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, index.ErrPackageNotFound)
	})

	t.Run("missing package file fails", func(t *testing.T) {
		dir := seedWorkdir(t, "./apps/grafana/application.yaml")
		git := &mockGit{}
		cfg := testConfig(dir)
		cfg.PackageFile = "nope.yaml"

		err := New(cfg, WithGitClient(git)).Run(ctx)
		assert.Error(t, err)
	})

	t.Run("ambiguous directory fails", func(t *testing.T) {
		dir := seedWorkdir(t, "./apps/grafana")
		second := strings.ReplaceAll(appManifest, "grafana", "loki")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "apps", "grafana", "second.yaml"), []byte(second), 0644))
		git := &mockGit{}

		err := New(testConfig(dir), WithGitClient(git)).Run(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, argocd.ErrAmbiguousManifest)
		assert.Empty(t, git.messages)
	})

	t.Run("chart mismatch fails", func(t *testing.T) {
		dir := seedWorkdir(t, "./apps/grafana/application.yaml")
		git := &mockGit{}
		cfg := testConfig(dir)
		cfg.ChartName = "redis"

		err := New(cfg, WithGitClient(git)).Run(ctx)
		require.Error(t, err)
		assert.Empty(t, git.messages)
	})

	t.Run("dry run leaves manifest untouched", func(t *testing.T) {
		dir := seedWorkdir(t, "./apps/grafana/application.yaml")
		git := &mockGit{}
		cfg := testConfig(dir)
		cfg.DryRun = true

		require.NoError(t, New(cfg, WithGitClient(git)).Run(ctx))
		assert.Empty(t, git.messages)

		data, err := os.ReadFile(filepath.Join(dir, "apps", "grafana", "application.yaml"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `targetRevision: "7.3.0"`)
	})

	t.Run("clean worktree from git is success", func(t *testing.T) {
		dir := seedWorkdir(t, "./apps/grafana/application.yaml")
		git := &mockGit{commitErr: gitops.ErrNothingToCommit}

		require.NoError(t, New(testConfig(dir), WithGitClient(git)).Run(ctx))
	})

	t.Run("clone failure surfaces", func(t *testing.T) {
		dir := seedWorkdir(t, "./apps/grafana/application.yaml")
		git := &mockGit{cloneErr: assert.AnError}

		err := New(testConfig(dir), WithGitClient(git)).Run(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "clone")
	})
}
