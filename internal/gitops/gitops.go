// Package gitops provides the git transport for the bump workflow.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Commit identity for automated commits.
const (
	commitName  = "github-actions[bot]"
	commitEmail = "github-actions[bot]@users.noreply.github.com"
)

// ErrNothingToCommit indicates the worktree was clean when a commit was
// requested.
var ErrNothingToCommit = errors.New("nothing to commit")

// Repo represents git operations against a single cloned repository.
type Repo struct {
	// URL is the git repository URL to clone.
	URL string
	// Branch is the branch to checkout and push to.
	Branch string
	// Dir is the local directory for the repository.
	Dir string
	// Token authenticates https operations; empty for anonymous access.
	Token string

	repo *git.Repository
}

// New creates a new Repo.
func New(url, branch, dir, token string) *Repo {
	return &Repo{
		URL:    url,
		Branch: branch,
		Dir:    dir,
		Token:  token,
	}
}

// auth returns the BasicAuth credentials for token access, or nil.
func (r *Repo) auth() *http.BasicAuth {
	if r.Token == "" {
		return nil
	}
	return &http.BasicAuth{
		Username: "x-access-token",
		Password: r.Token,
	}
}

// Clone performs a single-branch clone with the specified depth.
// If depth is 0, a full clone is performed.
func (r *Repo) Clone(ctx context.Context, depth int) error {
	opts := &git.CloneOptions{
		URL:           NormalizeURL(r.URL),
		ReferenceName: plumbing.NewBranchReferenceName(r.Branch),
		SingleBranch:  true,
		Depth:         depth,
	}
	if auth := r.auth(); auth != nil {
		opts.Auth = auth
	}

	repo, err := git.PlainCloneContext(ctx, r.Dir, false, opts)
	if err != nil {
		return fmt.Errorf("clone %s (branch %s): %w", r.URL, r.Branch, err)
	}
	r.repo = repo
	return nil
}

// CommitAndPush stages relPath, commits with message, and pushes the branch
// to origin. Returns ErrNothingToCommit when the worktree is clean.
func (r *Repo) CommitAndPush(ctx context.Context, relPath, message string) error {
	if r.repo == nil {
		return fmt.Errorf("repository not cloned")
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	if _, err := wt.Add(relPath); err != nil {
		return fmt.Errorf("stage %s: %w", relPath, err)
	}

	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("worktree status: %w", err)
	}
	if status.IsClean() {
		return ErrNothingToCommit
	}

	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  commitName,
			Email: commitEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", r.Branch, r.Branch))
	pushOpts := &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{refSpec},
	}
	if auth := r.auth(); auth != nil {
		pushOpts.Auth = auth
	}
	if err := r.repo.PushContext(ctx, pushOpts); err != nil {
		return fmt.Errorf("push to %s: %w", r.Branch, err)
	}
	return nil
}

// Head returns the current HEAD commit hash.
func (r *Repo) Head() (string, error) {
	if r.repo == nil {
		return "", fmt.Errorf("repository not cloned")
	}
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}
