// Package config handles run configuration from action inputs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultBranch is the branch used when none is configured.
const DefaultBranch = "main"

// ErrMissingInput indicates a required input was not provided.
var ErrMissingInput = errors.New("missing required input")

// Config holds the inputs for one bump run.
type Config struct {
	// RepoURL is the git repository holding the package catalog.
	RepoURL string

	// Token authenticates clone and push.
	Token string

	// PackageFile is the path of the packages catalog within the repository.
	PackageFile string

	// PackageName selects the catalog entry to update.
	PackageName string

	// Version is the chart version to pin.
	Version string

	// ChartName disambiguates when multiple Applications or sources exist.
	ChartName string

	// Branch is the branch to clone and push (default: main).
	Branch string

	// Environment substitutes the placeholder in templated package paths.
	Environment string

	// DryRun shows the resulting change without committing.
	DryRun bool

	// Workdir is the clone directory; empty means a fresh temp directory.
	Workdir string
}

// Default returns a Config with defaults applied.
func Default() *Config {
	return &Config{Branch: DefaultBranch}
}

// FromEnv builds a Config from the action's environment variables.
// Flag values layered on top by the CLI take precedence over these.
func FromEnv() *Config {
	cfg := Default()
	cfg.RepoURL = envValue("REPO_URL")
	cfg.Token = envValue("TOKEN")
	cfg.PackageFile = envValue("PACKAGE_FILE_PATH")
	cfg.PackageName = envValue("PACKAGE_NAME")
	cfg.Version = envValue("VERSION")
	cfg.ChartName = envValue("CHART_NAME")
	cfg.Environment = envValue("ENVIRONMENT")
	if branch := envValue("BRANCH"); branch != "" {
		cfg.Branch = branch
	}
	return cfg
}

// Validate checks that all required inputs are present.
func (c *Config) Validate() error {
	var missing []string
	for _, in := range []struct {
		name  string
		value string
	}{
		{"repo URL", c.RepoURL},
		{"token", c.Token},
		{"package file", c.PackageFile},
		{"package name", c.PackageName},
		{"version", c.Version},
	} {
		if in.value == "" {
			missing = append(missing, in.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingInput, strings.Join(missing, ", "))
	}
	if c.Branch == "" {
		c.Branch = DefaultBranch
	}
	return nil
}

// envValue reads and trims an environment variable.
func envValue(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
