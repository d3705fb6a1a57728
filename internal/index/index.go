// Package index loads the packages catalog and resolves package entries
// to manifest paths.
package index

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Placeholder is the token in a package path that is substituted with the
// target environment (e.g. "./apps/$/application.yaml").
const Placeholder = "$"

// Resolution errors.
var (
	// ErrPackageNotFound indicates the requested package is not in the catalog.
	ErrPackageNotFound = errors.New("package not found")

	// ErrEnvironmentRequired indicates the package path contains a placeholder
	// but no environment was supplied.
	ErrEnvironmentRequired = errors.New("environment required")

	// ErrInvalidCatalog indicates the packages file is missing the top-level
	// packages list.
	ErrInvalidCatalog = errors.New("invalid packages file")
)

// Package is one entry in the packages catalog.
type Package struct {
	// Name identifies the package.
	Name string `yaml:"name"`

	// Path points at the package's Application manifest, relative to the
	// repository root. May contain the environment placeholder.
	Path string `yaml:"path,omitempty"`
}

// File is the parsed packages catalog.
type File struct {
	Packages []Package `yaml:"packages"`
}

// Load parses a packages catalog from YAML.
// The file must contain a top-level "packages" list.
func Load(data []byte) (*File, error) {
	var raw struct {
		Packages yaml.Node `yaml:"packages"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse packages file: %w", err)
	}
	if raw.Packages.Kind == 0 {
		return nil, fmt.Errorf("%w: missing top-level packages list", ErrInvalidCatalog)
	}
	if raw.Packages.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: packages must be a list", ErrInvalidCatalog)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse packages file: %w", err)
	}
	return &f, nil
}

// Find returns the package with the given name.
func (f *File) Find(name string) (*Package, error) {
	for i := range f.Packages {
		if f.Packages[i].Name == name {
			return &f.Packages[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPackageNotFound, name)
}

// ResolvePath expands the environment placeholder in a package path.
// An empty path resolves to the repository root. A path containing the
// placeholder requires a non-empty environment.
func ResolvePath(pkgPath, environment string) (string, error) {
	if pkgPath == "" {
		return "./", nil
	}
	if !strings.Contains(pkgPath, Placeholder) {
		return pkgPath, nil
	}
	if environment == "" {
		return "", fmt.Errorf("%w: path %q contains a placeholder", ErrEnvironmentRequired, pkgPath)
	}
	return strings.ReplaceAll(pkgPath, Placeholder, environment), nil
}

// Resolve finds a package by name and expands its path in one step.
func (f *File) Resolve(name, environment string) (string, error) {
	pkg, err := f.Find(name)
	if err != nil {
		return "", err
	}
	return ResolvePath(pkg.Path, environment)
}
