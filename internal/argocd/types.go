// Package argocd locates ArgoCD Application manifests and patches their
// Helm chart target revision.
package argocd

import "gopkg.in/yaml.v3"

// KindApplication identifies an ArgoCD Application manifest.
const KindApplication = "Application"

// Metadata holds the manifest metadata fields we care about.
type Metadata struct {
	Name string `yaml:"name"`
}

// Source describes where an Application pulls its content from.
type Source struct {
	RepoURL        string `yaml:"repoURL,omitempty"`
	Chart          string `yaml:"chart,omitempty"`
	Path           string `yaml:"path,omitempty"`
	TargetRevision string `yaml:"targetRevision,omitempty"`
}

// Spec is the Application spec. Source and Sources are mutually exclusive
// in practice; ArgoCD ignores Source when Sources is set.
type Spec struct {
	Source  *Source  `yaml:"source,omitempty"`
	Sources []Source `yaml:"sources,omitempty"`
}

// Application is the typed view of an Application document, used for
// inspection and candidate matching. Patching happens on the underlying
// yaml nodes so formatting and comments survive.
type Application struct {
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	Metadata   Metadata `yaml:"metadata"`
	Spec       Spec     `yaml:"spec"`
}

// MatchesChart reports whether the Application references the given chart,
// either via spec.source.chart or any spec.sources[].chart.
func (a *Application) MatchesChart(chart string) bool {
	if a.Spec.Source != nil && a.Spec.Source.Chart == chart {
		return true
	}
	for _, s := range a.Spec.Sources {
		if s.Chart == chart {
			return true
		}
	}
	return false
}

// Manifest is a parsed manifest file together with the Application document
// selected for patching.
type Manifest struct {
	// Path is the manifest file location on disk.
	Path string

	// docs holds every document in the file, patched or not, so that
	// Encode round-trips the whole file.
	docs []*yaml.Node

	// selected is the document node of the Application to patch.
	selected *yaml.Node

	// app is the typed view of the selected document.
	app Application
}

// App returns the typed view of the selected Application document.
func (m *Manifest) App() *Application {
	return &m.app
}
