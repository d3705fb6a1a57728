package argocd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Locator errors.
var (
	// ErrManifestNotFound indicates no Application manifest exists at the
	// resolved path.
	ErrManifestNotFound = errors.New("application manifest not found")

	// ErrAmbiguousManifest indicates more than one Application matches and
	// no chart name disambiguates between them.
	ErrAmbiguousManifest = errors.New("ambiguous application manifest")
)

// candidate is an Application document found during location.
type candidate struct {
	path string
	docs []*yaml.Node
	node *yaml.Node
	app  Application
}

// Locate resolves path to a single Application document to patch.
// A file path is parsed directly; a directory is scanned (non-recursively)
// for YAML files containing Application documents. When chart is non-empty
// it narrows the candidates to Applications referencing that chart.
// Exactly one candidate must remain, otherwise the location fails.
func Locate(path, chart string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: path does not exist: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		return locateInDir(path, chart)
	}
	return locateInFile(path, chart)
}

// locateInFile selects the Application document within a single manifest file.
func locateInFile(path, chart string) (*Manifest, error) {
	cands, docs, err := parseFile(path, chart)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		if chart != "" {
			return nil, fmt.Errorf("%w: no Application with chart %q in %s", ErrManifestNotFound, chart, path)
		}
		return nil, fmt.Errorf("%w: %s is not an Application manifest", ErrManifestNotFound, path)
	}
	if len(cands) > 1 {
		return nil, ambiguityError(cands, chart)
	}

	c := cands[0]
	return &Manifest{Path: path, docs: docs, selected: c.node, app: c.app}, nil
}

// locateInDir scans a directory for Application manifests and selects one.
func locateInDir(dir, chart string) (*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var cands []candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		// Files that fail to parse are skipped, matching the scan-and-filter
		// behavior for mixed-content directories.
		fileCands, _, err := parseFile(filepath.Join(dir, entry.Name()), chart)
		if err != nil {
			continue
		}
		cands = append(cands, fileCands...)
	}

	if len(cands) == 0 {
		if chart != "" {
			return nil, fmt.Errorf("%w: no Application with chart %q in directory %s", ErrManifestNotFound, chart, dir)
		}
		return nil, fmt.Errorf("%w: no Application found in directory %s", ErrManifestNotFound, dir)
	}
	if len(cands) > 1 {
		return nil, ambiguityError(cands, chart)
	}

	c := cands[0]
	return &Manifest{Path: c.path, docs: c.docs, selected: c.node, app: c.app}, nil
}

// parseFile decodes every document in a manifest file and returns the
// Application documents, filtered by chart when one is given.
func parseFile(path, chart string) ([]candidate, []*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	var docs []*yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
		// Empty documents cannot be re-encoded; drop them.
		if doc.Kind == 0 {
			continue
		}
		docs = append(docs, &doc)
	}

	var cands []candidate
	for _, doc := range docs {
		if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
			continue
		}
		var app Application
		if err := doc.Decode(&app); err != nil {
			continue
		}
		if app.Kind != KindApplication {
			continue
		}
		if chart != "" && !app.MatchesChart(chart) {
			continue
		}
		cands = append(cands, candidate{path: path, docs: docs, node: doc, app: app})
	}
	return cands, docs, nil
}

// ambiguityError builds an ErrAmbiguousManifest listing the contenders.
func ambiguityError(cands []candidate, chart string) error {
	names := make([]string, 0, len(cands))
	for _, c := range cands {
		name := c.app.Metadata.Name
		if name == "" {
			name = filepath.Base(c.path)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if chart != "" {
		return fmt.Errorf("%w: %d Applications match chart %q (%s)",
			ErrAmbiguousManifest, len(cands), chart, strings.Join(names, ", "))
	}
	return fmt.Errorf("%w: %d Applications found (%s); use a chart name to disambiguate",
		ErrAmbiguousManifest, len(cands), strings.Join(names, ", "))
}
