package argocd

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Patcher errors.
var (
	// ErrFieldNotFound indicates the Application has no spec.source or
	// spec.sources to patch.
	ErrFieldNotFound = errors.New("target revision field not found")

	// ErrChartMismatch indicates spec.source references a different chart
	// than the one requested.
	ErrChartMismatch = errors.New("chart mismatch")

	// ErrChartNotFound indicates no spec.sources entry references the
	// requested chart.
	ErrChartNotFound = errors.New("chart not found in sources")
)

// SetTargetRevision updates the chart target revision of the selected
// Application document. With spec.sources, the entry whose chart matches is
// patched; without a chart name the list must contain exactly one entry.
// Returns false when the revision already equals version; the manifest is
// left untouched in that case.
func (m *Manifest) SetTargetRevision(version, chart string) (bool, error) {
	root := m.selected.Content[0]
	spec := mapValue(root, "spec")
	if spec == nil || spec.Kind != yaml.MappingNode {
		return false, fmt.Errorf("%w: Application has no spec", ErrFieldNotFound)
	}

	target, err := selectTarget(spec, chart)
	if err != nil {
		return false, err
	}

	changed := setRevision(target, version)
	if changed {
		// Refresh the typed view so callers observe the new revision.
		var app Application
		if err := m.selected.Decode(&app); err != nil {
			return false, fmt.Errorf("re-decode patched manifest: %w", err)
		}
		m.app = app
	}
	return changed, nil
}

// Encode serializes every document of the manifest file, patched or not.
func (m *Manifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, doc := range m.docs {
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode manifest: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// selectTarget picks the source mapping node whose targetRevision should
// change. spec.sources takes precedence over spec.source, mirroring how
// ArgoCD treats the two fields.
func selectTarget(spec *yaml.Node, chart string) (*yaml.Node, error) {
	if sources := mapValue(spec, "sources"); sources != nil && sources.Kind == yaml.SequenceNode && len(sources.Content) > 0 {
		return selectFromSources(sources, chart)
	}

	source := mapValue(spec, "source")
	if source == nil || source.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: Application has no spec.source or spec.sources", ErrFieldNotFound)
	}
	if chart != "" {
		if got := scalarValue(source, "chart"); got != chart {
			return nil, fmt.Errorf("%w: spec.source.chart is %q, not %q", ErrChartMismatch, got, chart)
		}
	}
	return source, nil
}

// selectFromSources picks one entry of the spec.sources list.
func selectFromSources(sources *yaml.Node, chart string) (*yaml.Node, error) {
	if chart == "" {
		if len(sources.Content) > 1 {
			return nil, fmt.Errorf("%w: spec.sources has %d entries; use a chart name to disambiguate",
				ErrAmbiguousManifest, len(sources.Content))
		}
		entry := sources.Content[0]
		if entry.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: spec.sources entry is not a mapping", ErrFieldNotFound)
		}
		return entry, nil
	}

	for _, entry := range sources.Content {
		if entry.Kind != yaml.MappingNode {
			continue
		}
		if scalarValue(entry, "chart") == chart {
			return entry, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrChartNotFound, chart)
}

// setRevision writes version into the targetRevision key of a source
// mapping, creating the key when absent. Returns false when the value is
// already equal.
func setRevision(source *yaml.Node, version string) bool {
	if rev := mapValue(source, "targetRevision"); rev != nil {
		if rev.Value == version {
			return false
		}
		rev.Value = version
		rev.Tag = "!!str"
		if rev.Style == 0 && !roundTripsAsString(version) {
			rev.Style = yaml.DoubleQuotedStyle
		}
		return true
	}

	key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "targetRevision"}
	val := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: version}
	if !roundTripsAsString(version) {
		val.Style = yaml.DoubleQuotedStyle
	}
	source.Content = append(source.Content, key, val)
	return true
}

// mapValue returns the value node for key in a mapping node, or nil.
func mapValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// scalarValue returns the scalar string for key in a mapping node, or "".
func scalarValue(mapping *yaml.Node, key string) string {
	if v := mapValue(mapping, key); v != nil && v.Kind == yaml.ScalarNode {
		return v.Value
	}
	return ""
}

// roundTripsAsString reports whether a plain-style scalar would decode back
// as a string. Versions like "1.30" would otherwise come back as floats.
func roundTripsAsString(value string) bool {
	var out any
	if err := yaml.Unmarshal([]byte(value), &out); err != nil {
		return false
	}
	_, ok := out.(string)
	return ok
}
