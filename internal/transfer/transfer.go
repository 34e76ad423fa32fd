// Package transfer moves module records in and out of the system as JSON or YAML files.
// YAML goes through the JSON wire shape, so both formats carry exactly the same fields.
package transfer

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aretw0/nestflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format is a file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from a file name, defaulting to YAML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Export writes a module.
func Export(w io.Writer, m *domain.Module, f Format) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode module %s: %w", m.ID, err)
	}

	if f == FormatJSON {
		var out any
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return fmt.Errorf("failed to write YAML: %w", err)
	}
	return enc.Close()
}

// Import reads a module. Missing content yields an empty graph; unknown node types fail.
func Import(r io.Reader, f Format) (*domain.Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if f == FormatYAML {
		var tree any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		if data, err = json.Marshal(tree); err != nil {
			return nil, fmt.Errorf("failed to convert YAML: %w", err)
		}
	}

	var m domain.Module
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode module: %w", err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("module has no id")
	}
	if m.Content.Nodes == nil {
		m.Content.Nodes = []domain.Node{}
	}
	if m.Visibility == "" {
		m.Visibility = domain.VisibilityDraft
	}
	return &m, nil
}
