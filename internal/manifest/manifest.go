// Package manifest loads the extension manifest template and rewrites its
// wheels listing from the final artifact set.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

const (
	// Filename is the manifest name consumed by the host's packaging subcommand.
	Filename = "blender_manifest.toml"

	// TemplateFilename is the template read from the source tree.
	TemplateFilename = "blender_manifest.toml.template"

	// wheelsKey is the single field this pipeline mutates.
	wheelsKey = "wheels"

	// header marks the output as generated.
	header = "# blender_manifest.toml generated by batoms-builder, please do not modify the wheels field.\n"

	// filePermissions for the generated manifest.
	filePermissions = 0o644
)

// Document is a manifest parsed from the template. Only the wheels field is
// interpreted; everything else passes through untouched.
type Document struct {
	data map[string]any
}

// LoadTemplate parses the TOML template at templatePath.
func LoadTemplate(templatePath string) (*Document, error) {
	contents, err := os.ReadFile(filepath.Clean(templatePath))
	if err != nil {
		return nil, fmt.Errorf("read manifest template: %w", err)
	}

	data := make(map[string]any)
	if err := toml.Unmarshal(contents, &data); err != nil {
		return nil, fmt.Errorf("parse manifest template: %w", err)
	}

	return &Document{data: data}, nil
}

// SetWheels wholesale overwrites the wheels field with one wheels/<file>
// entry per artifact filename, sorted. The paths use forward slashes
// regardless of host OS, as the manifest format requires.
func (d *Document) SetWheels(filenames []string) {
	entries := make([]string, 0, len(filenames))
	for _, name := range filenames {
		entries = append(entries, path.Join("wheels", name))
	}

	sort.Strings(entries)

	d.data[wheelsKey] = entries
}

// Wheels returns the current wheels listing.
func (d *Document) Wheels() []string {
	raw, ok := d.data[wheelsKey]
	if !ok {
		return nil
	}

	switch entries := raw.(type) {
	case []string:
		return entries
	case []any:
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}

// Write renders the manifest to target with a generated-file header.
// Given identical wheels listings the output is byte-for-byte identical.
func (d *Document) Write(target string) error {
	var buf bytes.Buffer

	buf.WriteString(header)

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(d.data); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if err := os.WriteFile(target, buf.Bytes(), filePermissions); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}
