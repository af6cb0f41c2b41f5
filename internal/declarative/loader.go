package declarative

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadOptions configures YAML loading behavior.
type LoadOptions struct {
	AllowUnknownFields bool
}

// LoadDirectory reads all YAML cube declarations from dir, sorted by file
// name for deterministic ordering.
func LoadDirectory(dir string) ([]CubeDoc, error) {
	return LoadDirectoryWithOptions(dir, LoadOptions{})
}

// LoadDirectoryWithOptions reads all YAML cube declarations from dir using
// caller-provided loading options.
func LoadDirectoryWithOptions(dir string, opts LoadOptions) ([]CubeDoc, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("schema directory: %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read schema directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	docs := make([]CubeDoc, 0, len(paths))
	for _, path := range paths {
		doc, err := LoadFile(path, opts)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// LoadFile reads and parses a single cube declaration file.
func LoadFile(path string, opts LoadOptions) (*CubeDoc, error) {
	data, err := os.ReadFile(path) //nolint:gosec // intentional: reading user-specified schema files
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var envelope Document
	if err := yaml.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := validateDocument(path, envelope.APIVersion, envelope.Kind); err != nil {
		return nil, err
	}

	var doc CubeDoc
	if opts.AllowUnknownFields {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if doc.Metadata.Name == "" {
		return nil, fmt.Errorf("%s: metadata.name is required", path)
	}
	doc.SourceFile = path
	return &doc, nil
}

// validateDocument checks the apiVersion and kind fields.
func validateDocument(path, apiVersion, kind string) error {
	if apiVersion != SupportedAPIVersion {
		return fmt.Errorf("%s: unsupported apiVersion %q (expected %q)", path, apiVersion, SupportedAPIVersion)
	}
	if kind != KindCube {
		return fmt.Errorf("%s: unsupported kind %q (expected %q)", path, kind, KindCube)
	}
	return nil
}
