// Package snapshot serves saved HTML documents through the dom interfaces.
// A manifest describes the frame tree of a captured course page; each frame
// points at an HTML file or carries its markup inline. Clicks and completion
// API calls are recorded instead of performed, so the course automation can
// be driven and inspected without a browser.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FrameSpec describes one document in the frame tree.
type FrameSpec struct {
	// Name is the name attribute of the hosting frame element.
	Name string `yaml:"name"`

	// HTML is a file path, relative to the manifest.
	HTML string `yaml:"html"`

	// Source is inline markup used when HTML is empty.
	Source string `yaml:"source"`

	// API publishes a recording completion API on this frame's window.
	API bool `yaml:"api"`

	// Blocked makes every document access fail, like a cross-origin frame.
	Blocked bool `yaml:"blocked"`

	Frames []FrameSpec `yaml:"frames"`
}

// Manifest is the root of a snapshot file.
type Manifest struct {
	URL string `yaml:"url"`
	FrameSpec `yaml:",inline"`
}

// Load reads a manifest file and the HTML files it references.
func Load(path string) (*Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse builds a page from manifest YAML. Relative HTML paths resolve
// against baseDir.
func Parse(data []byte, baseDir string) (*Page, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := resolveSources(&manifest.FrameSpec, baseDir); err != nil {
		return nil, err
	}

	page, err := New(manifest.FrameSpec)
	if err != nil {
		return nil, err
	}
	page.url = manifest.URL
	return page, nil
}

func resolveSources(spec *FrameSpec, baseDir string) error {
	if spec.HTML != "" {
		path := spec.HTML
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read frame %q: %w", spec.Name, err)
		}
		spec.Source = string(data)
	}

	for i := range spec.Frames {
		if err := resolveSources(&spec.Frames[i], baseDir); err != nil {
			return err
		}
	}
	return nil
}
