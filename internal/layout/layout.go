// Package layout reads and writes blueprint layouts as YAML files.
//
// A layout file looks like:
//
//	version: 1
//	views:
//	  - view:
//	      id: plot
//	      class: TimeSeries
//	    defaults:
//	      - timeline: log_time
//	        range: {start: rel:-5s, end: cursor}
//	    overrides:
//	      /robot/arm:
//	        - timeline: log_tick
//	          range:
//	            start: {kind: relative_to_cursor, time: -500}
//	            end: {kind: infinite}
//
// Boundaries may be written as mappings or in the short text form.
package layout

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tOgg1/visrange/internal/blueprint"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the layout file version written by Export.
const CurrentVersion = 1

// ErrUnsupportedVersion is returned for layout files from a newer release.
var ErrUnsupportedVersion = errors.New("unsupported layout version")

// File is the on-disk layout document.
type File struct {
	Version int                    `yaml:"version"`
	Views   []blueprint.ViewConfig `yaml:"views"`
}

// Export writes snap as YAML.
func Export(w io.Writer, snap *blueprint.Snapshot) error {
	doc := File{Version: CurrentVersion, Views: snap.Configs()}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode layout: %w", err)
	}
	return enc.Close()
}

// Import reads a YAML layout and validates it into a snapshot. Unknown keys
// are rejected so typos do not silently drop configuration.
func Import(r io.Reader) (*blueprint.Snapshot, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc File
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return blueprint.EmptySnapshot(), nil
		}
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	switch {
	case doc.Version == 0:
		doc.Version = CurrentVersion
	case doc.Version > CurrentVersion:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	snap, err := blueprint.NewSnapshot(doc.Views)
	if err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	return snap, nil
}

// ExportFile writes snap to path, creating parent directories.
func ExportFile(path string, snap *blueprint.Snapshot) error {
	var buf bytes.Buffer
	if err := Export(&buf, snap); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create layout directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write layout file: %w", err)
	}
	return nil
}

// ImportFile reads a layout from path.
func ImportFile(path string) (*blueprint.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open layout file: %w", err)
	}
	defer f.Close()
	return Import(f)
}
