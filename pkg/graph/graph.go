package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matzehuels/worldmap/pkg/layout/override"
)

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteLayout(l, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteLayout writes a Layout as indented JSON to an io.Writer.
func WriteLayout(l Layout, w io.Writer) error {
	if l.Version == 0 {
		l.Version = FormatVersion
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Validates that every node has an ID and every edge has endpoints.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Version > FormatVersion {
		return Layout{}, fmt.Errorf("unsupported layout version %d", l.Version)
	}
	for i, n := range l.Nodes {
		if n.ID == "" {
			return Layout{}, fmt.Errorf("node %d: missing id", i)
		}
	}
	for i, e := range l.Edges {
		if e.From == "" || e.To == "" {
			return Layout{}, fmt.Errorf("edge %d: missing endpoint", i)
		}
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}

// =============================================================================
// Overrides File
// =============================================================================

// Overrides is the on-disk form of a persisted layout: the user-pinned
// positions of one world plus the nodes still waiting for a relayout. It
// sits next to the world file, e.g. midgaard.layout.json.
type Overrides struct {
	World     string       `json:"world,omitempty"`
	Overrides override.Map `json:"overrides"`
	Dirty     []string     `json:"dirty,omitempty"`
	UpdatedAt time.Time    `json:"updated_at,omitzero"`
}

// Snapshot returns the override state part of o.
func (o Overrides) Snapshot() override.Snapshot {
	return override.Snapshot{Overrides: o.Overrides.Clone(), Dirty: o.Dirty}
}

// NewOverrides wraps a snapshot for writing.
func NewOverrides(world string, snap override.Snapshot) Overrides {
	return Overrides{
		World:     world,
		Overrides: snap.Overrides.Clone(),
		Dirty:     snap.Dirty,
		UpdatedAt: time.Now().UTC(),
	}
}

// ReadOverrides decodes an overrides document.
func ReadOverrides(r io.Reader) (Overrides, error) {
	var o Overrides
	if err := json.NewDecoder(r).Decode(&o); err != nil {
		return Overrides{}, fmt.Errorf("decode overrides: %w", err)
	}
	if o.Overrides == nil {
		o.Overrides = override.Map{}
	}
	return o, nil
}

// WriteOverrides encodes an overrides document as indented JSON.
func WriteOverrides(o Overrides, w io.Writer) error {
	if o.Overrides == nil {
		o.Overrides = override.Map{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(o); err != nil {
		return fmt.Errorf("encode overrides: %w", err)
	}
	return nil
}

// ReadOverridesFile reads an overrides document. A missing file yields an
// empty document and no error, so a world without saved edits lays out
// normally.
func ReadOverridesFile(path string) (Overrides, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Overrides{Overrides: override.Map{}}, nil
	}
	if err != nil {
		return Overrides{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadOverrides(f)
}

// WriteOverridesFile writes an overrides document to path.
func WriteOverridesFile(o Overrides, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteOverrides(o, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
