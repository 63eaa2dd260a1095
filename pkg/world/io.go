package world

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies a world document encoding.
type Format string

// Supported world document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is the wire form of a world file.
type Document struct {
	Name  string         `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes []NodeDoc      `json:"nodes" yaml:"nodes"`
	Exits []ExitDoc      `json:"exits,omitempty" yaml:"exits,omitempty"`
	Meta  map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// NodeDoc is a node entry of a world file. Exits holds MUD-style inline exits
// keyed by direction word.
type NodeDoc struct {
	ID    string            `json:"id" yaml:"id"`
	Label string            `json:"label,omitempty" yaml:"label,omitempty"`
	Kind  string            `json:"kind,omitempty" yaml:"kind,omitempty"`
	Exits map[string]string `json:"exits,omitempty" yaml:"exits,omitempty"`
	Meta  map[string]any    `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// ExitDoc is a top-level exit entry of a world file.
type ExitDoc struct {
	From      string         `json:"from" yaml:"from"`
	To        string         `json:"to" yaml:"to"`
	Direction string         `json:"direction" yaml:"direction"`
	External  bool           `json:"external,omitempty" yaml:"external,omitempty"`
	Meta      map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// FormatForPath picks the encoding from a file extension. Anything that is
// not .yaml or .yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ReadFile reads a world document from disk.
func ReadFile(path string) (*World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, FormatForPath(path))
}

// Read decodes a world document in the given format.
func Read(r io.Reader, format Format) (*World, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	}
	return FromDocument(doc)
}

// WriteFile writes w to path, choosing the encoding from the extension.
func WriteFile(w *World, path string) error {
	var buf bytes.Buffer
	if err := Write(w, &buf, FormatForPath(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Write encodes w in the given format. Exits are always written as a
// top-level list.
func Write(w *World, out io.Writer, format Format) error {
	doc := ToDocument(w)
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	}
	return nil
}

// FromDocument builds a World from its wire form. Inline exits are appended
// after the top-level list, node by node, in sorted direction-word order so
// the result does not depend on map iteration.
func FromDocument(doc Document) (*World, error) {
	meta := Metadata(maps.Clone(doc.Meta))
	if doc.Name != "" {
		if meta == nil {
			meta = Metadata{}
		}
		meta["name"] = doc.Name
	}
	w := New(meta)

	for _, nd := range doc.Nodes {
		n := Node{
			ID:    nd.ID,
			Label: nd.Label,
			Kind:  ParseKind(nd.Kind),
			Meta:  maps.Clone(nd.Meta),
		}
		if err := w.AddNode(n); err != nil {
			return nil, fmt.Errorf("add node %q: %w", nd.ID, err)
		}
	}

	// Exits without both endpoints are dropped one by one; a single broken
	// exit must not keep the rest of the world from loading.
	for _, ed := range doc.Exits {
		e := Exit{From: ed.From, To: ed.To, Direction: ed.Direction, External: ed.External, Meta: maps.Clone(ed.Meta)}
		if w.AddExit(e) != nil {
			w.skipped++
		}
	}

	for _, nd := range doc.Nodes {
		for _, dir := range slices.Sorted(maps.Keys(nd.Exits)) {
			if w.AddExit(Exit{From: nd.ID, To: nd.Exits[dir], Direction: dir}) != nil {
				w.skipped++
			}
		}
	}

	return w, nil
}

// ToDocument converts a World to its wire form.
func ToDocument(w *World) Document {
	doc := Document{
		Nodes: make([]NodeDoc, 0, w.NodeCount()),
		Exits: make([]ExitDoc, 0, w.ExitCount()),
	}
	meta := maps.Clone(w.Meta())
	if name, ok := meta["name"].(string); ok {
		doc.Name = name
		delete(meta, "name")
	}
	if len(meta) > 0 {
		doc.Meta = meta
	}

	for _, n := range w.Nodes() {
		nd := NodeDoc{ID: n.ID, Label: n.Label}
		if n.Kind != KindRoom {
			nd.Kind = n.Kind.String()
		}
		if len(n.Meta) > 0 {
			nd.Meta = n.Meta
		}
		doc.Nodes = append(doc.Nodes, nd)
	}
	for _, e := range w.Exits() {
		ed := ExitDoc{From: e.From, To: e.To, Direction: e.Direction, External: e.External}
		if len(e.Meta) > 0 {
			ed.Meta = e.Meta
		}
		doc.Exits = append(doc.Exits, ed)
	}
	return doc
}

// Name returns the world's name from its metadata, or "" when unset.
func (w *World) Name() string {
	name, _ := w.meta["name"].(string)
	return name
}
