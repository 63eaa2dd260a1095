// Package store persists layout documents: the user-pinned node positions
// of one world, keyed by world name.
//
// Only the override map and the dirty set are stored. Computed positions
// are never persisted; they are recomputed (or served from pkg/cache) on
// every load, and the overrides are merged over them.
//
// Backends:
//   - [FileStore]: one JSON file per world, for the CLI and single-node
//     servers
//   - [MongoStore]: one MongoDB document per world, for shared deployments
//
// # Usage
//
//	st, err := store.NewFileStore("")  // ~/.config/worldmap/layouts/
//	doc, err := st.Get(ctx, "midgaard")
//	if errors.Is(err, store.ErrNotFound) {
//	    doc = store.NewDocument("midgaard")
//	}
//	doc.SetSnapshot(session.Snapshot())
//	err = st.Save(ctx, doc)
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	apperr "github.com/matzehuels/worldmap/pkg/errors"
	"github.com/matzehuels/worldmap/pkg/layout/override"
)

// ErrNotFound is returned when no document exists for a world.
var ErrNotFound = errors.New("layout document not found")

// Document is the persisted layout of one world.
type Document struct {
	World     string       `json:"world" bson:"_id"`
	ID        string       `json:"id" bson:"doc_id"`
	Engine    string       `json:"engine,omitempty" bson:"engine,omitempty"`
	Overrides override.Map `json:"overrides" bson:"overrides"`
	Dirty     []string     `json:"dirty,omitempty" bson:"dirty,omitempty"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" bson:"updated_at"`
}

// NewDocument returns an empty document for world with a fresh ID.
func NewDocument(world string) *Document {
	return &Document{
		World:     world,
		ID:        uuid.NewString(),
		Overrides: override.Map{},
	}
}

// Snapshot returns the override state held by d.
func (d *Document) Snapshot() override.Snapshot {
	return override.New(nil, d.Overrides, d.Dirty).Snapshot()
}

// SetSnapshot replaces the override state held by d. The snapshot is
// normalized first: unlocked entries are dropped, and a locked ID is never
// kept in the dirty set.
func (d *Document) SetSnapshot(s override.Snapshot) {
	s = override.New(nil, s.Overrides, s.Dirty).Snapshot()
	d.Overrides = s.Overrides
	d.Dirty = s.Dirty
}

// Summary describes a stored document without its overrides.
type Summary struct {
	World     string    `json:"world" bson:"_id"`
	ID        string    `json:"id" bson:"doc_id"`
	Locked    int       `json:"locked" bson:"-"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Store is the interface for layout document backends.
type Store interface {
	// Get returns the document for world, or ErrNotFound.
	Get(ctx context.Context, world string) (*Document, error)

	// Save creates or replaces the document for doc.World. Save assigns an
	// ID to new documents and maintains the timestamps.
	Save(ctx context.Context, doc *Document) error

	// Delete removes the document for world, or returns ErrNotFound.
	Delete(ctx context.Context, world string) error

	// List returns a summary of every stored document, sorted by world.
	List(ctx context.Context) ([]Summary, error)

	// Close releases backend resources.
	Close() error
}

// prepare validates doc and fills the fields Save maintains.
func prepare(doc *Document, now time.Time) error {
	if doc == nil {
		return apperr.New(apperr.ErrCodeInvalidInput, "document is nil")
	}
	if err := apperr.ValidateWorldName(doc.World); err != nil {
		return err
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	} else if _, err := uuid.Parse(doc.ID); err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid document id %q", doc.ID)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	doc.Overrides = doc.Overrides.Clone()
	return nil
}
