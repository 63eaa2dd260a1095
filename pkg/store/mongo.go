package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	apperr "github.com/matzehuels/worldmap/pkg/errors"
)

// Default MongoDB names.
const (
	DefaultDatabase   = "worldmap"
	DefaultCollection = "layouts"
)

// MongoConfig configures a MongoStore.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration // Connect and server selection timeout
}

// MongoStore keeps one document per world in a MongoDB collection. The
// world name is the document _id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo: uri required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, apperr.Wrap(apperr.ErrCodeUnavailable, err, "mongo ping")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// NewMongoStoreFromCollection wraps an existing collection. Close does not
// disconnect the client.
func NewMongoStoreFromCollection(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// Get implements [Store].
func (s *MongoStore) Get(ctx context.Context, world string) (*Document, error) {
	if err := apperr.ValidateWorldName(world); err != nil {
		return nil, err
	}
	var doc Document
	err := s.coll.FindOne(ctx, bson.M{"_id": world}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", world, err)
	}
	return &doc, nil
}

// Save implements [Store] with an upsert.
func (s *MongoStore) Save(ctx context.Context, doc *Document) error {
	if err := prepare(doc, time.Now().UTC().Truncate(time.Millisecond)); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.World}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo save %s: %w", doc.World, err)
	}
	return nil
}

// Delete implements [Store].
func (s *MongoStore) Delete(ctx context.Context, world string) error {
	if err := apperr.ValidateWorldName(world); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": world})
	if err != nil {
		return fmt.Errorf("mongo delete %s: %w", world, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List implements [Store].
func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	var docs []Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	out := make([]Summary, len(docs))
	for i, d := range docs {
		out[i] = Summary{World: d.World, ID: d.ID, Locked: len(d.Overrides), UpdatedAt: d.UpdatedAt}
	}
	return out, nil
}

// Close implements [Store].
func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
