package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoDatabase   = "netdraw"
	mongoCollection = "diagrams"
)

// MongoStore persists diagrams in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB at uri and verifies the connection.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(mongoDatabase).Collection(mongoCollection),
	}, nil
}

// Put upserts a diagram under its ID.
func (s *MongoStore) Put(ctx context.Context, d Diagram) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": d.ID}, d, options.Replace().SetUpsert(true))
	return err
}

// Get returns the diagram with the given ID, or ErrNotFound.
func (s *MongoStore) Get(ctx context.Context, id string) (Diagram, error) {
	var d Diagram
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Diagram{}, ErrNotFound
	}
	if err != nil {
		return Diagram{}, err
	}
	return d, nil
}

// List returns up to limit recent diagrams, newest first.
func (s *MongoStore) List(ctx context.Context, limit int) ([]Diagram, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Diagram
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
