package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/flowboard/pkg/flow"
)

const (
	flowchartCollection = "flowcharts"
	counterCollection   = "counters"
	flowchartCounterID  = "flowcharts"
)

// MongoStore is a MongoDB-backed Store. Flowcharts live in the "flowcharts"
// collection keyed by their numeric ID; the "counters" collection holds the
// ID sequence.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to MongoDB at uri and verifies the connection.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

// nextID atomically increments and returns the flowchart ID sequence.
// The counter document is created on first use.
func (s *MongoStore) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(counterCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": flowchartCounterID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("increment ID counter: %w", err)
	}
	return counter.Seq, nil
}

// Create assigns a fresh ID from the sequence and inserts the document.
func (s *MongoStore) Create(ctx context.Context, fc *flow.Flowchart) error {
	id, err := s.nextID(ctx)
	if err != nil {
		return err
	}
	fc.ID = id
	fc.Revision = 1
	fc.Normalize()

	if _, err := s.db.Collection(flowchartCollection).InsertOne(ctx, fc); err != nil {
		return fmt.Errorf("insert flowchart %d: %w", id, err)
	}
	return nil
}

// Get returns the flowchart with the given ID, or ErrNotFound.
func (s *MongoStore) Get(ctx context.Context, id int64) (*flow.Flowchart, error) {
	var fc flow.Flowchart
	err := s.db.Collection(flowchartCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&fc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find flowchart %d: %w", id, err)
	}
	fc.Normalize()
	return &fc, nil
}

// List returns all flowcharts in ascending ID order.
func (s *MongoStore) List(ctx context.Context) ([]*flow.Flowchart, error) {
	cursor, err := s.db.Collection(flowchartCollection).Find(
		ctx,
		bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list flowcharts: %w", err)
	}
	defer cursor.Close(ctx)

	out := []*flow.Flowchart{}
	for cursor.Next(ctx) {
		var fc flow.Flowchart
		if err := cursor.Decode(&fc); err != nil {
			return nil, fmt.Errorf("decode flowchart: %w", err)
		}
		fc.Normalize()
		out = append(out, &fc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate flowcharts: %w", err)
	}
	return out, nil
}

// Update replaces name, nodes, and edges and bumps the revision atomically.
func (s *MongoStore) Update(ctx context.Context, fc *flow.Flowchart) error {
	fc.Normalize()
	var updated flow.Flowchart
	err := s.db.Collection(flowchartCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": fc.ID},
		bson.M{
			"$set": bson.M{"name": fc.Name, "nodes": fc.Nodes, "edges": fc.Edges},
			"$inc": bson.M{"revision": int64(1)},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update flowchart %d: %w", fc.ID, err)
	}
	fc.Revision = updated.Revision
	return nil
}

// Delete removes a flowchart, or returns ErrNotFound.
func (s *MongoStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.Collection(flowchartCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete flowchart %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Close disconnects the MongoDB client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
