package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore keeps one document per inspection in a MongoDB collection.
// The client's connection pool is the process-wide shared resource:
// opened once at startup, safe for concurrent requests, closed on
// shutdown.
type MongoStore struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoStore connects to MongoDB and binds the inspection collection.
func NewMongoStore(ctx context.Context, uri, database, collection string, timeout time.Duration) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	return &MongoStore{
		client:  client,
		coll:    client.Database(database).Collection(collection),
		timeout: timeout,
	}, nil
}

// Insert appends one record.
func (s *MongoStore) Insert(ctx context.Context, rec *InspectionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}

// Ping probes the primary. Unreachability comes back as an Unhealthy
// status with the driver's error text, not as a failure.
func (s *MongoStore) Ping(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return Health{OK: false, Detail: err.Error()}
	}
	return Health{OK: true}
}

// Close disconnects the client, draining the connection pool.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ RecordStore = (*MongoStore)(nil)
