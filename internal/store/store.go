package store

import "context"

// InspectionRecord is one append-only audit entry per processed gauge
// photo. Records are never mutated or deleted; duplicates on the
// (gauge_id, timestamp) natural key are possible and accepted.
type InspectionRecord struct {
	GaugeID     string `bson:"gauge_id"`
	IP          string `bson:"ip"`
	Lat         string `bson:"lat"`
	Lon         string `bson:"lon"`
	Timestamp   string `bson:"timestamp"`
	ValAI       string `bson:"val_ai"`
	ValRead     string `bson:"val_read"`
	Image       string `bson:"image"`
	ResultImage string `bson:"result_image"`
}

// Health is the outcome of a liveness probe against the backing store.
// Unreachability is reported as data, never as a panic.
type Health struct {
	OK     bool
	Detail string
}

// RecordStore persists inspection records and reports its own liveness.
type RecordStore interface {
	Insert(ctx context.Context, rec *InspectionRecord) error
	Ping(ctx context.Context) Health
}

// PersistenceError reports a failed record insert.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persist record: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }
