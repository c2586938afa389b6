package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreInsertAndSnapshot(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := &InspectionRecord{GaugeID: "FE0001", Timestamp: "20250101120000", ValAI: "OK"}
	require.NoError(t, s.Insert(ctx, rec))

	// Mutating the caller's record must not reach the stored copy.
	rec.ValAI = "changed"

	got := s.Records()
	require.Len(t, got, 1)
	require.Equal(t, "OK", got[0].ValAI)
}

func TestMemoryStoreAcceptsDuplicates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := &InspectionRecord{GaugeID: "FE0001", Timestamp: "20250101120000"}
	require.NoError(t, s.Insert(ctx, rec))
	require.NoError(t, s.Insert(ctx, rec))

	require.Len(t, s.Records(), 2)
}

func TestMemoryStorePing(t *testing.T) {
	s := NewMemoryStore()
	h := s.Ping(context.Background())
	require.True(t, h.OK)
	require.Empty(t, h.Detail)
}
