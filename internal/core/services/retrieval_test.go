package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policy-store/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/policy-store/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/policy-store/internal/core/domain"
	"github.com/custodia-labs/policy-store/internal/core/ports/driving"
)

func setupRetrieval(t *testing.T) (*ArtifactStore, *RetrievalService) {
	t.Helper()
	store, ingestion := setupIngestion(t)
	_, err := ingestion.Ingest(context.Background(), driving.IngestRequest{
		ID:       "p",
		Source:   []byte("pdf"),
		Segments: sampleSegments(),
		Vectors:  sampleVectors(),
	})
	require.NoError(t, err)
	return store, NewRetrievalService(store, flat.NewCodec(flat.PrecisionFloat32))
}

func TestRetrievalService_Retrieve(t *testing.T) {
	_, service := setupRetrieval(t)

	results, err := service.Retrieve(context.Background(), "p", []float32{0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "p1_c2", results[0].Segment.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "p1_c3", results[1].Segment.ID)
	assert.InDelta(t, 0.8, results[1].Score, 1e-6)

	assert.True(t, driving.EvidenceSufficient(results, 0.25))
	assert.False(t, driving.EvidenceSufficient(results, 1.5))
	assert.False(t, driving.EvidenceSufficient(nil, 0))
}

func TestRetrievalService_DropsOutOfRangePositions(t *testing.T) {
	store, service := setupRetrieval(t)
	ctx := context.Background()

	// Segments shrank after the index was built.
	_, err := store.WriteSegments(ctx, "p", sampleSegments()[:1])
	require.NoError(t, err)

	results, err := service.Retrieve(ctx, "p", []float32{0, 1}, 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p1_c1", results[0].Segment.ID)
}

func TestRetrievalService_MissingArtifacts(t *testing.T) {
	store := NewArtifactStore(memory.NewBlobStore())
	service := NewRetrievalService(store, flat.NewCodec(flat.PrecisionFloat32))
	ctx := context.Background()

	_, err := service.Retrieve(ctx, "absent", []float32{1}, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.WriteSegments(ctx, "no-index", sampleSegments())
	require.NoError(t, err)
	_, err = service.Retrieve(ctx, "no-index", []float32{1}, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRetrievalService_CorruptIndex(t *testing.T) {
	store := NewArtifactStore(memory.NewBlobStore())
	service := NewRetrievalService(store, flat.NewCodec(flat.PrecisionFloat32))
	ctx := context.Background()

	_, err := store.WriteSegments(ctx, "p", sampleSegments())
	require.NoError(t, err)
	_, err = store.WriteIndex(ctx, "p", []byte{0x00, 0x01})
	require.NoError(t, err)

	_, err = service.Retrieve(ctx, "p", []float32{1}, 1)
	assert.ErrorIs(t, err, flat.ErrCorruptIndex)
}

func TestRetrievalService_NoCodec(t *testing.T) {
	service := NewRetrievalService(NewArtifactStore(memory.NewBlobStore()), nil)

	_, err := service.Retrieve(context.Background(), "p", []float32{1}, 1)
	assert.ErrorIs(t, err, ErrCodecUnavailable)
}
