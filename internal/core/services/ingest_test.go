package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policy-store/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/policy-store/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/policy-store/internal/core/domain"
	"github.com/custodia-labs/policy-store/internal/core/ports/driving"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupIngestion(t *testing.T) (*ArtifactStore, *IngestionService) {
	t.Helper()
	store := NewArtifactStore(memory.NewBlobStore())
	service := NewIngestionService(store, flat.NewCodec(flat.PrecisionFloat32))
	service.SetClock(func() time.Time { return fixedNow })
	return store, service
}

func sampleVectors() [][]float32 {
	return [][]float32{{1, 0}, {0, 1}, {0.6, 0.8}}
}

func TestIngestionService_Ingest(t *testing.T) {
	store, service := setupIngestion(t)
	ctx := context.Background()

	result, err := service.Ingest(ctx, driving.IngestRequest{
		ID:       "policy-1",
		Source:   []byte("%PDF-1.4"),
		Segments: sampleSegments(),
		Metadata: domain.Metadata{domain.MetaEmbedModel: "all-MiniLM-L6-v2"},
		Vectors:  sampleVectors(),
	})
	require.NoError(t, err)
	assert.False(t, result.Resumed)
	assert.True(t, result.Indexed)

	status, err := store.PolicyStatus(ctx, "policy-1")
	require.NoError(t, err)
	assert.True(t, status.Complete())

	meta, err := store.ReadMetadata(ctx, "policy-1")
	require.NoError(t, err)
	assert.Equal(t, "policy-1", meta.String(domain.MetaPolicyID))
	assert.Equal(t, "2026-03-01T12:00:00Z", meta.String(domain.MetaCreatedUTC))
	assert.Equal(t, SourceDigest([]byte("%PDF-1.4")), meta.String(domain.MetaSourceDigest))
	assert.Equal(t, 8, meta.Int(domain.MetaSourceBytes))
	assert.Equal(t, 3, meta.Int(domain.MetaChunks))
	assert.Equal(t, 2, meta.Int(domain.MetaPages))
	assert.Equal(t, 2, meta.Int(MetaVectorDim))
	assert.Equal(t, "all-MiniLM-L6-v2", meta.String(domain.MetaEmbedModel))
}

func TestIngestionService_CallerMetadataWins(t *testing.T) {
	store, service := setupIngestion(t)
	ctx := context.Background()

	_, err := service.Ingest(ctx, driving.IngestRequest{
		ID:       "p",
		Source:   []byte("pdf"),
		Segments: sampleSegments(),
		Metadata: domain.Metadata{
			domain.MetaPages:    10,
			domain.MetaPolicyID: "spoofed",
		},
	})
	require.NoError(t, err)

	meta, err := store.ReadMetadata(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 10, meta.Int(domain.MetaPages))
	assert.Equal(t, "p", meta.String(domain.MetaPolicyID))
}

func TestIngestionService_ResumeSameSource(t *testing.T) {
	store, service := setupIngestion(t)
	ctx := context.Background()

	// A previous run stored the source and then failed.
	_, err := store.WriteSource(ctx, "p", []byte("pdf"))
	require.NoError(t, err)

	result, err := service.Ingest(ctx, driving.IngestRequest{
		ID:       "p",
		Source:   []byte("pdf"),
		Segments: sampleSegments(),
		Vectors:  sampleVectors(),
	})
	require.NoError(t, err)
	assert.True(t, result.Resumed)
	assert.True(t, result.Indexed)
}

func TestIngestionService_ResumeWithoutIndexRefusesStaleIndex(t *testing.T) {
	store, service := setupIngestion(t)
	ctx := context.Background()

	_, err := service.Ingest(ctx, driving.IngestRequest{
		ID:       "p",
		Source:   []byte("pdf"),
		Segments: sampleSegments(),
		Index:    []byte{0xfa, 0xce},
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  driving.IngestRequest
	}{
		{"segments without index", driving.IngestRequest{ID: "p", Source: []byte("pdf"), Segments: sampleSegments()[:1]}},
		{"no segments", driving.IngestRequest{ID: "p", Source: []byte("pdf"), Index: []byte{0x01}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Ingest(ctx, tt.req)
			assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

			// Nothing was replaced.
			segments, err := store.ReadSegments(ctx, "p")
			require.NoError(t, err)
			assert.Len(t, segments, len(sampleSegments()))
			data, err := store.ReadIndex(ctx, "p")
			require.NoError(t, err)
			assert.Equal(t, []byte{0xfa, 0xce}, data)
		})
	}

	// A fresh index is accepted.
	result, err := service.Ingest(ctx, driving.IngestRequest{
		ID:       "p",
		Source:   []byte("pdf"),
		Segments: sampleSegments()[:1],
		Index:    []byte{0xbe, 0xef},
	})
	require.NoError(t, err)
	assert.True(t, result.Resumed)
	assert.True(t, result.Indexed)
}

func TestIngestionService_DifferentSourceRejected(t *testing.T) {
	store, service := setupIngestion(t)
	ctx := context.Background()

	_, err := store.WriteSource(ctx, "p", []byte("old"))
	require.NoError(t, err)

	_, err = service.Ingest(ctx, driving.IngestRequest{ID: "p", Source: []byte("new"), Segments: sampleSegments()})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	status, err := store.PolicyStatus(ctx, "p")
	require.NoError(t, err)
	assert.False(t, status.Segments)
}

func TestIngestionService_NoSegmentsSkipsIndex(t *testing.T) {
	store, service := setupIngestion(t)
	ctx := context.Background()

	result, err := service.Ingest(ctx, driving.IngestRequest{
		ID:     "scanned",
		Source: []byte("pdf"),
		Index:  []byte{0x01},
	})
	require.NoError(t, err)
	assert.False(t, result.Indexed)

	status, err := store.PolicyStatus(ctx, "scanned")
	require.NoError(t, err)
	assert.True(t, status.Metadata)
	assert.False(t, status.Index)

	segments, err := store.ReadSegments(ctx, "scanned")
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestIngestionService_PrebuiltIndex(t *testing.T) {
	store, service := setupIngestion(t)
	ctx := context.Background()

	result, err := service.Ingest(ctx, driving.IngestRequest{
		ID:       "p",
		Source:   []byte("pdf"),
		Segments: sampleSegments(),
		Index:    []byte{0xfa, 0xce},
	})
	require.NoError(t, err)
	assert.True(t, result.Indexed)

	data, err := store.ReadIndex(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xfa, 0xce}, data)
}

func TestIngestionService_VectorCountMismatch(t *testing.T) {
	store, service := setupIngestion(t)
	ctx := context.Background()

	_, err := service.Ingest(ctx, driving.IngestRequest{
		ID:       "p",
		Source:   []byte("pdf"),
		Segments: sampleSegments(),
		Vectors:  sampleVectors()[:1],
	})
	assert.ErrorIs(t, err, ErrVectorCountMismatch)

	// Rejected before anything was written.
	status, err := store.PolicyStatus(ctx, "p")
	require.NoError(t, err)
	assert.False(t, status.Exists())
}

func TestIngestionService_NoCodec(t *testing.T) {
	service := NewIngestionService(NewArtifactStore(memory.NewBlobStore()), nil)

	_, err := service.Ingest(context.Background(), driving.IngestRequest{
		ID:       "p",
		Source:   []byte("pdf"),
		Segments: sampleSegments(),
		Vectors:  sampleVectors(),
	})
	assert.ErrorIs(t, err, ErrCodecUnavailable)
}

func TestIngestionService_InvalidIdentifier(t *testing.T) {
	_, service := setupIngestion(t)

	_, err := service.Ingest(context.Background(), driving.IngestRequest{ID: "../p", Source: []byte("pdf")})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
}
