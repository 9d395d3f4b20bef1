package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/zeebo/blake3"

	"github.com/custodia-labs/policy-store/internal/core/domain"
	"github.com/custodia-labs/policy-store/internal/core/ports/driven"
	"github.com/custodia-labs/policy-store/internal/core/ports/driving"
	"github.com/custodia-labs/policy-store/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// Ingestion errors.
var (
	// ErrCodecUnavailable indicates vectors were supplied but no index codec is configured.
	ErrCodecUnavailable = errors.New("index codec unavailable")

	// ErrVectorCountMismatch indicates the vectors do not pair one-to-one with segments.
	ErrVectorCountMismatch = errors.New("vector count does not match segment count")
)

// MetaVectorDim records the embedding dimension when the index is built here.
const MetaVectorDim = "vector_dim"

// IngestionService writes a policy's artifacts in order through the
// artifact store: source, segments, metadata, then index.
type IngestionService struct {
	store driving.PolicyStore
	codec driven.IndexCodec
	now   func() time.Time
}

// NewIngestionService creates a new ingestion service.
// The codec parameter is optional (can be nil); without it only
// pre-serialised index blobs are accepted.
func NewIngestionService(store driving.PolicyStore, codec driven.IndexCodec) *IngestionService {
	return &IngestionService{
		store: store,
		codec: codec,
		now:   time.Now,
	}
}

// SetClock overrides the clock used for created_utc.
func (s *IngestionService) SetClock(now func() time.Time) {
	s.now = now
}

// Ingest persists every artifact of req. If the source is already stored
// with identical bytes the run resumes from segments; different bytes fail
// with domain.ErrAlreadyExists.
func (s *IngestionService) Ingest(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	logger.Section("Ingest " + req.ID)

	index, dim, err := s.prepareIndex(req)
	if err != nil {
		return nil, err
	}

	digest := SourceDigest(req.Source)
	resumed, err := s.writeSource(ctx, req.ID, req.Source, digest)
	if err != nil {
		return nil, err
	}
	writesIndex := len(req.Segments) > 0 && index != nil
	if resumed && !writesIndex {
		if err := s.refuseStaleIndex(ctx, req.ID); err != nil {
			return nil, err
		}
	}

	if _, err := s.store.WriteSegments(ctx, req.ID, req.Segments); err != nil {
		return nil, fmt.Errorf("ingest segments: %w", err)
	}

	meta := req.Metadata.Clone()
	setDefault(meta, domain.MetaCreatedUTC, s.now().UTC().Format(time.RFC3339))
	setDefault(meta, domain.MetaPages, domain.PageCount(req.Segments))
	setDefault(meta, domain.MetaChunks, len(req.Segments))
	if dim > 0 {
		setDefault(meta, MetaVectorDim, dim)
	}
	meta[domain.MetaPolicyID] = req.ID
	meta[domain.MetaSourceDigest] = digest
	meta[domain.MetaSourceBytes] = len(req.Source)

	if _, err := s.store.WriteMetadata(ctx, req.ID, meta); err != nil {
		return nil, fmt.Errorf("ingest metadata: %w", err)
	}

	result := &driving.IngestResult{ID: req.ID, Metadata: meta, Resumed: resumed}

	if !writesIndex {
		logger.Info("ingested without index", "id", req.ID, "segments", len(req.Segments))
		return result, nil
	}

	if _, err := s.store.WriteIndex(ctx, req.ID, index); err != nil {
		return nil, fmt.Errorf("ingest index: %w", err)
	}
	result.Indexed = true

	logger.Info("ingested", "id", req.ID, "segments", len(req.Segments), "resumed", resumed)
	return result, nil
}

// writeSource stores the source, treating an identical stored source as done.
func (s *IngestionService) writeSource(ctx context.Context, id string, data []byte, digest string) (bool, error) {
	_, err := s.store.WriteSource(ctx, id, data)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrAlreadyExists) {
		return false, fmt.Errorf("ingest source: %w", err)
	}

	stored, readErr := s.store.ReadSource(ctx, id)
	if readErr != nil {
		return false, fmt.Errorf("ingest source: %w", readErr)
	}
	if SourceDigest(stored) != digest {
		return false, fmt.Errorf("ingest source: %w", err)
	}
	logger.Debug("source already stored, resuming", "id", id)
	return true, nil
}

// refuseStaleIndex fails when a resumed run would replace the segments
// behind an index it does not also replace.
func (s *IngestionService) refuseStaleIndex(ctx context.Context, id string) error {
	status, err := s.store.PolicyStatus(ctx, id)
	if err != nil {
		return fmt.Errorf("ingest index: %w", err)
	}
	if status.Index {
		return fmt.Errorf("ingest index: %w: stored index would outlive its segments; supply a new index",
			domain.ErrPreconditionFailed)
	}
	return nil
}

// prepareIndex returns the index blob to store and, when built here, its dimension.
func (s *IngestionService) prepareIndex(req driving.IngestRequest) ([]byte, int, error) {
	if req.Vectors == nil {
		return req.Index, 0, nil
	}
	if s.codec == nil {
		return nil, 0, ErrCodecUnavailable
	}
	if len(req.Vectors) != len(req.Segments) {
		return nil, 0, fmt.Errorf("%w: %d vectors, %d segments", ErrVectorCountMismatch, len(req.Vectors), len(req.Segments))
	}
	if len(req.Vectors) == 0 {
		return nil, 0, nil
	}

	index, err := s.codec.Build(req.Vectors)
	if err != nil {
		return nil, 0, fmt.Errorf("building index: %w", err)
	}
	data, err := s.codec.Encode(index)
	if err != nil {
		return nil, 0, fmt.Errorf("encoding index: %w", err)
	}
	return data, index.Dim(), nil
}

// SourceDigest returns the hex BLAKE3 digest recorded for a source.
func SourceDigest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func setDefault(meta domain.Metadata, key string, value any) {
	if _, ok := meta[key]; !ok {
		meta[key] = value
	}
}
