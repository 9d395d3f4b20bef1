package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/policy-store/internal/core/ports/driven"
	"github.com/custodia-labs/policy-store/internal/core/ports/driving"
	"github.com/custodia-labs/policy-store/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService answers vector queries from stored segments and indexes.
type RetrievalService struct {
	store driving.PolicyStore
	codec driven.IndexCodec
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(store driving.PolicyStore, codec driven.IndexCodec) *RetrievalService {
	return &RetrievalService{store: store, codec: codec}
}

// Retrieve loads the policy's segments and index and returns up to k
// segments ordered by descending similarity. Hits whose position has no
// matching segment are dropped.
func (s *RetrievalService) Retrieve(ctx context.Context, policyID string, query []float32, k int) ([]driving.ScoredSegment, error) {
	if s.codec == nil {
		return nil, ErrCodecUnavailable
	}

	segments, err := s.store.ReadSegments(ctx, policyID)
	if err != nil {
		return nil, err
	}
	blob, err := s.store.ReadIndex(ctx, policyID)
	if err != nil {
		return nil, err
	}

	index, err := s.codec.Decode(blob)
	if err != nil {
		return nil, fmt.Errorf("decoding index for %s: %w", policyID, err)
	}
	hits, err := index.Search(query, k)
	if err != nil {
		return nil, fmt.Errorf("searching index for %s: %w", policyID, err)
	}

	results := make([]driving.ScoredSegment, 0, len(hits))
	for _, hit := range hits {
		if hit.Position < 0 || hit.Position >= len(segments) {
			logger.Warn("index position out of range", "policy", policyID, "position", hit.Position)
			continue
		}
		results = append(results, driving.ScoredSegment{Score: hit.Score, Segment: segments[hit.Position]})
	}

	logger.Debug("retrieved", "policy", policyID, "hits", len(results))
	return results, nil
}
