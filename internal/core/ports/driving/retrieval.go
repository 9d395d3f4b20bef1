package driving

import (
	"context"

	"github.com/custodia-labs/policy-store/internal/core/domain"
)

// ScoredSegment is a retrieved segment with its similarity score.
type ScoredSegment struct {
	Score   float64
	Segment domain.Segment
}

// RetrievalService finds the segments of a policy most similar to a query vector.
type RetrievalService interface {
	// Retrieve returns up to k segments, best first.
	Retrieve(ctx context.Context, policyID string, query []float32, k int) ([]ScoredSegment, error)
}

// EvidenceSufficient reports whether the best result meets minScore.
func EvidenceSufficient(results []ScoredSegment, minScore float64) bool {
	if len(results) == 0 {
		return false
	}
	best := results[0].Score
	for _, r := range results[1:] {
		if r.Score > best {
			best = r.Score
		}
	}
	return best >= minScore
}
