package driving

import (
	"context"

	"github.com/custodia-labs/policy-store/internal/core/domain"
)

// IngestRequest carries everything an ingestion run persists for one policy.
type IngestRequest struct {
	// ID is the policy identifier. Use a fresh one per document.
	ID string

	// Source is the original document bytes.
	Source []byte

	// Segments is the extracted segment sequence.
	Segments []domain.Segment

	// Metadata holds caller provenance such as the embedding model.
	Metadata domain.Metadata

	// Index is a pre-serialised index blob. Ignored when Vectors is set.
	Index []byte

	// Vectors holds one embedding per segment; the index is built from them.
	Vectors [][]float32
}

// IngestResult describes what an ingestion run persisted.
type IngestResult struct {
	ID       string
	Metadata domain.Metadata

	// Resumed is true if the source was already stored with identical bytes.
	Resumed bool

	// Indexed is false when there were no segments to index.
	Indexed bool
}

// IngestionService persists a policy's artifacts in the required order.
type IngestionService interface {
	// Ingest writes source, segments, metadata and index.
	// Re-running a failed ingestion with the same source bytes resumes it.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)
}
