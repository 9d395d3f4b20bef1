package driving

import (
	"context"

	"github.com/custodia-labs/policy-store/internal/core/domain"
)

// PolicyStore manages the artifacts of policy document records.
// Ingestion writes them in order: source, segments, metadata, index.
type PolicyStore interface {
	// WriteSource stores the original document. Fails with
	// domain.ErrAlreadyExists if a source was already written.
	WriteSource(ctx context.Context, id string, data []byte) (domain.Location, error)

	// ReadSource returns the original document.
	ReadSource(ctx context.Context, id string) ([]byte, error)

	// WriteSegments replaces the segment sequence, preserving its order.
	WriteSegments(ctx context.Context, id string, segments []domain.Segment) (domain.Location, error)

	// ReadSegments returns the segment sequence in stored order.
	ReadSegments(ctx context.Context, id string) ([]domain.Segment, error)

	// WriteMetadata replaces the metadata mapping.
	WriteMetadata(ctx context.Context, id string, meta domain.Metadata) (domain.Location, error)

	// ReadMetadata returns the metadata mapping.
	ReadMetadata(ctx context.Context, id string) (domain.Metadata, error)

	// WriteIndex stores a serialised vector index. Fails with
	// domain.ErrPreconditionFailed if no segments exist for the record.
	WriteIndex(ctx context.Context, id string, index []byte) (domain.Location, error)

	// ReadIndex returns the serialised vector index without validating it.
	ReadIndex(ctx context.Context, id string) ([]byte, error)

	// PolicyStatus reports which artifacts of the record exist.
	PolicyStatus(ctx context.Context, id string) (domain.PolicyStatus, error)

	// ListPolicies returns a summary of every record that has metadata.
	ListPolicies(ctx context.Context) ([]domain.PolicySummary, error)

	// DeletePolicy removes the whole record.
	DeletePolicy(ctx context.Context, id string) error
}

// ReportStore manages compliance reports. Reports are write-once.
type ReportStore interface {
	// WriteReport stores a new report. Fails with domain.ErrAlreadyExists
	// if the identifier was used before.
	WriteReport(ctx context.Context, id string, report domain.ComplianceReport) (domain.Location, error)

	// ReadReport returns a stored report.
	ReadReport(ctx context.Context, id string) (*domain.ComplianceReport, error)

	// ListReports returns every report identifier, sorted.
	ListReports(ctx context.Context) ([]string, error)
}
