package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/policy-store/internal/core/domain"
	"github.com/custodia-labs/policy-store/internal/core/ports/driven"
	"github.com/custodia-labs/policy-store/internal/core/ports/driving"
	"github.com/custodia-labs/policy-store/internal/logger"
)

// Ensure ArtifactStore implements the interfaces.
var (
	_ driving.PolicyStore = (*ArtifactStore)(nil)
	_ driving.ReportStore = (*ArtifactStore)(nil)
)

// ArtifactStore is the single entry point for reading and writing
// policy and report artifacts. Writes to one record are serialised by a
// per-record lock held across the guard check and the backend write.
// Reads take no lock; the backend guarantees complete payloads.
type ArtifactStore struct {
	blobs driven.BlobStore
	guard *Guard
	locks *keyLock
}

// NewArtifactStore creates an artifact store over the given backend
// with the default consistency rules.
func NewArtifactStore(blobs driven.BlobStore) *ArtifactStore {
	return &ArtifactStore{
		blobs: blobs,
		guard: NewGuard(blobs.Exists),
		locks: newKeyLock(),
	}
}

// AddRule appends a consistency rule. Not safe to call concurrently
// with writes; configure rules before serving requests.
func (s *ArtifactStore) AddRule(rule Rule) {
	s.guard = s.guard.With(rule)
}

// Rules returns the names of the active consistency rules.
func (s *ArtifactStore) Rules() []string {
	return s.guard.Rules()
}

// ==================== Policy artifacts ====================

// WriteSource stores the original document bytes. Sources are write-once.
func (s *ArtifactStore) WriteSource(ctx context.Context, id string, data []byte) (domain.Location, error) {
	return s.write(ctx, "write source", domain.NamespacePolicy, id, domain.ArtifactSource, func() ([]byte, error) {
		return data, nil
	})
}

// ReadSource returns the original document bytes.
func (s *ArtifactStore) ReadSource(ctx context.Context, id string) ([]byte, error) {
	return s.readRaw(ctx, "read source", domain.NamespacePolicy, id, domain.ArtifactSource)
}

// WriteSegments replaces the segment sequence of a policy.
func (s *ArtifactStore) WriteSegments(ctx context.Context, id string, segments []domain.Segment) (domain.Location, error) {
	if segments == nil {
		segments = []domain.Segment{}
	}
	return s.write(ctx, "write segments", domain.NamespacePolicy, id, domain.ArtifactSegments, func() ([]byte, error) {
		return encodeJSON(segments)
	})
}

// ReadSegments returns the segment sequence in the order it was written.
func (s *ArtifactStore) ReadSegments(ctx context.Context, id string) ([]domain.Segment, error) {
	var segments []domain.Segment
	if err := s.readJSON(ctx, "read segments", domain.NamespacePolicy, id, domain.ArtifactSegments, &segments); err != nil {
		return nil, err
	}
	return segments, nil
}

// WriteMetadata replaces the metadata mapping of a policy.
func (s *ArtifactStore) WriteMetadata(ctx context.Context, id string, meta domain.Metadata) (domain.Location, error) {
	if meta == nil {
		meta = domain.Metadata{}
	}
	return s.write(ctx, "write metadata", domain.NamespacePolicy, id, domain.ArtifactMetadata, func() ([]byte, error) {
		return encodeJSON(meta)
	})
}

// ReadMetadata returns the metadata mapping of a policy.
func (s *ArtifactStore) ReadMetadata(ctx context.Context, id string) (domain.Metadata, error) {
	var meta domain.Metadata
	if err := s.readJSON(ctx, "read metadata", domain.NamespacePolicy, id, domain.ArtifactMetadata, &meta); err != nil {
		return nil, err
	}
	if meta == nil {
		meta = domain.Metadata{}
	}
	return meta, nil
}

// WriteIndex stores a serialised vector index. The segments it was built
// from must already be stored.
func (s *ArtifactStore) WriteIndex(ctx context.Context, id string, index []byte) (domain.Location, error) {
	return s.write(ctx, "write index", domain.NamespacePolicy, id, domain.ArtifactIndex, func() ([]byte, error) {
		return index, nil
	})
}

// ReadIndex returns the serialised vector index. The bytes are not validated.
func (s *ArtifactStore) ReadIndex(ctx context.Context, id string) ([]byte, error) {
	return s.readRaw(ctx, "read index", domain.NamespacePolicy, id, domain.ArtifactIndex)
}

// PolicyStatus reports which artifacts of a policy exist.
func (s *ArtifactStore) PolicyStatus(ctx context.Context, id string) (domain.PolicyStatus, error) {
	status := domain.PolicyStatus{ID: id}
	for _, kind := range domain.PolicyArtifacts() {
		loc, err := domain.Resolve(domain.NamespacePolicy, id, kind)
		if err != nil {
			return status, s.fail("status", domain.NamespacePolicy, id, "", err)
		}
		ok, err := s.blobs.Exists(ctx, loc)
		if err != nil {
			return status, s.fail("status", domain.NamespacePolicy, id, kind, err)
		}
		switch kind {
		case domain.ArtifactSource:
			status.Source = ok
		case domain.ArtifactSegments:
			status.Segments = ok
		case domain.ArtifactMetadata:
			status.Metadata = ok
		case domain.ArtifactIndex:
			status.Index = ok
		}
	}
	return status, nil
}

// ListPolicies returns a summary for every policy that has metadata.
// Records still being ingested, with no metadata yet, are left out.
func (s *ArtifactStore) ListPolicies(ctx context.Context) ([]domain.PolicySummary, error) {
	ids, err := s.blobs.List(ctx, domain.NamespacePolicy)
	if err != nil {
		return nil, s.fail("list", domain.NamespacePolicy, "", "", err)
	}

	summaries := make([]domain.PolicySummary, 0, len(ids))
	for _, id := range ids {
		meta, err := s.ReadMetadata(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("skipping policy without metadata", "id", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, domain.SummaryFromMetadata(id, meta))
	}
	return summaries, nil
}

// DeletePolicy removes every artifact of a policy. Partial deletion is
// not offered.
func (s *ArtifactStore) DeletePolicy(ctx context.Context, id string) error {
	if err := domain.ValidateIdentifier(id); err != nil {
		return s.fail("delete", domain.NamespacePolicy, id, "", err)
	}
	if err := ctx.Err(); err != nil {
		return s.fail("delete", domain.NamespacePolicy, id, "", err)
	}

	unlock := s.locks.Lock(domain.NamespacePolicy, id)
	defer unlock()

	if err := s.blobs.DeleteRecord(ctx, domain.NamespacePolicy, id); err != nil {
		return s.fail("delete", domain.NamespacePolicy, id, "", err)
	}
	logger.Info("policy deleted", "id", id)
	return nil
}

// ==================== Reports ====================

// WriteReport stores a new compliance report. The report's own ID is set
// to id when empty and must match id otherwise.
func (s *ArtifactStore) WriteReport(ctx context.Context, id string, report domain.ComplianceReport) (domain.Location, error) {
	if report.ID == "" {
		report.ID = id
	}
	if report.ID != id {
		err := fmt.Errorf("%w: report carries id %q", domain.ErrInvalidIdentifier, report.ID)
		return domain.Location{}, s.fail("write report", domain.NamespaceReport, id, domain.ArtifactReport, err)
	}
	return s.write(ctx, "write report", domain.NamespaceReport, id, domain.ArtifactReport, func() ([]byte, error) {
		return encodeJSON(report)
	})
}

// ReadReport returns a stored compliance report.
func (s *ArtifactStore) ReadReport(ctx context.Context, id string) (*domain.ComplianceReport, error) {
	var report domain.ComplianceReport
	if err := s.readJSON(ctx, "read report", domain.NamespaceReport, id, domain.ArtifactReport, &report); err != nil {
		return nil, err
	}
	if report.ID == "" {
		report.ID = id
	}
	return &report, nil
}

// ListReports returns every report identifier, sorted.
func (s *ArtifactStore) ListReports(ctx context.Context) ([]string, error) {
	ids, err := s.blobs.List(ctx, domain.NamespaceReport)
	if err != nil {
		return nil, s.fail("list", domain.NamespaceReport, "", "", err)
	}
	return ids, nil
}

// ==================== Internals ====================

// write resolves the location, encodes the payload outside the lock, then
// runs the guard and the backend write under the record lock.
func (s *ArtifactStore) write(
	ctx context.Context,
	op string,
	ns domain.Namespace,
	id string,
	kind domain.ArtifactKind,
	encode func() ([]byte, error),
) (domain.Location, error) {
	loc, err := domain.Resolve(ns, id, kind)
	if err != nil {
		return domain.Location{}, s.fail(op, ns, id, kind, err)
	}
	if err := ctx.Err(); err != nil {
		return domain.Location{}, s.fail(op, ns, id, kind, err)
	}

	data, err := encode()
	if err != nil {
		return domain.Location{}, s.fail(op, ns, id, kind, domain.IOError("encoding "+kind.String(), err))
	}

	unlock := s.locks.Lock(ns, id)
	defer unlock()

	if err := s.guard.Check(ctx, loc); err != nil {
		return domain.Location{}, s.fail(op, ns, id, kind, err)
	}
	if err := s.blobs.Put(ctx, loc, data); err != nil {
		return domain.Location{}, s.fail(op, ns, id, kind, err)
	}

	logger.Debug("artifact written", "location", loc.Path(), "bytes", len(data))
	return loc, nil
}

func (s *ArtifactStore) readRaw(
	ctx context.Context,
	op string,
	ns domain.Namespace,
	id string,
	kind domain.ArtifactKind,
) ([]byte, error) {
	loc, err := domain.Resolve(ns, id, kind)
	if err != nil {
		return nil, s.fail(op, ns, id, kind, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, s.fail(op, ns, id, kind, err)
	}
	data, err := s.blobs.Get(ctx, loc)
	if err != nil {
		return nil, s.fail(op, ns, id, kind, err)
	}
	return data, nil
}

func (s *ArtifactStore) readJSON(
	ctx context.Context,
	op string,
	ns domain.Namespace,
	id string,
	kind domain.ArtifactKind,
	v any,
) error {
	data, err := s.readRaw(ctx, op, ns, id, kind)
	if err != nil {
		return err
	}
	// Numbers stay json.Number so large integers survive untruncated.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return s.fail(op, ns, id, kind, domain.IOError("decoding "+kind.String(), err))
	}
	return nil
}

// fail wraps err in an ArtifactError. Backend errors that carry no
// storage sentinel are classified as I/O failures.
func (s *ArtifactStore) fail(op string, ns domain.Namespace, id string, kind domain.ArtifactKind, err error) error {
	if !domain.IsStorageError(err) && !isCancellation(err) {
		err = domain.IOError("backend", err)
	}
	return &domain.ArtifactError{Op: op, Namespace: ns, ID: id, Kind: kind, Err: err}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// encodeJSON uses two-space indentation so stored artifacts stay readable
// and diffable by audit tooling.
func encodeJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
