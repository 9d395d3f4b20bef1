package driven

import (
	"context"

	"github.com/custodia-labs/policy-store/internal/core/domain"
)

// BlobStore persists artifact payloads addressed by domain.Location.
// It knows nothing about artifact semantics: consistency rules and
// encoding live in the artifact store service.
//
// Implementations must guarantee that a reader observes either the
// previous complete payload or the new complete payload, never a torn one.
type BlobStore interface {
	// Put replaces the payload at loc atomically.
	// Failures wrap domain.ErrIOFailure.
	Put(ctx context.Context, loc domain.Location, data []byte) error

	// Get returns the payload at loc, or domain.ErrNotFound.
	Get(ctx context.Context, loc domain.Location) ([]byte, error)

	// Exists reports whether a payload is stored at loc.
	Exists(ctx context.Context, loc domain.Location) (bool, error)

	// List returns the identifiers of all records in the namespace, sorted.
	List(ctx context.Context, ns domain.Namespace) ([]string, error)

	// DeleteRecord removes every artifact of one record.
	// Returns domain.ErrNotFound if the record has no artifacts.
	DeleteRecord(ctx context.Context, ns domain.Namespace, id string) error

	// Close releases resources.
	Close() error
}

// ChangeFeed streams artifact changes made by any process sharing the
// storage root.
type ChangeFeed interface {
	// Watch returns a channel closed when ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.ArtifactChange, error)
}
