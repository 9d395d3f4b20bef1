// Package domain defines the core storage entities for the policy store.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Location: A resolved (namespace, identifier, artifact kind) triple
//   - Segment: A retrieval-ready excerpt of a policy document
//   - Metadata: Schema-free ingestion provenance
//   - ComplianceReport: An accessibility check result
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
