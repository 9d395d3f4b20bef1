package domain

import (
	"fmt"
	"path"
)

// Namespace partitions record identifiers. Identifiers are unique only
// within a namespace.
type Namespace string

// Available namespaces.
const (
	// NamespacePolicy holds policy document records.
	NamespacePolicy Namespace = "policy"

	// NamespaceReport holds compliance report records.
	NamespaceReport Namespace = "report"
)

// IsValid returns true if the namespace is recognised.
func (n Namespace) IsValid() bool {
	return n == NamespacePolicy || n == NamespaceReport
}

// String returns the string representation.
func (n Namespace) String() string {
	return string(n)
}

// ArtifactKind names one sub-part of a record.
type ArtifactKind string

// Available artifact kinds.
const (
	// ArtifactSource is the original uploaded document bytes.
	ArtifactSource ArtifactKind = "source"

	// ArtifactSegments is the ordered list of extracted text segments.
	ArtifactSegments ArtifactKind = "segments"

	// ArtifactMetadata is the ingestion provenance mapping.
	ArtifactMetadata ArtifactKind = "metadata"

	// ArtifactIndex is the serialised vector search index.
	ArtifactIndex ArtifactKind = "index"

	// ArtifactReport is the body of a compliance report.
	ArtifactReport ArtifactKind = "report"
)

// String returns the string representation.
func (k ArtifactKind) String() string {
	return string(k)
}

// IsOpaque returns true if the artifact is stored as uninterpreted bytes
// rather than structured JSON.
func (k ArtifactKind) IsOpaque() bool {
	return k == ArtifactSource || k == ArtifactIndex
}

// PolicyArtifacts returns the artifacts of a policy record in ingestion order.
func PolicyArtifacts() []ArtifactKind {
	return []ArtifactKind{
		ArtifactSource,
		ArtifactSegments,
		ArtifactMetadata,
		ArtifactIndex,
	}
}

// On-disk names. These are read by external audit tooling and must not change.
const (
	policiesDir = "policies"
	reportsDir  = "accessibility_reports"

	sourceFile   = "source.pdf"
	segmentsFile = "chunks.json"
	metadataFile = "metadata.json"
	indexFile    = "index.faiss"
	reportExt    = ".json"
)

// MaxIdentifierLength bounds identifiers so they stay valid file names.
const MaxIdentifierLength = 128

// Location is the canonical address of one artifact.
type Location struct {
	Namespace Namespace
	ID        string
	Kind      ArtifactKind
}

// Resolve maps a record identifier and artifact kind to a Location.
// It performs no I/O. Unsafe identifiers and kinds that do not belong
// to the namespace fail with ErrInvalidIdentifier.
func Resolve(ns Namespace, id string, kind ArtifactKind) (Location, error) {
	if err := ValidateIdentifier(id); err != nil {
		return Location{}, err
	}
	switch ns {
	case NamespacePolicy:
		switch kind {
		case ArtifactSource, ArtifactSegments, ArtifactMetadata, ArtifactIndex:
		default:
			return Location{}, fmt.Errorf("%w: artifact %q is not part of a policy record", ErrInvalidIdentifier, kind)
		}
	case NamespaceReport:
		if kind != ArtifactReport {
			return Location{}, fmt.Errorf("%w: artifact %q is not part of a report record", ErrInvalidIdentifier, kind)
		}
	default:
		return Location{}, fmt.Errorf("%w: unknown namespace %q", ErrInvalidIdentifier, ns)
	}
	return Location{Namespace: ns, ID: id, Kind: kind}, nil
}

// Path returns the slash-separated path of the artifact relative to the
// storage root.
func (l Location) Path() string {
	if l.Namespace == NamespaceReport {
		return path.Join(reportsDir, l.ID+reportExt)
	}
	var name string
	switch l.Kind {
	case ArtifactSource:
		name = sourceFile
	case ArtifactSegments:
		name = segmentsFile
	case ArtifactMetadata:
		name = metadataFile
	case ArtifactIndex:
		name = indexFile
	}
	return path.Join(policiesDir, l.ID, name)
}

// RecordPath returns the path that holds the whole record: the policy
// directory, or the report file itself.
func (l Location) RecordPath() string {
	if l.Namespace == NamespaceReport {
		return l.Path()
	}
	return path.Join(policiesDir, l.ID)
}

// String returns the path form of the location.
func (l Location) String() string {
	return l.Path()
}

// NamespaceRoot returns the directory that holds every record of ns.
func NamespaceRoot(ns Namespace) string {
	if ns == NamespaceReport {
		return reportsDir
	}
	return policiesDir
}

// ParsePath is the inverse of Location.Path. It returns false for paths
// that do not name an artifact, including temporary files.
func ParsePath(p string) (Location, bool) {
	dir, file := path.Split(path.Clean(p))
	dir = path.Clean(dir)

	if dir == reportsDir {
		if path.Ext(file) != reportExt {
			return Location{}, false
		}
		loc, err := Resolve(NamespaceReport, file[:len(file)-len(reportExt)], ArtifactReport)
		return loc, err == nil
	}

	parent, id := path.Split(dir)
	if path.Clean(parent) != policiesDir {
		return Location{}, false
	}
	var kind ArtifactKind
	switch file {
	case sourceFile:
		kind = ArtifactSource
	case segmentsFile:
		kind = ArtifactSegments
	case metadataFile:
		kind = ArtifactMetadata
	case indexFile:
		kind = ArtifactIndex
	default:
		return Location{}, false
	}
	loc, err := Resolve(NamespacePolicy, id, kind)
	return loc, err == nil
}

// ValidateIdentifier checks that id is non-empty, bounded, and safe to use
// as a single path element.
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty identifier", ErrInvalidIdentifier)
	}
	if len(id) > MaxIdentifierLength {
		return fmt.Errorf("%w: identifier longer than %d bytes", ErrInvalidIdentifier, MaxIdentifierLength)
	}
	if id[0] == '.' {
		return fmt.Errorf("%w: identifier %q starts with a dot", ErrInvalidIdentifier, id)
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_':
		case c == '.':
			if i+1 < len(id) && id[i+1] == '.' {
				return fmt.Errorf("%w: identifier %q contains a traversal sequence", ErrInvalidIdentifier, id)
			}
		default:
			return fmt.Errorf("%w: identifier %q contains %q", ErrInvalidIdentifier, id, c)
		}
	}
	return nil
}
