package domain

// StorageBackend selects where artifacts are persisted.
type StorageBackend string

// Available storage backends.
const (
	// BackendFile stores one file per artifact under the storage root.
	BackendFile StorageBackend = "file"

	// BackendSQLite stores artifacts as rows of a single database file.
	BackendSQLite StorageBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == BackendFile || b == BackendSQLite
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StorageBackend) Description() string {
	switch b {
	case BackendFile:
		return "Filesystem (one directory per policy)"
	case BackendSQLite:
		return "SQLite (single database file)"
	default:
		return "Unknown"
	}
}

// StorageSettings holds artifact storage configuration.
type StorageSettings struct {
	// Root is the base directory. Created if absent, never deleted.
	Root string

	// Backend selects the storage implementation.
	Backend StorageBackend
}

// RetrievalSettings holds query collaborator defaults.
type RetrievalSettings struct {
	// TopK is the number of segments retrieved per query.
	TopK int

	// MinScore is the similarity below which evidence is insufficient.
	MinScore float64
}

// IndexPrecision selects how vector indexes are serialised.
type IndexPrecision string

// Available index precisions.
const (
	PrecisionFloat32 IndexPrecision = "float32"
	PrecisionFloat16 IndexPrecision = "float16"
)

// IsValid returns true if the precision is recognised.
func (p IndexPrecision) IsValid() bool {
	return p == PrecisionFloat32 || p == PrecisionFloat16
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Precision of stored vectors. Search always runs at float32.
	Precision IndexPrecision
}

// Settings holds all application settings.
type Settings struct {
	Storage   StorageSettings
	Retrieval RetrievalSettings
	Index     IndexSettings

	// Verbose enables debug logging.
	Verbose bool
}

// DefaultSettings returns settings with sensible defaults.
// Storage.Root is left empty; the caller resolves it against the home directory.
func DefaultSettings() Settings {
	return Settings{
		Storage: StorageSettings{
			Backend: BackendFile,
		},
		Retrieval: RetrievalSettings{
			TopK:     6,
			MinScore: 0.25,
		},
		Index: IndexSettings{
			Precision: PrecisionFloat32,
		},
	}
}

// AllBackends returns every supported storage backend.
func AllBackends() []StorageBackend {
	return []StorageBackend{BackendFile, BackendSQLite}
}
