package domain

import "encoding/json"

// Metadata is schema-free ingestion provenance, e.g. embedding model,
// page counts and timestamps. Values must be JSON-representable.
// The store preserves keys it does not know about.
type Metadata map[string]any

// Well-known metadata keys written by the ingestion service.
const (
	MetaPolicyID     = "policy_id"
	MetaCreatedUTC   = "created_utc"
	MetaSourceDigest = "source_blake3"
	MetaSourceBytes  = "source_bytes"
	MetaPages        = "pages"
	MetaChunks       = "chunks"
	MetaEmbedModel   = "embedding_model"
	MetaType         = "type"

	// MetaChunksEmbedded is the count key used by older ingestion runs.
	MetaChunksEmbedded = "chunks_embedded"
)

// String returns the string value for key, or "" if absent or not a string.
func (m Metadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Int returns the integer value for key. Stored metadata decodes numbers
// as json.Number; float64, int and int64 are accepted too.
func (m Metadata) Int(key string) int {
	switch v := m[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
		f, _ := v.Float64()
		return int(f)
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

// Clone returns a shallow copy. A nil map clones to an empty map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
