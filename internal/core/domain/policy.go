package domain

// PolicyStatus reports which artifacts of a policy record are present.
type PolicyStatus struct {
	ID       string
	Source   bool
	Segments bool
	Metadata bool
	Index    bool
}

// Exists returns true if any artifact of the record is present.
func (s PolicyStatus) Exists() bool {
	return s.Source || s.Segments || s.Metadata || s.Index
}

// Complete returns true if every ingestion stage has been persisted.
func (s PolicyStatus) Complete() bool {
	return s.Source && s.Segments && s.Metadata && s.Index
}

// Has returns whether the given artifact is present.
func (s PolicyStatus) Has(kind ArtifactKind) bool {
	switch kind {
	case ArtifactSource:
		return s.Source
	case ArtifactSegments:
		return s.Segments
	case ArtifactMetadata:
		return s.Metadata
	case ArtifactIndex:
		return s.Index
	default:
		return false
	}
}

// PolicySummary is one entry of a policy listing.
type PolicySummary struct {
	// ID is the policy identifier.
	ID string `json:"policy_id"`

	// Type is "policy" or "standalone_image".
	Type string `json:"type"`

	// Pages is the page count recorded at ingestion.
	Pages int `json:"pages"`

	// Chunks is the number of embedded segments.
	Chunks int `json:"chunks"`

	// EmbeddingModel is the model used for the index.
	EmbeddingModel string `json:"embedding_model"`
}

// SummaryFromMetadata builds a listing entry, applying the defaults the
// listing has always used for missing keys.
func SummaryFromMetadata(id string, meta Metadata) PolicySummary {
	s := PolicySummary{
		ID:             id,
		Type:           meta.String(MetaType),
		Pages:          meta.Int(MetaPages),
		Chunks:         meta.Int(MetaChunks),
		EmbeddingModel: meta.String(MetaEmbedModel),
	}
	if s.Chunks == 0 {
		s.Chunks = meta.Int(MetaChunksEmbedded)
	}
	if s.Type == "" {
		s.Type = "policy"
	}
	if s.Pages == 0 {
		s.Pages = 1
	}
	if s.EmbeddingModel == "" {
		s.EmbeddingModel = "unknown"
	}
	return s
}
