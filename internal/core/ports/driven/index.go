package driven

// VectorIndex provides similarity search over the vectors of one policy.
// Positions are indexes into the policy's segment sequence.
type VectorIndex interface {
	// Len returns the number of vectors.
	Len() int

	// Dim returns the vector dimension, 0 for an empty index.
	Dim() int

	// Search finds the k most similar vectors to the query.
	Search(query []float32, k int) ([]VectorHit, error)
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Position is the segment position the vector was built from.
	Position int

	// Score is the inner product of the normalised vectors (cosine similarity).
	Score float64
}

// IndexCodec builds vector indexes and converts them to and from the opaque
// bytes kept by the artifact store. The store itself never sees a VectorIndex.
type IndexCodec interface {
	// Build creates an index with one vector per segment, in segment order.
	Build(vectors [][]float32) (VectorIndex, error)

	// Encode serialises an index built by this codec.
	Encode(index VectorIndex) ([]byte, error)

	// Decode restores an index from bytes produced by Encode.
	Decode(data []byte) (VectorIndex, error)
}
