// Package flat provides an exact inner-product vector index in pure Go.
// It implements driven.IndexCodec.
//
// Vectors are L2-normalised when added, so scores are cosine similarities
// in [-1, 1]. Search is a linear scan, which suits the few hundred
// segments of a single policy document.
//
// Serialised indexes are CBOR (RFC 8949 core deterministic encoding):
// the same vectors always produce identical bytes. Vectors may be stored
// at half precision to halve index size; search always runs on float32.
package flat
