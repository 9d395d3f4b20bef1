package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// SegmentKind distinguishes where a segment's text came from.
type SegmentKind string

// Available segment kinds.
const (
	// SegmentText is text extracted from the document body.
	SegmentText SegmentKind = "text"

	// SegmentImage is a generated description of an embedded image.
	SegmentImage SegmentKind = "image"
)

// Segment is a retrieval-ready excerpt of a policy document.
// The order of segments within a record is significant: index
// positions refer to it and ranking ties fall back to it.
type Segment struct {
	// ID is the segment identifier, stable across re-ingestion of the same text.
	ID string `json:"chunk_id"`

	// Page is the 1-based page number used for citations.
	Page int `json:"page"`

	// Index is the ordinal of the segment on its page.
	Index int `json:"chunk_index"`

	// Text is the excerpt content.
	Text string `json:"text"`

	// Offset locates the excerpt within the page text.
	Offset Offset `json:"offset"`

	// Kind records the extraction path. Empty means text.
	Kind SegmentKind `json:"kind,omitempty"`
}

// Offset is a half-open byte range [Start, End) into the page text.
type Offset struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes the offset spans.
func (o Offset) Len() int {
	if o.End < o.Start {
		return 0
	}
	return o.End - o.Start
}

// StableSegmentID derives a segment identifier from its position and text,
// so the same content always gets the same ID. The format matches the
// identifiers already recorded by audit tooling: the first 24 hex digits of
// sha256("policyID|page|index|text").
func StableSegmentID(policyID string, page, index int, text string) string {
	h := sha256.New()
	h.Write([]byte(policyID))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.Itoa(page)))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.Itoa(index)))
	h.Write([]byte("|"))
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))[:24]
}

// PageCount returns the highest page number referenced by segments.
func PageCount(segments []Segment) int {
	pages := 0
	for i := range segments {
		if segments[i].Page > pages {
			pages = segments[i].Page
		}
	}
	return pages
}
