package services

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewPolicyID returns a fresh policy identifier, e.g. "policy-3f2a9c01bd".
// Re-ingesting a document must use a new identifier.
func NewPolicyID() string {
	return "policy-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// NewReportID returns a fresh report identifier for a check of fileName,
// e.g. "ada_abc123def456". Every call yields a new identifier, so
// re-checking a file never overwrites an earlier report.
func NewReportID(fileName string) string {
	sum := sha256.Sum256([]byte(fileName + "_" + uuid.NewString()))
	return "ada_" + hex.EncodeToString(sum[:])[:12]
}
