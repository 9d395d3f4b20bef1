package domain

// ChangeType classifies an observed artifact change.
type ChangeType string

// Available change types.
const (
	// ChangeWritten means an artifact was created or replaced.
	ChangeWritten ChangeType = "written"

	// ChangeRemoved means an artifact disappeared, e.g. its record was deleted.
	ChangeRemoved ChangeType = "removed"
)

// ArtifactChange is one artifact change seen under the storage root.
type ArtifactChange struct {
	Location Location
	Type     ChangeType
}
