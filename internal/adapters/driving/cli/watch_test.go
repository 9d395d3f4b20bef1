package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policy-store/internal/core/domain"
)

// mockChangeFeed replays a fixed set of changes, then closes.
type mockChangeFeed struct {
	changes []domain.ArtifactChange
	err     error
}

func (m *mockChangeFeed) Watch(_ context.Context) (<-chan domain.ArtifactChange, error) {
	if m.err != nil {
		return nil, m.err
	}
	ch := make(chan domain.ArtifactChange, len(m.changes))
	for _, c := range m.changes {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func TestWatch_PrintsChanges(t *testing.T) {
	setupTestServices(t)
	changeFeed = &mockChangeFeed{changes: []domain.ArtifactChange{
		{Location: domain.Location{Namespace: domain.NamespacePolicy, ID: "policy-1", Kind: domain.ArtifactSource}, Type: domain.ChangeWritten},
		{Location: domain.Location{Namespace: domain.NamespaceReport, ID: "ada_1", Kind: domain.ArtifactReport}, Type: domain.ChangeRemoved},
	}}

	out, err := execute(t, "", "watch")
	require.NoError(t, err)
	assert.Contains(t, out, "Watching for changes...")
	assert.Contains(t, out, "policies/policy-1/source.pdf")
	assert.Contains(t, out, "removed")
	assert.Contains(t, out, "accessibility_reports/ada_1.json")
}

func TestWatch_Error(t *testing.T) {
	setupTestServices(t)
	changeFeed = &mockChangeFeed{err: errors.New("inotify limit reached")}

	_, err := execute(t, "", "watch")
	assert.EqualError(t, err, "inotify limit reached")
}
