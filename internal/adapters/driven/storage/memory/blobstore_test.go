package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policy-store/internal/core/domain"
)

func mustResolve(t *testing.T, ns domain.Namespace, id string, kind domain.ArtifactKind) domain.Location {
	t.Helper()
	loc, err := domain.Resolve(ns, id, kind)
	require.NoError(t, err)
	return loc
}

func TestBlobStore_PutGet(t *testing.T) {
	store := NewBlobStore()
	ctx := context.Background()
	loc := mustResolve(t, domain.NamespacePolicy, "p1", domain.ArtifactSource)

	require.NoError(t, store.Put(ctx, loc, []byte("pdf")))

	data, err := store.Get(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf"), data)

	ok, err := store.Exists(ctx, loc)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBlobStore_CopiesPayloads(t *testing.T) {
	store := NewBlobStore()
	ctx := context.Background()
	loc := mustResolve(t, domain.NamespacePolicy, "p1", domain.ArtifactIndex)

	buf := []byte("abc")
	require.NoError(t, store.Put(ctx, loc, buf))
	buf[0] = 'x'

	data, err := store.Get(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	data[1] = 'y'
	again, err := store.Get(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestBlobStore_Get_NotFound(t *testing.T) {
	store := NewBlobStore()
	loc := mustResolve(t, domain.NamespaceReport, "r1", domain.ArtifactReport)

	_, err := store.Get(context.Background(), loc)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBlobStore_Put_Cancelled(t *testing.T) {
	store := NewBlobStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	loc := mustResolve(t, domain.NamespacePolicy, "p1", domain.ArtifactSource)

	err := store.Put(ctx, loc, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.Len())
}

func TestBlobStore_List_PerNamespace(t *testing.T) {
	store := NewBlobStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, mustResolve(t, domain.NamespacePolicy, "b", domain.ArtifactSource), nil))
	require.NoError(t, store.Put(ctx, mustResolve(t, domain.NamespacePolicy, "a", domain.ArtifactSource), nil))
	require.NoError(t, store.Put(ctx, mustResolve(t, domain.NamespacePolicy, "a", domain.ArtifactSegments), nil))
	require.NoError(t, store.Put(ctx, mustResolve(t, domain.NamespaceReport, "a", domain.ArtifactReport), nil))

	policies, err := store.List(ctx, domain.NamespacePolicy)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, policies)

	reports, err := store.List(ctx, domain.NamespaceReport)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, reports)
}

func TestBlobStore_DeleteRecord(t *testing.T) {
	store := NewBlobStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, mustResolve(t, domain.NamespacePolicy, "a", domain.ArtifactSource), nil))
	require.NoError(t, store.Put(ctx, mustResolve(t, domain.NamespacePolicy, "a", domain.ArtifactMetadata), nil))
	require.NoError(t, store.Put(ctx, mustResolve(t, domain.NamespaceReport, "a", domain.ArtifactReport), nil))

	require.NoError(t, store.DeleteRecord(ctx, domain.NamespacePolicy, "a"))
	assert.Equal(t, 1, store.Len())

	err := store.DeleteRecord(ctx, domain.NamespacePolicy, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBlobStore_ConcurrentAccess(t *testing.T) {
	store := NewBlobStore()
	ctx := context.Background()
	loc := mustResolve(t, domain.NamespacePolicy, "p1", domain.ArtifactSegments)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Put(ctx, loc, []byte{byte(n)})
			_, _ = store.Get(ctx, loc)
		}(i)
	}
	wg.Wait()

	data, err := store.Get(ctx, loc)
	require.NoError(t, err)
	assert.Len(t, data, 1)
}
