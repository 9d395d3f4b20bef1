package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Seed(t *testing.T) {
	store := NewConfigStore(map[string]any{"storage.backend": "sqlite"})

	val, ok := store.Get("storage.backend")
	assert.True(t, ok)
	assert.Equal(t, "sqlite", val)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "text"))
	require.NoError(t, store.Set("i", 6))
	require.NoError(t, store.Set("i64", int64(7)))
	require.NoError(t, store.Set("f", 0.25))
	require.NoError(t, store.Set("b", true))

	assert.Equal(t, "text", store.GetString("s"))
	assert.Equal(t, 6, store.GetInt("i"))
	assert.Equal(t, 7, store.GetInt("i64"))
	assert.InDelta(t, 0.25, store.GetFloat("f"), 1e-9)
	assert.InDelta(t, 6.0, store.GetFloat("i"), 1e-9)
	assert.True(t, store.GetBool("b"))

	// Wrong types fall back to zero values.
	assert.Equal(t, "", store.GetString("i"))
	assert.Equal(t, 0, store.GetInt("s"))
	assert.Zero(t, store.GetFloat("b"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_Keys(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("retrieval.top_k", 6))
	require.NoError(t, store.Set("log.verbose", true))

	assert.Equal(t, []string{"log.verbose", "retrieval.top_k"}, store.Keys())
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Empty(t, store.Path())
}
