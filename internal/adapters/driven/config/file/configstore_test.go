package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	require.NotNil(t, store)
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	store, err := NewConfigStore(path)

	require.NoError(t, err)
	assert.Equal(t, path, store.Path())
	assert.DirExists(t, filepath.Dir(path))
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_DefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".policystore", "config.toml"), store.Path())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("storage.backend", "sqlite"))
	require.NoError(t, store.Set("retrieval.top_k", 8))
	require.NoError(t, store.Set("retrieval.min_score", 0.4))
	require.NoError(t, store.Set("log.verbose", true))

	assert.Equal(t, "sqlite", store.GetString("storage.backend"))
	assert.Equal(t, 8, store.GetInt("retrieval.top_k"))
	assert.InDelta(t, 0.4, store.GetFloat("retrieval.min_score"), 1e-9)
	assert.True(t, store.GetBool("log.verbose"))

	// Wrong types and missing keys yield zero values.
	assert.Equal(t, "", store.GetString("retrieval.top_k"))
	assert.Equal(t, 0, store.GetInt("storage.backend"))
	assert.Zero(t, store.GetFloat("log.verbose"))
	assert.False(t, store.GetBool("missing"))

	val, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	store1, err := NewConfigStore(path)
	require.NoError(t, err)
	require.NoError(t, store1.Set("storage.root", "/srv/policies"))
	require.NoError(t, store1.Set("retrieval.top_k", 4))
	require.NoError(t, store1.Set("retrieval.min_score", 0.3))
	require.NoError(t, store1.Set("log.verbose", true))

	store2, err := NewConfigStore(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/policies", store2.GetString("storage.root"))
	assert.Equal(t, 4, store2.GetInt("retrieval.top_k"))
	assert.InDelta(t, 0.3, store2.GetFloat("retrieval.min_score"), 1e-9)
	assert.True(t, store2.GetBool("log.verbose"))
	assert.Equal(t, []string{"log.verbose", "retrieval.min_score", "retrieval.top_k", "storage.root"}, store2.Keys())
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("storage.backend", "file"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[storage]")
	assert.Regexp(t, `backend = ['"]file['"]`, string(data))
}

func TestConfigStore_GetFloat_IntegerValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[retrieval]\nmin_score = 1\n"), 0600))

	store, err := NewConfigStore(path)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, store.GetFloat("retrieval.min_score"), 1e-9)
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"a":       1,
		"a.b":     2,
		"x.y.z":   3,
		"x.y.w":   4,
		"storage": "flat",
	})

	assert.Equal(t, 1, nested["a"])
	assert.Equal(t, 2, nested["a.b"])
	assert.Equal(t, "flat", nested["storage"])
	assert.Equal(t, map[string]any{"y": map[string]any{"z": 3, "w": 4}}, nested["x"])

	assert.Equal(t, map[string]any{"a": 1, "a.b": 2, "x.y.z": 3, "x.y.w": 4, "storage": "flat"},
		flattenMap(map[string]any{"a": 1, "a.b": 2, "x": nested["x"], "storage": "flat"}, ""))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("test", "value"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte{}, 0600))

	store, err := NewConfigStore(path)
	require.NoError(t, err)
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/config.toml")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is not valid TOML {{{[["), 0600))

	store, err := NewConfigStore(path)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_Set_WriteErrorRollsBack(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("test", "value"))

	// A directory in place of the file makes the rename fail.
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(store.Path(), "keep"), nil, 0600))

	err := store.Set("another", "value")
	assert.Error(t, err)

	_, ok := store.Get("another")
	assert.False(t, ok)
	assert.Equal(t, "value", store.GetString("test"))
}

func TestConfigStore_Load_InvalidTOML(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("valid", "data"))

	require.NoError(t, os.WriteFile(store.Path(), []byte("invalid toml syntax ][}{"), 0600))

	assert.Error(t, store.Load())
}

func TestConfigStore_Save_Explicit(t *testing.T) {
	store := newTestStore(t)

	store.mu.Lock()
	store.data["manual_key"] = "manual_value"
	store.mu.Unlock()

	require.NoError(t, store.Save())

	store2, err := NewConfigStore(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "manual_value", store2.GetString("manual_key"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := "key" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_ = store.GetString(key)
			_, _ = store.Get(key)
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.Keys(), 10)
}
