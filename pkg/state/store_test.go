package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Load(t *testing.T) {
	t.Run("should return empty mapping for missing file", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "veri_kaydi.json"))

		data := store.Load()

		assert.NotNil(t, data)
		assert.Empty(t, data)
	})

	t.Run("should return empty mapping for corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "veri_kaydi.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"studies": [`), 0o644))

		data := NewStore(path).Load()

		assert.Empty(t, data)
	})

	t.Run("should return empty mapping for null document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "veri_kaydi.json")
		require.NoError(t, os.WriteFile(path, []byte(`null`), 0o644))

		data := NewStore(path).Load()

		assert.NotNil(t, data)
		assert.Empty(t, data)
	})

	t.Run("should return empty mapping when document is not an object", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "veri_kaydi.json")
		require.NoError(t, os.WriteFile(path, []byte(`[1, 2, 3]`), 0o644))

		assert.Empty(t, NewStore(path).Load())
	})
}

func TestStore_SaveAndLoad(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store := NewStore(path)
	data := Data{}
	require.NoError(t, data.Set("operator", "Ayşe Yılmaz"))
	require.NoError(t, data.Set("counts", []int{1, 2}))

	// when
	require.NoError(t, store.Save(data))
	loaded := store.Load()

	// then
	var operator string
	assert.True(t, loaded.Get("operator", &operator))
	assert.Equal(t, "Ayşe Yılmaz", operator)
	var counts []int
	assert.True(t, loaded.Get("counts", &counts))
	assert.Equal(t, []int{1, 2}, counts)
	assert.NoFileExists(t, path+".tmp")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Ayşe Yılmaz")
}

func TestData_Get(t *testing.T) {
	data := Data{"count": []byte(`"not a number"`)}

	var count int
	assert.False(t, data.Get("count", &count))
	assert.False(t, data.Get("missing", &count))
}
