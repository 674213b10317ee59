package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	store.Set("chunk.size", 1000)
	store.Set("chunk.overlap", 200)
	store.Set("embedding.provider", "ollama")
	store.Set("retrieve.min_score", 0.25)
	store.Set("watch.enabled", true)

	assert.Equal(t, 1000, store.GetInt("chunk.size"))
	assert.Equal(t, "ollama", store.GetString("embedding.provider"))
	assert.Equal(t, 0.25, store.GetFloat("retrieve.min_score"))
	assert.True(t, store.GetBool("watch.enabled"))
}

func TestUnsetKeysReturnZeroValues(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("missing"))
	assert.Equal(t, 0.0, store.GetFloat("missing"))
	assert.False(t, store.GetBool("missing"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	store.Set("chunk.size", 500)
	store.Set("embedding.model", "nomic-embed-text")
	require.NoError(t, store.Save())

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 500, reloaded.GetInt("chunk.size"))
	assert.Equal(t, "nomic-embed-text", reloaded.GetString("embedding.model"))
}

func TestLoadNestedTOML(t *testing.T) {
	dir := t.TempDir()
	toml := `
[chunk]
size = 750
overlap = 150

[embedding]
provider = "openai"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 750, store.GetInt("chunk.size"))
	assert.Equal(t, 150, store.GetInt("chunk.overlap"))
	assert.Equal(t, "openai", store.GetString("embedding.provider"))
}

func TestSavedFileKeepsSections(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	store.Set("chunk.size", 1000)
	require.NoError(t, store.Save())

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[chunk]")
}

func TestTypeMismatchReturnsZeroValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	store.Set("chunk.size", "not a number")
	assert.Equal(t, 0, store.GetInt("chunk.size"))
}
