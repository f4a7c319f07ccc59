package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/milkyway/internal/models"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMessagesSnapshotIsReplaced(t *testing.T) {
	c := openTestCache(t)

	first := []models.ChatMessage{
		{Sender: "a", Content: "hi", Timestamp: 100},
		{Sender: "b", Content: "", Media: models.MediaFromURL("https://x/cat.png"), Timestamp: 101},
	}
	require.NoError(t, c.SaveMessages("alice", first))

	loaded, err := c.LoadMessages("alice")
	require.NoError(t, err)
	assert.Equal(t, first, loaded)

	second := []models.ChatMessage{{Sender: "a", Content: "only", Timestamp: 200}}
	require.NoError(t, c.SaveMessages("alice", second))

	loaded, err = c.LoadMessages("alice")
	require.NoError(t, err)
	assert.Equal(t, second, loaded)
}

func TestSnapshotsArePerOwner(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.SaveMessages("alice", []models.ChatMessage{{Sender: "a", Content: "hi", Timestamp: 1}}))
	require.NoError(t, c.SaveGallery("alice", []models.MediaReference{{URL: "https://x/v.mp4"}}))

	msgs, err := c.LoadMessages("bob")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	items, err := c.LoadGallery("alice")
	require.NoError(t, err)
	assert.Equal(t, []models.MediaReference{{URL: "https://x/v.mp4"}}, items)
}

func TestClear(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.SaveMessages("alice", []models.ChatMessage{{Sender: "a", Content: "hi", Timestamp: 1}}))
	require.NoError(t, c.SaveGallery("alice", []models.MediaReference{{URL: "u"}}))
	require.NoError(t, c.Clear())

	msgs, err := c.LoadMessages("alice")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	items, err := c.LoadGallery("alice")
	require.NoError(t, err)
	assert.Empty(t, items)
}
