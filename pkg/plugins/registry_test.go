package plugins

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlugin struct {
	manifest *Manifest
	loaded   bool
}

func (p *fakePlugin) Manifest() *Manifest { return p.manifest }
func (p *fakePlugin) Load() error         { p.loaded = true; return nil }
func (p *fakePlugin) Unload() error       { p.loaded = false; return nil }

func newFakePlugin(id, category string) *fakePlugin {
	return &fakePlugin{manifest: &Manifest{
		ID:          id,
		Name:        "Plugin " + id,
		Version:     "1.0.0",
		Description: "test",
		Author:      "author",
		Entry:       "main.py",
		Category:    category,
	}}
}

// TestRegister tests basic registration and lookup
func TestRegister(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	require.NoError(t, Register(newFakePlugin("one", "Appearance")))
	require.NoError(t, Register(newFakePlugin("two", "Hardware")))

	assert.True(t, Has("one"))
	assert.Equal(t, 2, Count())

	plugin, err := Get("one")
	require.NoError(t, err)
	assert.Equal(t, "one", plugin.Manifest().ID)
}

// TestRegister_Rejections tests nil, duplicate, and invalid registrations
func TestRegister_Rejections(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	assert.Error(t, Register(nil))
	assert.Error(t, Register(&fakePlugin{manifest: nil}))
	assert.Error(t, Register(&fakePlugin{manifest: &Manifest{ID: "incomplete"}}))

	require.NoError(t, Register(newFakePlugin("dup", "")))
	assert.Error(t, Register(newFakePlugin("dup", "")))
}

// TestGet_NotFound tests the typed not-found error
func TestGet_NotFound(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	_, err := Get("ghost")
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "ghost", notFound.ID)

	err = Unregister("ghost")
	assert.True(t, errors.As(err, &notFound))
}

// TestListByCategory tests category queries
func TestListByCategory(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	require.NoError(t, Register(newFakePlugin("a", "Appearance")))
	require.NoError(t, Register(newFakePlugin("b", "Hardware")))
	require.NoError(t, Register(newFakePlugin("c", "Appearance")))
	require.NoError(t, Register(newFakePlugin("d", "")))

	appearance := ListByCategory("appearance")
	require.Len(t, appearance, 2)
	assert.Equal(t, "a", appearance[0].Manifest().ID)
	assert.Equal(t, "c", appearance[1].Manifest().ID)

	other := ListByCategory(DefaultCategory)
	require.Len(t, other, 1)
	assert.Equal(t, "d", other[0].Manifest().ID)
}

// TestListMetadata tests display-record ordering
func TestListMetadata(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	require.NoError(t, Register(newFakePlugin("native-z", "Tools")))
	require.NoError(t, Register(newFakePlugin("native-a", "Tools")))
	require.NoError(t, Register(NewAdapter(&fakeLegacy{name: "Old Widget"})))

	metadata := ListMetadata()
	require.Len(t, metadata, 3)

	// Native plugins (order 100) sort before community adapters (order 500).
	assert.Equal(t, "native-a", metadata[0].ID)
	assert.Equal(t, "native-z", metadata[1].ID)
	assert.Equal(t, "old-widget", metadata[2].ID)
	assert.Equal(t, "community", metadata[2].Badge)
}

// TestUnregister tests removal
func TestUnregister(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	require.NoError(t, Register(newFakePlugin("gone-soon", "")))
	require.NoError(t, Unregister("gone-soon"))
	assert.False(t, Has("gone-soon"))
	assert.Zero(t, Count())
}
