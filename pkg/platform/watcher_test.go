package platform

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/plugins"
)

// TestWatcher tests that a new plugin directory triggers a reload
func TestWatcher(t *testing.T) {
	f := newPlatformFixture(t)

	w, err := NewWatcher(f.service, 50*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	f.installDir(t, "arrives-later", "1.0.0", nil)

	require.Eventually(t, func() bool {
		return plugins.Has("arrives-later")
	}, 5*time.Second, 50*time.Millisecond)
}

// TestScheduler tests schedule validation and shutdown
func TestScheduler(t *testing.T) {
	f := newPlatformFixture(t)

	_, err := NewScheduler(f.service, "not a schedule")
	assert.Error(t, err)

	s, err := NewScheduler(f.service, "@every 1h")
	require.NoError(t, err)
	s.Stop()

	// The service is still usable after the scheduler stops.
	_, err = f.service.LoadAll(context.Background())
	assert.NoError(t, err)
}
