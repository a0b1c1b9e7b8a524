package hookconfig

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
)

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition was never satisfied")
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auto-format.json")
	require.NoError(t, os.WriteFile(path, []byte(autoFormatExample), 0o644))

	w, err := NewWatcher(newTestLoader(t), nil)
	require.NoError(t, err)
	defer w.Stop()

	var mu sync.Mutex
	var seen *hookmodel.Hook
	w.OnChange(func(hook *hookmodel.Hook, removedPath string) {
		mu.Lock()
		defer mu.Unlock()
		if hook != nil {
			seen = hook
		}
	})

	require.NoError(t, w.Watch(dir))

	require.NoError(t, os.WriteFile(path, []byte(autoFormatExample), 0o644))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen != nil
	})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "auto-format", seen.Name)
}

func TestWatcherNotifiesRemovalWithNilHook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auto-format.json")
	require.NoError(t, os.WriteFile(path, []byte(autoFormatExample), 0o644))

	w, err := NewWatcher(newTestLoader(t), nil)
	require.NoError(t, err)
	defer w.Stop()

	var mu sync.Mutex
	var removed string
	w.OnChange(func(hook *hookmodel.Hook, removedPath string) {
		mu.Lock()
		defer mu.Unlock()
		if hook == nil && removedPath != "" {
			removed = removedPath
		}
	})

	require.NoError(t, w.Watch(dir))
	require.NoError(t, os.Remove(path))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return removed != ""
	})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, path, removed)
}
