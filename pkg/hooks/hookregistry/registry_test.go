package hookregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
)

func newTestHook(id hookmodel.HookID) *hookmodel.Hook {
	return &hookmodel.Hook{
		ID:          id,
		Name:        "Test Hook",
		Description: "A test hook",
		Events:      []hookmodel.EventType{hookmodel.EventBeforeCodeModification},
		Priority:    hookmodel.PriorityNormal,
		Enabled:     true,
		Security:    hookmodel.DefaultSecurityPolicy(),
		Metadata:    hookmodel.DefaultHookMetadata(),
	}
}

func TestHookRegistration(t *testing.T) {
	r := New()
	id := NewHookID()
	hook := newTestHook(id)

	require.NoError(t, r.Register(hook))

	stored, ok := r.Get(id)
	assert.True(t, ok)
	assert.Equal(t, hook.Name, stored.Name)

	found := r.FindByEvent(hookmodel.EventBeforeCodeModification)
	assert.Len(t, found, 1)

	require.NoError(t, r.Unregister(id))
	_, ok = r.Get(id)
	assert.False(t, ok)
}

func TestRegisterDuplicateIDRejected(t *testing.T) {
	r := New()
	id := NewHookID()
	require.NoError(t, r.Register(newTestHook(id)))
	assert.Error(t, r.Register(newTestHook(id)))
}

func TestFindByEventExcludesDisabled(t *testing.T) {
	r := New()
	id := NewHookID()
	hook := newTestHook(id)
	hook.Enabled = false
	require.NoError(t, r.Register(hook))

	assert.Empty(t, r.FindByEvent(hookmodel.EventBeforeCodeModification))
}

func TestFindByEventPreservesInsertionOrder(t *testing.T) {
	r := New()

	var ids []hookmodel.HookID
	for i := 0; i < 5; i++ {
		id := NewHookID()
		ids = append(ids, id)
		require.NoError(t, r.Register(newTestHook(id)))
	}

	for i := 0; i < 10; i++ {
		found := r.FindByEvent(hookmodel.EventBeforeCodeModification)
		require.Len(t, found, len(ids))
		for i, hook := range found {
			assert.Equal(t, ids[i], hook.ID)
		}
	}
}

func TestFindByEventAfterUnregisterKeepsRemainingOrder(t *testing.T) {
	r := New()

	first := NewHookID()
	second := NewHookID()
	third := NewHookID()
	require.NoError(t, r.Register(newTestHook(first)))
	require.NoError(t, r.Register(newTestHook(second)))
	require.NoError(t, r.Register(newTestHook(third)))

	require.NoError(t, r.Unregister(second))

	found := r.FindByEvent(hookmodel.EventBeforeCodeModification)
	require.Len(t, found, 2)
	assert.Equal(t, first, found[0].ID)
	assert.Equal(t, third, found[1].ID)
}

func TestFindByTag(t *testing.T) {
	r := New()
	id := NewHookID()
	hook := newTestHook(id)
	hook.Metadata.Tags = []string{"ci", "security"}
	require.NoError(t, r.Register(hook))

	assert.Len(t, r.FindByTag("ci"), 1)
	assert.Empty(t, r.FindByTag("nonexistent"))
}

func TestSetEnabledAndStats(t *testing.T) {
	r := New()
	id := NewHookID()
	require.NoError(t, r.Register(newTestHook(id)))

	require.NoError(t, r.SetEnabled(id, false))
	stored, _ := r.Get(id)
	assert.False(t, stored.Enabled)

	stats := r.Stats()
	assert.Equal(t, 1, stats.TotalHooks)
	assert.Equal(t, 0, stats.EnabledHooks)
}

func TestClearAll(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(newTestHook(NewHookID())))
	r.ClearAll()
	assert.Equal(t, 0, r.Stats().TotalHooks)
}

func TestHookIDFromNameIsSlugged(t *testing.T) {
	id := HookIDFromName("Block Force Push")
	assert.Contains(t, string(id), "block-force-push")
}

func TestValidateVersion(t *testing.T) {
	assert.NoError(t, ValidateVersion("1.0.0"))
	assert.Error(t, ValidateVersion("not-a-version"))
}
