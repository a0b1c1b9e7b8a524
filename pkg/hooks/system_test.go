package hooks

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard/pkg/hooks/hookconfig"
	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
	"github.com/hookguard/hookguard/pkg/hooks/hookrbac"
)

func newTestSystem(t *testing.T) (*System, string) {
	t.Helper()

	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, dir
}

func writeExample(t *testing.T, dir, filename, contents string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestNewWiresEverySubsystem(t *testing.T) {
	s, _ := newTestSystem(t)

	assert.NotNil(t, s.Registry)
	assert.NotNil(t, s.Validator)
	assert.NotNil(t, s.Evaluator)
	assert.NotNil(t, s.Audit)
	assert.NotNil(t, s.Approvals)
	assert.NotNil(t, s.RBAC)
	assert.NotNil(t, s.Executor)
	assert.NotNil(t, s.Events)
	assert.NotNil(t, s.Dispatcher)
}

func TestRegisterListEnableDisableRemoveHook(t *testing.T) {
	s, dir := newTestSystem(t)

	examples := hookconfig.ExampleConfigs()
	var autoFormat string
	for _, ex := range examples {
		if ex.Filename == "auto-format.json" {
			autoFormat = writeExample(t, dir, ex.Filename, ex.JSON)
		}
	}
	require.NotEmpty(t, autoFormat)

	id, err := s.RegisterHook(autoFormat)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	hooks := s.ListHooks()
	require.Len(t, hooks, 1)
	assert.Equal(t, "auto-format", hooks[0].Name)

	require.NoError(t, s.DisableHook(id))
	hooks = s.ListHooks()
	require.Len(t, hooks, 1)
	assert.False(t, hooks[0].Enabled)

	require.NoError(t, s.EnableHook(id))
	hooks = s.ListHooks()
	assert.True(t, hooks[0].Enabled)

	require.NoError(t, s.RemoveHook(id))
	assert.Empty(t, s.ListHooks())
}

func TestRegisterHookRejectsDangerousExample(t *testing.T) {
	s, dir := newTestSystem(t)

	var dangerous string
	for _, ex := range hookconfig.ExampleConfigs() {
		if ex.Filename == "dangerous-hook.json" {
			dangerous = writeExample(t, dir, ex.Filename, ex.JSON)
		}
	}
	require.NotEmpty(t, dangerous)

	_, err := s.RegisterHook(dangerous)
	assert.Error(t, err)
}

func TestLoadHooksFromDirectory(t *testing.T) {
	s, _ := newTestSystem(t)

	hooksDir := filepath.Join(t.TempDir(), "hooks")
	require.NoError(t, hookconfig.GenerateExamples(hooksDir))

	// LoadFromDirectory skips (rather than aborts on) a file that fails
	// validation, so the dangerous example is silently dropped and every
	// other bundled example is registered.
	err := s.LoadHooks(hooksDir)
	require.NoError(t, err)

	var names []string
	for _, h := range s.ListHooks() {
		names = append(names, h.Name)
	}
	assert.Len(t, names, 4)
	assert.NotContains(t, names, "dangerous-example")
}

func TestTestHookEvaluatesConditionWithoutExecutingActions(t *testing.T) {
	s, dir := newTestSystem(t)

	var autoFormat string
	for _, ex := range hookconfig.ExampleConfigs() {
		if ex.Filename == "auto-format.json" {
			autoFormat = writeExample(t, dir, ex.Filename, ex.JSON)
		}
	}
	require.NotEmpty(t, autoFormat)

	matchEvent := hookmodel.NewHookEvent(hookmodel.EventBeforeCodeModification, hookmodel.SourceFromFileSystem("main.go"))
	matchEvent.WithContext("file_path", "main.go")

	matched, err := s.TestHook(autoFormat, matchEvent)
	require.NoError(t, err)
	assert.True(t, matched)

	noMatchEvent := hookmodel.NewHookEvent(hookmodel.EventBeforeCodeModification, hookmodel.SourceFromFileSystem("README.md"))
	noMatchEvent.WithContext("file_path", "README.md")

	matched, err = s.TestHook(autoFormat, noMatchEvent)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestDispatchEventDeliversToDispatcher(t *testing.T) {
	s, _ := newTestSystem(t)

	event := hookmodel.NewHookEvent(hookmodel.EventBeforeConsensus, hookmodel.SourceSystemOrigin())
	require.NoError(t, s.DispatchEvent(event))

	stats := s.GetDispatcherStats()
	assert.Equal(t, uint64(1), stats.EventsReceived)
}

func TestClearAllHooksRequiresConfirmation(t *testing.T) {
	s, dir := newTestSystem(t)

	var autoFormat string
	for _, ex := range hookconfig.ExampleConfigs() {
		if ex.Filename == "auto-format.json" {
			autoFormat = writeExample(t, dir, ex.Filename, ex.JSON)
		}
	}
	_, err := s.RegisterHook(autoFormat)
	require.NoError(t, err)

	err = s.ClearAllHooks(false)
	assert.Error(t, err)
	assert.Len(t, s.ListHooks(), 1)

	err = s.ClearAllHooks(true)
	require.NoError(t, err)
	assert.Empty(t, s.ListHooks())
}

func TestGetTeamHooksAppliesDenyAllowPatternPrecedence(t *testing.T) {
	s, dir := newTestSystem(t)

	files := map[string]string{}
	for _, ex := range hookconfig.ExampleConfigs() {
		if ex.Filename == "dangerous-hook.json" {
			continue
		}
		files[ex.Filename] = writeExample(t, dir, ex.Filename, ex.JSON)
	}

	ids := map[string]hookmodel.HookID{}
	for filename, path := range files {
		id, err := s.RegisterHook(path)
		require.NoError(t, err)
		ids[filename] = id
	}

	team := &hookrbac.Team{
		Name:       "platform",
		HookAccess: hookrbac.NewDefaultHookAccess(),
	}
	team.HookAccess.DeniedHooks[string(ids["security-hook.json"])] = struct{}{}
	team.HookAccess.AllowedHooks[string(ids["cost-control.json"])] = struct{}{}
	team.HookAccess.HookPatterns = []string{"auto-*"}

	require.NoError(t, s.RBAC.CreateTeam(team))

	accessible, err := s.GetTeamHooks("platform")
	require.NoError(t, err)

	var names []string
	for _, h := range accessible {
		names = append(names, h.Name)
	}

	assert.Contains(t, names, "cost-control")
	assert.Contains(t, names, "auto-format")
	assert.NotContains(t, names, "security-scan")
	assert.NotContains(t, names, "quality-gate")
}

func TestGetTeamHooksUnknownTeamErrors(t *testing.T) {
	s, _ := newTestSystem(t)
	_, err := s.GetTeamHooks("does-not-exist")
	assert.Error(t, err)
}

func TestWatchHooksReloadsAndUnregistersOnRemoval(t *testing.T) {
	s, _ := newTestSystem(t)
	hooksDir := t.TempDir()

	var autoFormatJSON string
	for _, ex := range hookconfig.ExampleConfigs() {
		if ex.Filename == "auto-format.json" {
			autoFormatJSON = ex.JSON
		}
	}
	require.NotEmpty(t, autoFormatJSON)

	path := writeExample(t, hooksDir, "auto-format.json", autoFormatJSON)

	require.NoError(t, s.LoadHooks(hooksDir))
	require.Len(t, s.ListHooks(), 1)

	require.NoError(t, s.WatchHooks(hooksDir))
	t.Cleanup(func() { _ = s.StopWatching() })

	require.NoError(t, os.WriteFile(path, []byte(autoFormatJSON), 0o644))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(s.ListHooks()) != 1 {
		time.Sleep(10 * time.Millisecond)
	}
	require.Len(t, s.ListHooks(), 1, "rewriting the same file should replace, not duplicate, the registered hook")

	require.NoError(t, os.Remove(path))

	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(s.ListHooks()) != 0 {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Empty(t, s.ListHooks())
}
