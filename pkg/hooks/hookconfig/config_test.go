package hookconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
	"github.com/hookguard/hookguard/pkg/hooks/hooksecurity"
)

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	v, err := hooksecurity.NewValidator()
	require.NoError(t, err)
	return NewLoader(v)
}

func TestLoadFromFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auto-format.json")
	require.NoError(t, os.WriteFile(path, []byte(autoFormatExample), 0o644))

	hook, err := newTestLoader(t).LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "auto-format", hook.Name)
	assert.Equal(t, hookmodel.PriorityHigh, hook.Priority)
	require.Len(t, hook.Events, 1)
	assert.Equal(t, hookmodel.EventBeforeCodeModification, hook.Events[0])
	require.Len(t, hook.Conditions, 1)
	require.Len(t, hook.Actions, 1)
	assert.True(t, hook.Security.StopOnError)
}

func TestLoadFromFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quality-gate.yaml")
	yamlContent := `
name: quality-gate
events:
  - quality_gate_check
conditions:
  type: context_variable
  key: complexity
  operator: lt
  value: 10
actions:
  - type: modify_context
    operation: set
    key: quality_passed
    value: true
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	hook, err := newTestLoader(t).LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "quality-gate", hook.Name)
	require.Len(t, hook.Conditions, 1)
	require.Len(t, hook.Actions, 1)
}

func TestLoadFromFileRejectsUnknownEventType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	content := `{"name": "bad", "events": ["not_a_real_event"], "actions": []}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := newTestLoader(t).LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFileRejectsDangerousHook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dangerous-hook.json")
	require.NoError(t, os.WriteFile(path, []byte(dangerousHookExample), 0o644))

	_, err := newTestLoader(t).LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromDirectorySkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.json"), []byte(autoFormatExample), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{not valid json`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dangerous-hook.json"), []byte(dangerousHookExample), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("not a hook"), 0o644))

	hooks, err := newTestLoader(t).LoadFromDirectory(dir)
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	assert.Equal(t, "auto-format", hooks[0].Name)
}

func TestGenerateExamplesWritesAllFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, GenerateExamples(dir))

	for _, ex := range ExampleConfigs() {
		data, err := os.ReadFile(filepath.Join(dir, ex.Filename))
		require.NoError(t, err)
		assert.Equal(t, ex.JSON, string(data))
	}
}

func TestFileConfigToHookDefaultsPriorityAndVersion(t *testing.T) {
	fc := FileConfig{
		Name:   "defaults-test",
		Events: []string{"before_consensus"},
	}

	hook, err := fc.ToHook("inline")
	require.NoError(t, err)
	assert.Equal(t, hookmodel.PriorityNormal, hook.Priority)
	assert.True(t, hook.Enabled)
	assert.Equal(t, "1.0.0", hook.Metadata.Version)
	assert.Equal(t, "inline", hook.Metadata.Source)
}
