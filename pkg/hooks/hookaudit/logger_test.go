package hookaudit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLogEventAndGetRecentLogs(t *testing.T) {
	l := newTestLogger(t)

	require.NoError(t, l.LogHookRegistered("hook-1", "deploy"))
	require.NoError(t, l.LogExecutionStart("hook-1", "exec-1", "file_saved", false))
	require.NoError(t, l.LogExecutionComplete("hook-1", "exec-1", true, 120, 2))

	recent, err := l.GetRecentLogs(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, EventExecutionCompleted, recent[0].Type, "most recent event comes first")
	assert.Equal(t, EventExecutionStarted, recent[1].Type)
}

func TestSearchLogsByHookAndType(t *testing.T) {
	l := newTestLogger(t)

	require.NoError(t, l.LogHookRegistered("hook-1", "deploy"))
	require.NoError(t, l.LogHookRegistered("hook-2", "lint"))
	require.NoError(t, l.LogExecutionFailed("hook-1", "exec-1", "timeout"))

	matched, err := l.SearchLogs(SearchCriteria{HookID: "hook-1"})
	require.NoError(t, err)
	assert.Len(t, matched, 2)

	matched, err = l.SearchLogs(SearchCriteria{EventTypes: []EventType{EventExecutionFailed}})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "timeout", matched[0].Error)
}

func TestSearchLogsSuccessOnlyExcludesFailuresAndViolations(t *testing.T) {
	l := newTestLogger(t)

	require.NoError(t, l.LogExecutionComplete("hook-1", "exec-1", true, 10, 1))
	require.NoError(t, l.LogExecutionComplete("hook-1", "exec-2", false, 10, 1))
	require.NoError(t, l.LogExecutionFailed("hook-1", "exec-3", "boom"))
	require.NoError(t, l.LogSecurityViolation("hook-1", "blocked command"))

	matched, err := l.SearchLogs(SearchCriteria{SuccessOnly: true})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "exec-1", matched[0].ExecutionID)
}

func TestGenerateReport(t *testing.T) {
	l := newTestLogger(t)

	require.NoError(t, l.LogExecutionComplete("hook-1", "exec-1", true, 10, 1))
	require.NoError(t, l.LogExecutionComplete("hook-1", "exec-2", true, 10, 1))
	require.NoError(t, l.LogExecutionFailed("hook-2", "exec-3", "boom"))
	require.NoError(t, l.LogSecurityViolation("hook-1", "blocked command"))

	report, err := GenerateReport(l, 7)
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalEvents)
	assert.Equal(t, 2, report.SuccessfulExecutions)
	assert.Equal(t, 1, report.FailedExecutions)
	assert.Equal(t, 1, report.SecurityViolations)
	require.NotEmpty(t, report.MostActiveHooks)
	assert.Equal(t, "hook-1", report.MostActiveHooks[0].HookID)
	assert.Equal(t, 3, report.MostActiveHooks[0].Count)
}

func TestSearchCriteriaTimeRange(t *testing.T) {
	l := newTestLogger(t)
	require.NoError(t, l.LogHookRegistered("hook-1", "deploy"))

	future := time.Now().UTC().Add(time.Hour)
	matched, err := l.SearchLogs(SearchCriteria{StartTime: &future})
	require.NoError(t, err)
	assert.Empty(t, matched, "events before StartTime are excluded")
}
