package hookapproval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard/pkg/hooks/hookerrors"
)

func noNotifications(cfg Config) Config {
	cfg.Notifications.Enabled = false
	return cfg
}

func TestNewWorkflowStartsEmpty(t *testing.T) {
	w := New()
	defer w.Close()

	stats := w.Statistics()
	assert.Equal(t, 0, stats.TotalPending)
	assert.Equal(t, 0, stats.TotalCompleted)
}

func TestSubmitStoresPendingRequest(t *testing.T) {
	cfg := noNotifications(DefaultConfig())
	w := NewWithConfig(cfg)
	defer w.Close()

	id, err := w.Submit(Request{
		RequestType:       "test",
		Description:       "needs review",
		RequestedBy:       "user1",
		RequiredApprovers: []string{"manager"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	stats := w.Statistics()
	assert.Equal(t, 1, stats.TotalPending)
}

func TestSubmitAutoApprovesEligibleRequest(t *testing.T) {
	cfg := noNotifications(DefaultConfig())
	cfg.AutoApproval.Enabled = true
	cfg.AutoApproval.CostThreshold = 1.0
	cfg.AutoApproval.AllowedRequestTypes = []string{"test"}
	w := NewWithConfig(cfg)
	defer w.Close()

	id, err := w.Submit(Request{
		RequestType: "test",
		RequestedBy: "user1",
		Metadata: map[string]interface{}{
			"cost":          0.5,
			"quality_score": 0.9,
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	stats := w.Statistics()
	assert.Equal(t, 0, stats.TotalPending)
	assert.Equal(t, 1, stats.TotalCompleted)
	assert.Equal(t, 1, stats.CompletedByStatus[StatusAutoApproved])
}

func TestSubmitRejectsAtConcurrencyLimit(t *testing.T) {
	cfg := noNotifications(DefaultConfig())
	cfg.MaxConcurrentApprovals = 1
	cfg.AutoApproval.Enabled = false
	w := NewWithConfig(cfg)
	defer w.Close()

	_, err := w.Submit(Request{RequestType: "a", RequestedBy: "u"})
	require.NoError(t, err)

	_, err = w.Submit(Request{RequestType: "b", RequestedBy: "u"})
	assert.Error(t, err)
}

func TestDecideSufficientApprovalsCompletesRequest(t *testing.T) {
	cfg := noNotifications(DefaultConfig())
	cfg.AutoApproval.Enabled = false
	w := NewWithConfig(cfg)
	defer w.Close()

	id, err := w.Submit(Request{
		RequestType:       "deploy",
		RequestedBy:       "user1",
		RequiredApprovers: []string{"alice", "bob"},
	})
	require.NoError(t, err)

	result, err := w.Decide(id, "alice", StatusApproved, "", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, result.FinalStatus)
	assert.Equal(t, []string{"bob"}, result.RemainingApprovers)

	result, err = w.Decide(id, "bob", StatusApproved, "", nil)
	require.NoError(t, err)
	assert.True(t, result.Approved)
	assert.Equal(t, StatusApproved, result.FinalStatus)

	stats := w.Statistics()
	assert.Equal(t, 0, stats.TotalPending)
	assert.Equal(t, 1, stats.CompletedByStatus[StatusApproved])
}

func TestDecideRejectionCompletesImmediately(t *testing.T) {
	cfg := noNotifications(DefaultConfig())
	cfg.AutoApproval.Enabled = false
	w := NewWithConfig(cfg)
	defer w.Close()

	id, err := w.Submit(Request{RequestType: "deploy", RequestedBy: "user1", RequiredApprovers: []string{"alice"}})
	require.NoError(t, err)

	result, err := w.Decide(id, "alice", StatusRejected, "not ready", nil)
	require.NoError(t, err)
	assert.False(t, result.Approved)
	assert.Equal(t, StatusRejected, result.FinalStatus)
}

func TestDecideUnknownEmptyApproverSetNeedsAnyApproval(t *testing.T) {
	cfg := noNotifications(DefaultConfig())
	cfg.AutoApproval.Enabled = false
	w := NewWithConfig(cfg)
	defer w.Close()

	id, err := w.Submit(Request{RequestType: "deploy", RequestedBy: "user1"})
	require.NoError(t, err)

	result, err := w.Decide(id, "anyone", StatusApproved, "", nil)
	require.NoError(t, err)
	assert.True(t, result.Approved)
}

func TestCancelRemovesPendingRequest(t *testing.T) {
	cfg := noNotifications(DefaultConfig())
	cfg.AutoApproval.Enabled = false
	w := NewWithConfig(cfg)
	defer w.Close()

	id, err := w.Submit(Request{RequestType: "deploy", RequestedBy: "user1"})
	require.NoError(t, err)

	require.NoError(t, w.Cancel(id, "no longer needed"))

	stats := w.Statistics()
	assert.Equal(t, 0, stats.TotalPending)
	assert.Equal(t, 1, stats.CompletedByStatus[StatusCancelled])
}

func TestCleanupExpiredMovesOverdueRequests(t *testing.T) {
	cfg := noNotifications(DefaultConfig())
	cfg.AutoApproval.Enabled = false
	cfg.DefaultTimeout = 1 * time.Millisecond
	w := NewWithConfig(cfg)
	defer w.Close()

	id, err := w.Submit(Request{RequestType: "deploy", RequestedBy: "user1"})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	expired := w.CleanupExpired()
	assert.Contains(t, expired, id)

	stats := w.Statistics()
	assert.Equal(t, 0, stats.TotalPending)
	assert.Equal(t, 1, stats.CompletedByStatus[StatusExpired])
}

func TestDecideOnExpiredRequestReturnsRequestExpiredError(t *testing.T) {
	cfg := noNotifications(DefaultConfig())
	cfg.AutoApproval.Enabled = false
	cfg.DefaultTimeout = 1 * time.Millisecond
	w := NewWithConfig(cfg)
	defer w.Close()

	id, err := w.Submit(Request{RequestType: "deploy", RequestedBy: "user1"})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = w.Decide(id, "approver1", StatusApproved, "too late", nil)
	require.Error(t, err)
	assert.True(t, hookerrors.IsKind(err, hookerrors.KindRequestExpired))

	stats := w.Statistics()
	assert.Equal(t, 0, stats.TotalPending)
	assert.Equal(t, 1, stats.CompletedByStatus[StatusExpired])
}

func TestRuleRaisesPriorityAndAddsApprovers(t *testing.T) {
	cfg := noNotifications(DefaultConfig())
	cfg.AutoApproval.Enabled = false
	w := NewWithConfig(cfg)
	defer w.Close()

	w.AddRule(Rule{
		ID:                "high-cost",
		RequiredApprovers: []string{"finance-team"},
		Priority:          PriorityCritical,
		Conditions: []Condition{
			{Field: "request_type", Operator: OpEquals, Value: "expensive_op"},
		},
	})

	id, err := w.Submit(Request{RequestType: "expensive_op", RequestedBy: "user1"})
	require.NoError(t, err)

	request, ok := w.GetRequest(id)
	require.True(t, ok)
	assert.Equal(t, PriorityCritical, request.Priority)
	assert.Contains(t, request.RequiredApprovers, "finance-team")
}

func TestRemoveRule(t *testing.T) {
	w := New()
	defer w.Close()

	w.AddRule(Rule{ID: "r1"})
	assert.Len(t, w.ListRules(), 1)

	assert.True(t, w.RemoveRule("r1"))
	assert.Empty(t, w.ListRules())
	assert.False(t, w.RemoveRule("missing"))
}

func TestAwaitReturnsImmediatelyWhenAlreadyCompleted(t *testing.T) {
	cfg := noNotifications(DefaultConfig())
	cfg.AutoApproval.Enabled = false
	w := NewWithConfig(cfg)
	defer w.Close()

	id, err := w.Submit(Request{RequestType: "deploy", RequestedBy: "user1", RequiredApprovers: []string{"alice"}})
	require.NoError(t, err)
	_, err = w.Decide(id, "alice", StatusApproved, "", nil)
	require.NoError(t, err)

	completed, err := w.Await(context.Background(), id, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, completed.FinalStatus)
}

func TestAwaitPollsUntilDecided(t *testing.T) {
	cfg := noNotifications(DefaultConfig())
	cfg.AutoApproval.Enabled = false
	w := NewWithConfig(cfg)
	defer w.Close()

	id, err := w.Submit(Request{RequestType: "deploy", RequestedBy: "user1", RequiredApprovers: []string{"alice"}})
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_, _ = w.Decide(id, "alice", StatusApproved, "", nil)
	}()

	completed, err := w.Await(context.Background(), id, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, completed.FinalStatus)
}

func TestAwaitRespectsContextCancellation(t *testing.T) {
	cfg := noNotifications(DefaultConfig())
	cfg.AutoApproval.Enabled = false
	w := NewWithConfig(cfg)
	defer w.Close()

	id, err := w.Submit(Request{RequestType: "deploy", RequestedBy: "user1", RequiredApprovers: []string{"alice"}})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err = w.Await(ctx, id, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEvaluateConditionOperators(t *testing.T) {
	r := &Request{RequestType: "deploy", Metadata: map[string]interface{}{"cost": 5.0}}

	assert.True(t, evaluateCondition(Condition{Field: "request_type", Operator: OpEquals, Value: "deploy"}, r))
	assert.False(t, evaluateCondition(Condition{Field: "request_type", Operator: OpEquals, Value: "other"}, r))
	assert.True(t, evaluateCondition(Condition{Field: "cost", Operator: OpGreaterThan, Value: 1.0}, r))
	assert.True(t, evaluateCondition(Condition{Field: "request_type", Operator: OpStartsWith, Value: "dep"}, r))
	assert.True(t, evaluateCondition(Condition{Field: "request_type", Operator: OpMatches, Value: "^dep.*"}, r))
}
