package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/dispatcher"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/port"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/entity"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/event"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/routing"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/workflow"
)

type transitionFixture struct {
	claims   *mockClaimRepo
	settings *mockSettingRepo
	rules    *mockSkipRuleRepo
	records  *mockRecordRepo
	execLog  *mockExecLogRepo
	svc      *TransitionService
}

func newTransitionFixture(t *testing.T, claims ...*entity.Claim) *transitionFixture {
	t.Helper()
	logger := zap.NewNop()

	f := &transitionFixture{
		claims:   newMockClaimRepo(claims...),
		settings: newMockSettingRepo(),
		rules:    &mockSkipRuleRepo{},
		records:  &mockRecordRepo{},
		execLog:  &mockExecLogRepo{},
	}

	policies := NewTenantPolicyStore(f.settings, time.Minute, logger)
	matcher := NewSkipRuleMatcher(f.rules, logger)
	f.svc = NewTransitionService(f.claims, f.records, f.execLog, policies, matcher, passthroughTx{}, nil, logger)
	return f
}

// withEventCapture attaches a live dispatcher to the fixture and returns a
// snapshot function that drains it and hands back the last event seen per
// subscribed type.
func (f *transitionFixture) withEventCapture(types ...event.Type) func() map[event.Type]*event.Event {
	d := dispatcher.NewDispatcher()
	var mu sync.Mutex
	seen := make(map[event.Type]*event.Event)
	for _, typ := range types {
		typ := typ
		d.Subscribe(typ, func(_ context.Context, evt *event.Event) error {
			mu.Lock()
			defer mu.Unlock()
			seen[typ] = evt
			return nil
		})
	}
	f.svc.dispatcher = d
	return func() map[event.Type]*event.Event {
		_ = d.Close()
		mu.Lock()
		defer mu.Unlock()
		return seen
	}
}

func pendingClaim(id string, amount int64, confidence float64, checks []entity.RuleCheck) *entity.Claim {
	return &entity.Claim{
		ID:       id,
		TenantID: "acme",
		Status:   workflow.StatusPendingManager,
		Amount:   decimal.NewFromInt(amount),
		Version:  1,
		Validation: &entity.ValidationResult{
			Version:        1,
			Confidence:     confidence,
			Recommendation: entity.RecommendationApprove,
			RulesChecked:   checks,
		},
	}
}

func cleanChecks() []entity.RuleCheck {
	return []entity.RuleCheck{{Rule: "receipt_attached", Result: entity.RuleCheckPass}}
}

func violatedChecks() []entity.RuleCheck {
	return []entity.RuleCheck{{Rule: "receipt_attached", Result: entity.RuleCheckFail}}
}

func TestRouteOnSubmitDefaultsToManagerReview(t *testing.T) {
	claim := pendingClaim("c1", 300, 0.85, cleanChecks())
	f := newTransitionFixture(t, claim)

	result, err := f.svc.RouteOnSubmit(context.Background(), "acme", "c1", "emp-1")
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusPendingManager, result.NewStatus)
	assert.Equal(t, workflow.StageManager, result.RoutedToRole)
	assert.False(t, result.AutoApproved)

	stored, _ := f.claims.GetByID(context.Background(), "acme", "c1")
	assert.Equal(t, workflow.StatusPendingManager, stored.Status)
	assert.Equal(t, int64(2), stored.Version)

	require.Len(t, f.records.records, 1)
	assert.Equal(t, entity.ApprovalRecordPending, f.records.records[0].Status)

	require.Len(t, f.claims.history, 1)
	assert.Equal(t, entity.ActionSubmit, f.claims.history[0].Action)

	entry := f.execLog.last()
	require.NotNil(t, entry)
	assert.Equal(t, entity.ExecutionSuccess, entry.Outcome)
	assert.Contains(t, entry.Result, "PENDING_MANAGER")
}

func TestRouteOnSubmitAutoApproves(t *testing.T) {
	claim := pendingClaim("c1", 120, 0.97, cleanChecks())
	f := newTransitionFixture(t, claim)
	f.settings.set("acme", routing.SettingEnableAutoApproval, "true")

	result, err := f.svc.RouteOnSubmit(context.Background(), "acme", "c1", "emp-1")
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusFinanceApproved, result.NewStatus)
	assert.True(t, result.AutoApproved)

	require.Len(t, f.records.records, 1)
	assert.Equal(t, entity.ApprovalRecordApproved, f.records.records[0].Status)
	assert.Equal(t, workflow.StageAuto, f.records.records[0].Stage)

	require.Len(t, f.claims.history, 1)
	assert.Equal(t, entity.ActionAutoApprove, f.claims.history[0].Action)
}

func TestRouteOnSubmitMatchesFreshSkipRule(t *testing.T) {
	claim := pendingClaim("c1", 300, 0.85, cleanChecks())
	claim.EmployeeDesignation = "Director"
	f := newTransitionFixture(t, claim)
	f.rules.rules = []*entity.SkipRule{{
		ID:           "r1",
		TenantID:     "acme",
		Name:         "directors",
		MatchType:    entity.MatchTypeDesignation,
		Designations: []string{"Director"},
		SkipManager:  true,
		SkipHR:       true,
		IsActive:     true,
	}}

	result, err := f.svc.RouteOnSubmit(context.Background(), "acme", "c1", "emp-1")
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusPendingFinance, result.NewStatus)

	stored, _ := f.claims.GetByID(context.Background(), "acme", "c1")
	require.NotNil(t, stored.SkipInfo)
	assert.Equal(t, "r1", stored.SkipInfo.AppliedRuleID)

	require.Len(t, f.claims.history, 1)
	assert.Equal(t, entity.ActionRoute, f.claims.history[0].Action)
}

func TestRouteOnSubmitFullBypassSettles(t *testing.T) {
	claim := pendingClaim("c1", 300, 0.85, cleanChecks())
	claim.SkipInfo = &entity.SkipInfo{
		AppliedRuleID: "r1", AppliedRuleName: "executives",
		SkipManager: true, SkipHR: true, SkipFinance: true,
	}
	f := newTransitionFixture(t, claim)

	result, err := f.svc.RouteOnSubmit(context.Background(), "acme", "c1", "emp-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusSettled, result.NewStatus)
	assert.True(t, result.AutoApproved)

	require.Len(t, f.claims.history, 1)
	assert.Equal(t, entity.ActionAutoSettle, f.claims.history[0].Action)
}

func TestRouteOnSubmitLowConfidenceRejects(t *testing.T) {
	claim := pendingClaim("c1", 300, 0.40, cleanChecks())
	claim.Validation.Recommendation = entity.RecommendationReview
	f := newTransitionFixture(t, claim)

	result, err := f.svc.RouteOnSubmit(context.Background(), "acme", "c1", "emp-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRejected, result.NewStatus)

	require.Len(t, f.claims.history, 1)
	assert.Equal(t, entity.ActionSystemReject, f.claims.history[0].Action)
}

func TestRouteOnSubmitConflictIsAuditedAndSurfaced(t *testing.T) {
	claim := pendingClaim("c1", 300, 0.85, cleanChecks())
	f := newTransitionFixture(t, claim)
	f.claims.updateStatusErr = port.ErrConflict

	_, err := f.svc.RouteOnSubmit(context.Background(), "acme", "c1", "emp-1")
	require.ErrorIs(t, err, port.ErrConflict)

	entry := f.execLog.last()
	require.NotNil(t, entry)
	assert.Equal(t, entity.ExecutionFailure, entry.Outcome)
	assert.NotEmpty(t, entry.ErrorMessage)
}

func TestRouteOnSubmitMissingClaimWritesFailureEntry(t *testing.T) {
	f := newTransitionFixture(t)

	_, err := f.svc.RouteOnSubmit(context.Background(), "acme", "ghost", "emp-1")
	require.ErrorIs(t, err, port.ErrNotFound)

	entry := f.execLog.last()
	require.NotNil(t, entry)
	assert.Equal(t, entity.ExecutionFailure, entry.Outcome)
}

func TestRouteOnManagerDecision(t *testing.T) {
	t.Run("approval continues to finance", func(t *testing.T) {
		claim := pendingClaim("c1", 300, 0.85, cleanChecks())
		f := newTransitionFixture(t, claim)

		status, err := f.svc.RouteOnManagerDecision(context.Background(), "acme", "c1", true, "mgr-1", "looks fine")
		require.NoError(t, err)
		assert.Equal(t, workflow.StatusPendingFinance, status)

		require.Len(t, f.claims.history, 1)
		assert.Equal(t, entity.ActionManagerApprove, f.claims.history[0].Action)
		assert.Equal(t, workflow.StatusPendingManager, f.claims.history[0].FromStatus)
	})

	t.Run("violations route to HR", func(t *testing.T) {
		claim := pendingClaim("c1", 300, 0.85, violatedChecks())
		f := newTransitionFixture(t, claim)

		status, err := f.svc.RouteOnManagerDecision(context.Background(), "acme", "c1", true, "mgr-1", "")
		require.NoError(t, err)
		assert.Equal(t, workflow.StatusPendingHR, status)
	})

	t.Run("rejection is terminal", func(t *testing.T) {
		claim := pendingClaim("c1", 300, 0.85, cleanChecks())
		f := newTransitionFixture(t, claim)

		status, err := f.svc.RouteOnManagerDecision(context.Background(), "acme", "c1", false, "mgr-1", "duplicate")
		require.NoError(t, err)
		assert.Equal(t, workflow.StatusRejected, status)

		require.Len(t, f.claims.history, 1)
		assert.Equal(t, entity.ActionManagerReject, f.claims.history[0].Action)
	})

	t.Run("auto-skip bypasses HR and finance", func(t *testing.T) {
		claim := pendingClaim("c1", 300, 0.97, cleanChecks())
		f := newTransitionFixture(t, claim)
		f.settings.set("acme", routing.SettingEnableAutoApproval, "true")
		f.settings.set("acme", routing.SettingAutoSkipAfterManager, "true")

		status, err := f.svc.RouteOnManagerDecision(context.Background(), "acme", "c1", true, "mgr-1", "")
		require.NoError(t, err)
		assert.Equal(t, workflow.StatusFinanceApproved, status)
	})
}

func TestRouteOnHRDecision(t *testing.T) {
	t.Run("approval continues to finance", func(t *testing.T) {
		claim := pendingClaim("c1", 300, 0.85, violatedChecks())
		claim.Status = workflow.StatusPendingHR
		f := newTransitionFixture(t, claim)

		status, err := f.svc.RouteOnHRDecision(context.Background(), "acme", "c1", true, "hr-1", "reviewed")
		require.NoError(t, err)
		assert.Equal(t, workflow.StatusPendingFinance, status)
	})

	t.Run("auto-skip ignores failed checks HR just reviewed", func(t *testing.T) {
		claim := pendingClaim("c1", 300, 0.97, violatedChecks())
		claim.Status = workflow.StatusPendingHR
		f := newTransitionFixture(t, claim)
		f.settings.set("acme", routing.SettingEnableAutoApproval, "true")
		f.settings.set("acme", routing.SettingAutoSkipAfterManager, "true")

		status, err := f.svc.RouteOnHRDecision(context.Background(), "acme", "c1", true, "hr-1", "")
		require.NoError(t, err)
		assert.Equal(t, workflow.StatusFinanceApproved, status)
	})
}

func TestRouteOnFinanceDecision(t *testing.T) {
	claim := pendingClaim("c1", 300, 0.85, cleanChecks())
	claim.Status = workflow.StatusPendingFinance
	f := newTransitionFixture(t, claim)

	status, err := f.svc.RouteOnFinanceDecision(context.Background(), "acme", "c1", true, "fin-1", "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusFinanceApproved, status)
}

func TestSettle(t *testing.T) {
	t.Run("records payment reference", func(t *testing.T) {
		claim := pendingClaim("c1", 300, 0.85, cleanChecks())
		claim.Status = workflow.StatusFinanceApproved
		f := newTransitionFixture(t, claim)

		err := f.svc.Settle(context.Background(), "acme", "c1", "fin-1", "PAY-42")
		require.NoError(t, err)

		stored, _ := f.claims.GetByID(context.Background(), "acme", "c1")
		assert.Equal(t, workflow.StatusSettled, stored.Status)
		assert.Equal(t, "PAY-42", stored.PaymentReference)
	})

	t.Run("requires finance approval", func(t *testing.T) {
		claim := pendingClaim("c1", 300, 0.85, cleanChecks())
		f := newTransitionFixture(t, claim)

		err := f.svc.Settle(context.Background(), "acme", "c1", "fin-1", "PAY-42")
		require.ErrorIs(t, err, workflow.ErrInvalidTransition)

		stored, _ := f.claims.GetByID(context.Background(), "acme", "c1")
		assert.Equal(t, workflow.StatusPendingManager, stored.Status)
	})
}

func TestReturnAndResubmit(t *testing.T) {
	claim := pendingClaim("c1", 300, 0.85, cleanChecks())
	f := newTransitionFixture(t, claim)

	err := f.svc.Return(context.Background(), "acme", "c1", "mgr-1", "missing receipt")
	require.NoError(t, err)

	stored, _ := f.claims.GetByID(context.Background(), "acme", "c1")
	assert.Equal(t, workflow.StatusReturnedToEmployee, stored.Status)
	assert.True(t, stored.CanEdit)

	result, err := f.svc.Resubmit(context.Background(), "acme", "c1", "emp-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingManager, result.NewStatus)

	stored, _ = f.claims.GetByID(context.Background(), "acme", "c1")
	assert.False(t, stored.CanEdit)
}

func TestRouteOnSubmitEmitsRoutedEvent(t *testing.T) {
	claim := pendingClaim("c1", 300, 0.85, violatedChecks())
	f := newTransitionFixture(t, claim)
	snapshot := f.withEventCapture(event.TypeClaimRouted)

	result, err := f.svc.RouteOnSubmit(context.Background(), "acme", "c1", "emp-1")
	require.NoError(t, err)
	require.Equal(t, workflow.StatusPendingHR, result.NewStatus)

	routed := snapshot()[event.TypeClaimRouted]
	require.NotNil(t, routed)
	assert.Equal(t, "c1", routed.ClaimID)
	assert.Equal(t, "PENDING_HR", routed.GetPayloadString("new_status"))
	assert.Equal(t, workflow.StageHR.String(), routed.GetPayloadString("routed_to_role"))
	assert.False(t, routed.GetPayloadBool("auto_approved"))
}

func TestSettleEmitsCorrelatedSettledEvent(t *testing.T) {
	claim := pendingClaim("c1", 300, 0.85, cleanChecks())
	claim.Status = workflow.StatusFinanceApproved
	f := newTransitionFixture(t, claim)
	snapshot := f.withEventCapture(event.TypeStatusChanged, event.TypeClaimSettled)

	require.NoError(t, f.svc.Settle(context.Background(), "acme", "c1", "fin-1", "PAY-42"))

	seen := snapshot()
	changed := seen[event.TypeStatusChanged]
	settled := seen[event.TypeClaimSettled]
	require.NotNil(t, changed)
	require.NotNil(t, settled)

	assert.Equal(t, changed.CorrelationID, settled.CorrelationID)
	assert.Equal(t, "PAY-42", settled.GetPayloadString("payment_reference"))
	assert.Equal(t, "SETTLED", settled.GetPayloadString("new_status"))
}

func TestManagerRejectionEmitsCorrelatedRejectedEvent(t *testing.T) {
	claim := pendingClaim("c1", 300, 0.85, cleanChecks())
	f := newTransitionFixture(t, claim)
	snapshot := f.withEventCapture(event.TypeStatusChanged, event.TypeClaimRejected)

	status, err := f.svc.RouteOnManagerDecision(context.Background(), "acme", "c1", false, "mgr-1", "duplicate")
	require.NoError(t, err)
	require.Equal(t, workflow.StatusRejected, status)

	seen := snapshot()
	changed := seen[event.TypeStatusChanged]
	rejected := seen[event.TypeClaimRejected]
	require.NotNil(t, changed)
	require.NotNil(t, rejected)

	assert.Equal(t, changed.CorrelationID, rejected.CorrelationID)
	assert.Equal(t, "PENDING_MANAGER", rejected.GetPayloadString("previous_status"))
}

func TestTerminalClaimsRejectFurtherTransitions(t *testing.T) {
	claim := pendingClaim("c1", 300, 0.85, cleanChecks())
	claim.Status = workflow.StatusSettled
	f := newTransitionFixture(t, claim)

	_, err := f.svc.RouteOnManagerDecision(context.Background(), "acme", "c1", true, "mgr-1", "")
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)

	err = f.svc.Return(context.Background(), "acme", "c1", "mgr-1", "")
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
}
