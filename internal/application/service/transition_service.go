package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/dispatcher"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/port"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/entity"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/event"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/routing"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/workflow"
)

// RouteResult is returned to callers of the submission entry point
type RouteResult struct {
	NewStatus    workflow.Status `json:"new_status"`
	RoutedToRole workflow.Stage  `json:"routed_to_role"`
	AutoApproved bool            `json:"auto_approved"`
}

// TransitionService orchestrates claim stage transitions. Each entry point
// loads the claim and tenant policy, invokes the routing engine, and persists
// the new status, approval record and history entry in one transaction guarded
// by a compare-and-swap on the claim version. Every engine invocation is
// recorded in the execution log; failure entries are mandatory.
type TransitionService struct {
	claims     port.ClaimRepository
	records    port.ApprovalRecordRepository
	execLog    port.ExecutionLogRepository
	policies   *TenantPolicyStore
	skipRules  *SkipRuleMatcher
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	logger     *zap.Logger
}

// NewTransitionService creates a new transition service
func NewTransitionService(
	claims port.ClaimRepository,
	records port.ApprovalRecordRepository,
	execLog port.ExecutionLogRepository,
	policies *TenantPolicyStore,
	skipRules *SkipRuleMatcher,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	logger *zap.Logger,
) *TransitionService {
	return &TransitionService{
		claims:     claims,
		records:    records,
		execLog:    execLog,
		policies:   policies,
		skipRules:  skipRules,
		txManager:  txManager,
		dispatcher: d,
		logger:     logger,
	}
}

// RouteOnSubmit routes a claim entering the workflow. Skip rules are
// re-evaluated when the claim carries no skip info, so rule edits between
// creation and submission are honored.
func (s *TransitionService) RouteOnSubmit(ctx context.Context, tenantID, claimID, actor string) (*RouteResult, error) {
	start := time.Now()

	claim, err := s.claims.GetByID(ctx, tenantID, claimID)
	if err != nil {
		s.recordFailure(ctx, claimID, start, err)
		return nil, err
	}

	policy, err := s.policies.PolicyFor(ctx, claim.TenantID)
	if err != nil {
		s.recordFailure(ctx, claimID, start, err)
		return nil, err
	}

	freshSkip := claim.SkipInfo
	if freshSkip == nil {
		emp := routing.EmployeeRef{Email: claim.EmployeeEmail, Designation: claim.EmployeeDesignation}
		freshSkip, err = s.skipRules.Match(ctx, claim.TenantID, emp, claim.Amount, claim.Category)
		if err != nil {
			s.recordFailure(ctx, claimID, start, err)
			return nil, err
		}
	}

	decision := routing.Decide(routing.SnapshotOf(claim), policy, freshSkip)
	trigger := submitTrigger(decision.NextStatus)

	err = s.applyTransition(ctx, claim, decision, []workflow.Trigger{trigger}, actor, submitAction(decision), "", func(txCtx context.Context) error {
		if claim.SkipInfo == nil && freshSkip != nil {
			return s.claims.UpdateSkipInfo(txCtx, claim.ID, freshSkip)
		}
		return nil
	})

	s.recordExecution(ctx, claim, decision, policy, start, err)
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeClaimRouted, claim.TenantID, claim.ID, map[string]interface{}{
			"new_status":     decision.NextStatus.String(),
			"routed_to_role": decision.Stage.String(),
			"auto_approved":  decision.AutoApproved,
		}))
	}

	return &RouteResult{
		NewStatus:    decision.NextStatus,
		RoutedToRole: decision.Stage,
		AutoApproved: decision.AutoApproved,
	}, nil
}

// RouteOnManagerDecision continues the workflow after a manager's decision.
// Rejection is terminal; approval re-checks the auto-skip gates.
func (s *TransitionService) RouteOnManagerDecision(ctx context.Context, tenantID, claimID string, approved bool, actor, comment string) (workflow.Status, error) {
	start := time.Now()

	claim, err := s.claims.GetByID(ctx, tenantID, claimID)
	if err != nil {
		s.recordFailure(ctx, claimID, start, err)
		return "", err
	}

	if !approved {
		decision := rejectionDecision()
		err = s.applyTransition(ctx, claim, decision, []workflow.Trigger{workflow.TriggerReject}, actor, entity.ActionManagerReject, comment, nil)
		s.recordExecution(ctx, claim, decision, routing.TenantPolicy{}, start, err)
		if err != nil {
			return "", err
		}
		return workflow.StatusRejected, nil
	}

	policy, err := s.policies.PolicyFor(ctx, claim.TenantID)
	if err != nil {
		s.recordFailure(ctx, claimID, start, err)
		return "", err
	}

	decision := routing.DecideAfterManager(routing.SnapshotOf(claim), policy)
	triggers := []workflow.Trigger{workflow.TriggerManagerApprove, continuationTrigger(decision.NextStatus)}

	err = s.applyTransition(ctx, claim, decision, triggers, actor, entity.ActionManagerApprove, comment, nil)
	s.recordExecution(ctx, claim, decision, policy, start, err)
	if err != nil {
		return "", err
	}
	return decision.NextStatus, nil
}

// RouteOnHRDecision continues the workflow after an HR decision
func (s *TransitionService) RouteOnHRDecision(ctx context.Context, tenantID, claimID string, approved bool, actor, comment string) (workflow.Status, error) {
	start := time.Now()

	claim, err := s.claims.GetByID(ctx, tenantID, claimID)
	if err != nil {
		s.recordFailure(ctx, claimID, start, err)
		return "", err
	}

	if !approved {
		decision := rejectionDecision()
		err = s.applyTransition(ctx, claim, decision, []workflow.Trigger{workflow.TriggerReject}, actor, entity.ActionHRReject, comment, nil)
		s.recordExecution(ctx, claim, decision, routing.TenantPolicy{}, start, err)
		if err != nil {
			return "", err
		}
		return workflow.StatusRejected, nil
	}

	policy, err := s.policies.PolicyFor(ctx, claim.TenantID)
	if err != nil {
		s.recordFailure(ctx, claimID, start, err)
		return "", err
	}

	decision := routing.DecideAfterHR(routing.SnapshotOf(claim), policy)
	triggers := []workflow.Trigger{workflow.TriggerHRApprove, continuationTrigger(decision.NextStatus)}

	err = s.applyTransition(ctx, claim, decision, triggers, actor, entity.ActionHRApprove, comment, nil)
	s.recordExecution(ctx, claim, decision, policy, start, err)
	if err != nil {
		return "", err
	}
	return decision.NextStatus, nil
}

// RouteOnFinanceDecision completes the finance review stage
func (s *TransitionService) RouteOnFinanceDecision(ctx context.Context, tenantID, claimID string, approved bool, actor, comment string) (workflow.Status, error) {
	claim, err := s.claims.GetByID(ctx, tenantID, claimID)
	if err != nil {
		return "", err
	}

	var decision routing.Decision
	var trigger workflow.Trigger
	var action string
	if approved {
		decision = routing.Decision{
			NextStatus: workflow.StatusFinanceApproved,
			Stage:      workflow.StageFor(workflow.StatusFinanceApproved),
			Rationale:  "finance review approved",
		}
		trigger = workflow.TriggerFinanceApprove
		action = entity.ActionFinanceApprove
	} else {
		decision = rejectionDecision()
		trigger = workflow.TriggerReject
		action = entity.ActionFinanceReject
	}

	if err := s.applyTransition(ctx, claim, decision, []workflow.Trigger{trigger}, actor, action, comment, nil); err != nil {
		return "", err
	}
	return decision.NextStatus, nil
}

// Return sends a pending claim back to the employee for correction
func (s *TransitionService) Return(ctx context.Context, tenantID, claimID, actor, comment string) error {
	claim, err := s.claims.GetByID(ctx, tenantID, claimID)
	if err != nil {
		return err
	}

	decision := routing.Decision{
		NextStatus: workflow.StatusReturnedToEmployee,
		Stage:      workflow.StageFor(workflow.StatusReturnedToEmployee),
		Rationale:  "returned to employee for correction",
	}
	return s.applyTransition(ctx, claim, decision, []workflow.Trigger{workflow.TriggerReturn}, actor, entity.ActionReturn, comment, nil)
}

// Resubmit moves a returned claim back into the workflow and routes it afresh
func (s *TransitionService) Resubmit(ctx context.Context, tenantID, claimID, actor string) (*RouteResult, error) {
	claim, err := s.claims.GetByID(ctx, tenantID, claimID)
	if err != nil {
		return nil, err
	}

	decision := routing.Decision{
		NextStatus: workflow.StatusPendingManager,
		Stage:      workflow.StageFor(workflow.StatusPendingManager),
		Rationale:  "resubmitted by employee",
	}
	err = s.applyTransition(ctx, claim, decision, []workflow.Trigger{workflow.TriggerResubmit}, actor, entity.ActionResubmit, "", func(txCtx context.Context) error {
		// Skip rules are re-evaluated on the submit pass below.
		return s.claims.UpdateSkipInfo(txCtx, claim.ID, nil)
	})
	if err != nil {
		return nil, err
	}

	return s.RouteOnSubmit(ctx, tenantID, claimID, actor)
}

// Settle records payment details for a finance-approved claim. Any other
// source status is rejected with the status unchanged.
func (s *TransitionService) Settle(ctx context.Context, tenantID, claimID, actor, paymentRef string) error {
	claim, err := s.claims.GetByID(ctx, tenantID, claimID)
	if err != nil {
		return err
	}

	machine := workflow.BuildClaimLifecycle(claim.Status)
	if err := machine.Fire(ctx, workflow.TriggerSettle); err != nil {
		return err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.claims.SetSettled(txCtx, claim.ID, claim.Version, paymentRef); err != nil {
			return err
		}
		if err := s.records.Create(txCtx, &entity.ApprovalRecord{
			ClaimID: claim.ID,
			Stage:   workflow.StageAuto,
			Status:  entity.ApprovalRecordApproved,
		}); err != nil {
			return err
		}
		return s.claims.AppendHistory(txCtx, &entity.HistoryEntry{
			ClaimID:    claim.ID,
			Actor:      actor,
			FromStatus: claim.Status,
			ToStatus:   workflow.StatusSettled,
			Action:     entity.ActionSettle,
			Comment:    fmt.Sprintf("payment reference %s", paymentRef),
		})
	})
	if err != nil {
		return err
	}

	corrID := s.emitStatusChanged(ctx, claim, workflow.StatusSettled, false)
	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEventWithCorrelation(event.TypeClaimSettled, claim.TenantID, claim.ID, map[string]interface{}{
			"new_status":        workflow.StatusSettled.String(),
			"employee_id":       claim.EmployeeID,
			"payment_reference": paymentRef,
		}, corrID))
	}
	return nil
}

// applyTransition validates the trigger sequence against the lifecycle
// machine, then persists the status change, approval record and history entry
// atomically. The optional extra step runs inside the same transaction.
func (s *TransitionService) applyTransition(
	ctx context.Context,
	claim *entity.Claim,
	decision routing.Decision,
	triggers []workflow.Trigger,
	actor, action, comment string,
	extra func(ctx context.Context) error,
) error {
	machine := workflow.BuildClaimLifecycle(claim.Status)
	for _, trigger := range triggers {
		if err := machine.Fire(ctx, trigger); err != nil {
			return err
		}
	}
	if machine.Status() != decision.NextStatus {
		return fmt.Errorf("%w: lifecycle ends at %s, decision wants %s",
			workflow.ErrInvalidTransition, machine.Status(), decision.NextStatus)
	}

	canEdit := decision.NextStatus == workflow.StatusReturnedToEmployee

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.claims.UpdateStatus(txCtx, claim.ID, claim.Version, decision.NextStatus, canEdit); err != nil {
			return err
		}
		if extra != nil {
			if err := extra(txCtx); err != nil {
				return err
			}
		}
		if err := s.records.Create(txCtx, &entity.ApprovalRecord{
			ClaimID: claim.ID,
			Stage:   decision.Stage,
			Status:  recordStatusFor(decision.NextStatus),
		}); err != nil {
			return err
		}
		return s.claims.AppendHistory(txCtx, &entity.HistoryEntry{
			ClaimID:    claim.ID,
			Actor:      actor,
			FromStatus: claim.Status,
			ToStatus:   decision.NextStatus,
			Action:     action,
			Comment:    comment,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("Claim transitioned",
		zap.String("claim_id", claim.ID),
		zap.String("from", claim.Status.String()),
		zap.String("to", decision.NextStatus.String()),
		zap.String("action", action))

	s.emitStatusChanged(ctx, claim, decision.NextStatus, decision.AutoApproved)
	return nil
}

// recordExecution appends an execution log entry for a routing invocation.
// Failure entries must be written; success entries are best effort.
func (s *TransitionService) recordExecution(ctx context.Context, claim *entity.Claim, decision routing.Decision, policy routing.TenantPolicy, start time.Time, routeErr error) {
	entry := &entity.ExecutionLogEntry{
		ID:         uuid.NewString(),
		ClaimID:    claim.ID,
		DurationMS: time.Since(start).Milliseconds(),
	}

	if routeErr != nil {
		entry.Outcome = entity.ExecutionFailure
		entry.ErrorMessage = routeErr.Error()
	} else {
		entry.Outcome = entity.ExecutionSuccess
	}

	payload := map[string]interface{}{
		"new_status":    decision.NextStatus,
		"confidence":    claim.Confidence(),
		"auto_approved": decision.AutoApproved,
		"settings": map[string]interface{}{
			"enable_auto_approval":        policy.EnableAutoApproval,
			"auto_approval_threshold":     policy.AutoApprovalThreshold,
			"policy_compliance_threshold": policy.PolicyComplianceThreshold,
			"max_auto_approval_amount":    policy.MaxAutoApprovalAmount.String(),
			"auto_skip_after_manager":     policy.AutoSkipAfterManager,
		},
	}
	if raw, err := json.Marshal(payload); err == nil {
		entry.Result = string(raw)
	}

	if err := s.execLog.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append execution log entry",
			zap.String("claim_id", claim.ID),
			zap.String("outcome", entry.Outcome),
			zap.Error(err))
	}
}

// recordFailure writes a failure execution log entry when routing aborts
// before a decision was reached.
func (s *TransitionService) recordFailure(ctx context.Context, claimID string, start time.Time, routeErr error) {
	entry := &entity.ExecutionLogEntry{
		ID:           uuid.NewString(),
		ClaimID:      claimID,
		Outcome:      entity.ExecutionFailure,
		DurationMS:   time.Since(start).Milliseconds(),
		ErrorMessage: routeErr.Error(),
	}
	if err := s.execLog.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append execution log entry",
			zap.String("claim_id", claimID),
			zap.Error(err))
	}
}

// emitStatusChanged publishes the status-changed event and returns its
// correlation ID so follow-up events can join the same chain. Terminal
// rejections additionally publish a correlated claim-rejected event.
func (s *TransitionService) emitStatusChanged(ctx context.Context, claim *entity.Claim, newStatus workflow.Status, autoApproved bool) string {
	if s.dispatcher == nil {
		return ""
	}
	evt := event.NewEvent(event.TypeStatusChanged, claim.TenantID, claim.ID, map[string]interface{}{
		"previous_status": claim.Status.String(),
		"new_status":      newStatus.String(),
		"employee_id":     claim.EmployeeID,
		"auto_approved":   autoApproved,
	})
	s.dispatcher.DispatchAsync(ctx, evt)

	if newStatus == workflow.StatusRejected {
		s.dispatcher.DispatchAsync(ctx, event.NewEventWithCorrelation(event.TypeClaimRejected, claim.TenantID, claim.ID, map[string]interface{}{
			"previous_status": claim.Status.String(),
			"employee_id":     claim.EmployeeID,
		}, evt.CorrelationID))
	}
	return evt.CorrelationID
}

// submitTrigger maps a submission routing target to its lifecycle trigger
func submitTrigger(target workflow.Status) workflow.Trigger {
	switch target {
	case workflow.StatusSettled:
		return workflow.TriggerAutoSettle
	case workflow.StatusFinanceApproved:
		return workflow.TriggerAutoApprove
	case workflow.StatusPendingFinance:
		return workflow.TriggerRouteFinance
	case workflow.StatusPendingHR:
		return workflow.TriggerRouteHR
	case workflow.StatusRejected:
		return workflow.TriggerReject
	default:
		return workflow.TriggerRouteManager
	}
}

// submitAction names the audit trail action for a submission routing outcome
func submitAction(d routing.Decision) string {
	switch d.NextStatus {
	case workflow.StatusSettled:
		return entity.ActionAutoSettle
	case workflow.StatusFinanceApproved:
		return entity.ActionAutoApprove
	case workflow.StatusRejected:
		return entity.ActionSystemReject
	case workflow.StatusPendingHR, workflow.StatusPendingFinance:
		return entity.ActionRoute
	default:
		return entity.ActionSubmit
	}
}

// continuationTrigger maps a post-approval routing target to its trigger
func continuationTrigger(target workflow.Status) workflow.Trigger {
	switch target {
	case workflow.StatusFinanceApproved:
		return workflow.TriggerAutoApprove
	case workflow.StatusPendingHR:
		return workflow.TriggerRouteHR
	default:
		return workflow.TriggerRouteFinance
	}
}

// recordStatusFor returns the approval record status for a routed target
func recordStatusFor(target workflow.Status) string {
	switch {
	case target == workflow.StatusRejected:
		return entity.ApprovalRecordRejected
	case target.IsPendingReview(), target == workflow.StatusReturnedToEmployee:
		return entity.ApprovalRecordPending
	default:
		return entity.ApprovalRecordApproved
	}
}

func rejectionDecision() routing.Decision {
	return routing.Decision{
		NextStatus: workflow.StatusRejected,
		Stage:      workflow.StageFor(workflow.StatusRejected),
		Rationale:  "rejected by reviewer",
	}
}
