package routing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/entity"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/workflow"
)

// minimumConfidence is the floor below which an unskipped, compliant claim is
// rejected outright instead of routed to a reviewer.
const minimumConfidence = 0.60

// ClaimSnapshot is the subset of claim state the decision engine reads.
// All fields are values; deciding has no I/O and no side effects.
type ClaimSnapshot struct {
	Status         workflow.Status
	Amount         decimal.Decimal
	Confidence     float64
	Recommendation string
	RulesChecked   []entity.RuleCheck
	SkipInfo       *entity.SkipInfo
}

// SnapshotOf assembles a ClaimSnapshot from persisted claim state
func SnapshotOf(c *entity.Claim) ClaimSnapshot {
	snap := ClaimSnapshot{
		Status:   c.Status,
		Amount:   c.Amount,
		SkipInfo: c.SkipInfo,
	}
	if c.Validation != nil {
		snap.Confidence = c.Validation.Confidence
		snap.Recommendation = c.Validation.Recommendation
		snap.RulesChecked = c.Validation.RulesChecked
	}
	return snap
}

// failedRules returns the policy checks that did not pass. Shared by every
// precedence branch so the branches cannot diverge.
func (s ClaimSnapshot) failedRules() []entity.RuleCheck {
	var failed []entity.RuleCheck
	for _, rc := range s.RulesChecked {
		if rc.Result == entity.RuleCheckFail {
			failed = append(failed, rc)
		}
	}
	return failed
}

// Decision is the routing engine's output for one invocation
type Decision struct {
	NextStatus      workflow.Status
	Stage           workflow.Stage
	AutoApproved    bool
	SkipRuleApplied bool
	Rationale       string
}

func decision(next workflow.Status, rationale string) Decision {
	return Decision{
		NextStatus: next,
		Stage:      workflow.StageFor(next),
		Rationale:  rationale,
	}
}

// Decide computes the next status for a claim entering the workflow. The
// precedence is strict: an applied skip rule is honored first (with policy
// violations forcing HR review unless the rule waives HR), then auto-approval,
// then policy violations, then the low-confidence rejection floor, then the
// default manager route. skip, when non-nil, supersedes the snapshot's stored
// skip info; pass nil to use whatever the claim already carries.
func Decide(snap ClaimSnapshot, policy TenantPolicy, skip *entity.SkipInfo) Decision {
	if skip == nil {
		skip = snap.SkipInfo
	}
	failed := snap.failedRules()

	// 1. Skip-rule override.
	if skip != nil && skip.AppliedRuleID != "" {
		if len(failed) > 0 && !skip.SkipHR {
			d := decision(workflow.StatusPendingHR,
				fmt.Sprintf("%d policy rule(s) failed; skip rule %q does not waive HR review", len(failed), skip.AppliedRuleName))
			d.SkipRuleApplied = true
			return d
		}

		switch {
		case skip.SkipManager && skip.SkipHR && skip.SkipFinance:
			d := decision(workflow.StatusSettled,
				fmt.Sprintf("skip rule %q waives all approval levels", skip.AppliedRuleName))
			d.SkipRuleApplied = true
			d.AutoApproved = true
			return d
		case skip.SkipManager && skip.SkipHR:
			d := decision(workflow.StatusPendingFinance,
				fmt.Sprintf("skip rule %q waives manager and HR review", skip.AppliedRuleName))
			d.SkipRuleApplied = true
			return d
		case skip.SkipManager:
			d := decision(workflow.StatusPendingHR,
				fmt.Sprintf("skip rule %q waives manager review", skip.AppliedRuleName))
			d.SkipRuleApplied = true
			return d
		}
		// Rule matched but granted no bypass; fall through.
	}

	// 2. Auto-approval.
	if policy.EnableAutoApproval {
		meetsAIThreshold := snap.Confidence >= policy.AIThreshold()
		meetsPolicyThreshold := snap.Confidence >= policy.ComplianceThreshold()
		meetsAmountLimit := snap.Amount.LessThanOrEqual(policy.MaxAutoApprovalAmount)
		hasApproveRecommendation := snap.Recommendation == entity.RecommendationApprove ||
			snap.Recommendation == entity.RecommendationAutoApprove

		if meetsAIThreshold && meetsPolicyThreshold && meetsAmountLimit && hasApproveRecommendation {
			d := decision(workflow.StatusFinanceApproved,
				fmt.Sprintf("auto-approved: confidence %.2f meets thresholds and amount within limit", snap.Confidence))
			d.AutoApproved = true
			return d
		}
	}

	// 3. Policy violation.
	if len(failed) > 0 {
		return decision(workflow.StatusPendingHR,
			fmt.Sprintf("%d policy rule(s) failed; HR review required", len(failed)))
	}

	// 4. Low confidence.
	if snap.Confidence < minimumConfidence {
		return decision(workflow.StatusRejected,
			fmt.Sprintf("confidence %.2f below minimum %.2f", snap.Confidence, minimumConfidence))
	}

	// 5. Default.
	return decision(workflow.StatusPendingManager, "standard manager review")
}

// DecideAfterManager computes the continuation after a manager approval.
// With auto-skip enabled the remaining review stages can be bypassed when the
// claim is clean; policy violations still force HR review.
func DecideAfterManager(snap ClaimSnapshot, policy TenantPolicy) Decision {
	failed := snap.failedRules()

	if policy.AutoSkipAfterManager && policy.EnableAutoApproval &&
		snap.Confidence >= policy.AIThreshold() &&
		len(failed) == 0 &&
		snap.Amount.LessThanOrEqual(policy.MaxAutoApprovalAmount) {
		d := decision(workflow.StatusFinanceApproved,
			"auto-skip after manager approval: HR and finance review bypassed")
		d.AutoApproved = true
		return d
	}

	if len(failed) > 0 {
		return decision(workflow.StatusPendingHR,
			fmt.Sprintf("%d policy rule(s) failed; HR review required", len(failed)))
	}

	return decision(workflow.StatusPendingFinance, "manager approved; finance review next")
}

// DecideAfterHR computes the continuation after an HR approval. Unlike the
// manager continuation this gate does not re-check policy rules; HR has just
// reviewed them.
func DecideAfterHR(snap ClaimSnapshot, policy TenantPolicy) Decision {
	if policy.AutoSkipAfterManager && policy.EnableAutoApproval &&
		snap.Confidence >= policy.AIThreshold() &&
		snap.Amount.LessThanOrEqual(policy.MaxAutoApprovalAmount) {
		d := decision(workflow.StatusFinanceApproved,
			"auto-skip after HR approval: finance review bypassed")
		d.AutoApproved = true
		return d
	}

	return decision(workflow.StatusPendingFinance, "HR approved; finance review next")
}
