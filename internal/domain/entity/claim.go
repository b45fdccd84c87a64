package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/workflow"
)

// RuleCheck is the outcome of a single policy-compliance check on a claim
type RuleCheck struct {
	Rule        string `json:"rule"`
	Description string `json:"description,omitempty"`
	Result      string `json:"result"`
}

// ValidationResult is the structured output of the upstream claim validator.
// The record is versioned so the routing engine never depends on loosely
// typed key lookups into a free-form blob.
type ValidationResult struct {
	Version        int         `json:"version"`
	Confidence     float64     `json:"confidence"`
	Recommendation string      `json:"recommendation"`
	RulesChecked   []RuleCheck `json:"rules_checked"`
}

// SkipInfo is the denormalized snapshot of the skip rule applied to a claim.
// Later edits or deletions of the rule never change a settled claim's history.
type SkipInfo struct {
	AppliedRuleID   string `json:"applied_rule_id"`
	AppliedRuleName string `json:"applied_rule_name"`
	SkipManager     bool   `json:"skip_manager"`
	SkipHR          bool   `json:"skip_hr"`
	SkipFinance     bool   `json:"skip_finance"`
}

// Claim is an expense reimbursement request moving through approval
type Claim struct {
	ID                  string            `json:"id"`
	TenantID            string            `json:"tenant_id"`
	ClaimNumber         string            `json:"claim_number"`
	EmployeeID          string            `json:"employee_id"`
	EmployeeEmail       string            `json:"employee_email"`
	EmployeeDesignation string            `json:"employee_designation"`
	Category            string            `json:"category"`
	Amount              decimal.Decimal   `json:"amount"`
	Currency            string            `json:"currency"`
	Status              workflow.Status   `json:"status"`
	Validation          *ValidationResult `json:"validation,omitempty"`
	SkipInfo            *SkipInfo         `json:"approval_skip_info,omitempty"`
	CanEdit             bool              `json:"can_edit"`
	PaymentReference    string            `json:"payment_reference,omitempty"`
	// Version guards the read-decide-write sequence; every status mutation
	// must compare-and-swap against it.
	Version     int64      `json:"version"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	SettledAt   *time.Time `json:"settled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Confidence returns the validator's confidence score, zero when unvalidated
func (c *Claim) Confidence() float64 {
	if c.Validation == nil {
		return 0
	}
	return c.Validation.Confidence
}
