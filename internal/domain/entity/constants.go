package entity

// Rule check results
const (
	RuleCheckPass = "pass"
	RuleCheckFail = "fail"
)

// Validator recommendations
const (
	RecommendationApprove     = "APPROVE"
	RecommendationAutoApprove = "AUTO_APPROVE"
	RecommendationReview      = "REVIEW"
)

// Approval record statuses
const (
	ApprovalRecordPending  = "PENDING"
	ApprovalRecordApproved = "APPROVED"
	ApprovalRecordRejected = "REJECTED"
)

// Execution log outcomes
const (
	ExecutionSuccess = "SUCCESS"
	ExecutionFailure = "FAILURE"
)

// Skip rule match types
const (
	MatchTypeDesignation = "designation"
	MatchTypeEmail       = "email"
)

// History actions recorded in a claim's approval trail
const (
	ActionSubmit         = "SUBMIT"
	ActionRoute          = "ROUTE"
	ActionManagerApprove = "MANAGER_APPROVE"
	ActionManagerReject  = "MANAGER_REJECT"
	ActionHRApprove      = "HR_APPROVE"
	ActionHRReject       = "HR_REJECT"
	ActionFinanceApprove = "FINANCE_APPROVE"
	ActionFinanceReject  = "FINANCE_REJECT"
	ActionReturn         = "RETURN"
	ActionResubmit       = "RESUBMIT"
	ActionSettle         = "SETTLE"
	ActionAutoApprove    = "AUTO_APPROVE"
	ActionAutoSettle     = "AUTO_SETTLE"
	ActionSystemReject   = "SYSTEM_REJECT"
)
