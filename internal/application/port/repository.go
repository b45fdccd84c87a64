package port

import (
	"context"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/entity"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/workflow"
)

// ClaimRepository defines persistence operations for Claim
type ClaimRepository interface {
	Create(ctx context.Context, claim *entity.Claim) error

	// GetByID returns the claim or ErrNotFound
	GetByID(ctx context.Context, tenantID, id string) (*entity.Claim, error)

	// UpdateStatus moves a claim to a new status with a compare-and-swap on
	// the version column. Returns ErrConflict when the stored version no
	// longer matches (a concurrent transition won the race).
	UpdateStatus(ctx context.Context, id string, expectedVersion int64, status workflow.Status, canEdit bool) error

	// SetSettled records payment details for a settled claim
	SetSettled(ctx context.Context, id string, expectedVersion int64, paymentRef string) error

	// UpdateSkipInfo replaces the claim's applied skip-rule snapshot
	UpdateSkipInfo(ctx context.Context, id string, info *entity.SkipInfo) error

	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Claim, error)

	// AppendHistory appends one entry to the claim's approval trail
	AppendHistory(ctx context.Context, e *entity.HistoryEntry) error

	GetHistory(ctx context.Context, claimID string) ([]*entity.HistoryEntry, error)
}

// SettingRepository defines read access to tenant configuration
type SettingRepository interface {
	// GetSettings returns the stored values for the given keys; absent keys
	// are simply missing from the map.
	GetSettings(ctx context.Context, tenantID string, keys []string) (map[string]string, error)

	// UpsertSetting stores a tenant configuration value
	UpsertSetting(ctx context.Context, tenantID, key, value string) error
}

// SkipRuleRepository defines persistence for tenant skip rules
type SkipRuleRepository interface {
	// ListActiveByPriority returns active rules ordered by priority ascending
	ListActiveByPriority(ctx context.Context, tenantID string) ([]*entity.SkipRule, error)

	Create(ctx context.Context, rule *entity.SkipRule) error

	// Deactivate turns a rule off without deleting it; returns ErrNotFound
	// when the rule does not exist in the tenant
	Deactivate(ctx context.Context, tenantID, ruleID string) error
}

// ApprovalRecordRepository defines persistence for stage transition records
type ApprovalRecordRepository interface {
	Create(ctx context.Context, record *entity.ApprovalRecord) error
	GetByClaimID(ctx context.Context, claimID string) ([]*entity.ApprovalRecord, error)
}

// ExecutionLogRepository defines persistence for routing invocation records
type ExecutionLogRepository interface {
	Append(ctx context.Context, e *entity.ExecutionLogEntry) error
	GetByClaimID(ctx context.Context, claimID string) ([]*entity.ExecutionLogEntry, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
