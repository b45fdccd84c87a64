package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/port"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/entity"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/infrastructure/persistence/sqlite"
)

// SkipRuleRepository implements port.SkipRuleRepository on SQLite
type SkipRuleRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewSkipRuleRepository creates a new skip rule repository
func NewSkipRuleRepository(db *sqlite.DB, logger *zap.Logger) *SkipRuleRepository {
	return &SkipRuleRepository{
		db:     db,
		logger: logger,
	}
}

const skipRuleColumns = `
	id, tenant_id, name, match_type, designations, emails,
	skip_manager, skip_hr, skip_finance, max_amount, categories,
	priority, is_active, created_at, updated_at
`

// ListActiveByPriority returns active rules ordered by priority ascending.
// Ties break on creation time so evaluation order is stable.
func (r *SkipRuleRepository) ListActiveByPriority(ctx context.Context, tenantID string) ([]*entity.SkipRule, error) {
	query := `
		SELECT ` + skipRuleColumns + `
		FROM skip_rules
		WHERE tenant_id = ? AND is_active = 1
		ORDER BY priority ASC, created_at ASC
	`

	rows, err := r.db.ExecutorFor(ctx).QueryContext(ctx, query, tenantID)
	if err != nil {
		r.logger.Error("Failed to list skip rules", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, fmt.Errorf("failed to list skip rules: %w", err)
	}
	defer rows.Close()

	var rules []*entity.SkipRule
	for rows.Next() {
		rule, err := scanSkipRule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan skip rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// Create inserts a new skip rule
func (r *SkipRuleRepository) Create(ctx context.Context, rule *entity.SkipRule) error {
	query := `
		INSERT INTO skip_rules (` + skipRuleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	designations, err := marshalStringList(rule.Designations)
	if err != nil {
		return fmt.Errorf("failed to marshal designations: %w", err)
	}
	emails, err := marshalStringList(rule.Emails)
	if err != nil {
		return fmt.Errorf("failed to marshal emails: %w", err)
	}
	categories, err := marshalStringList(rule.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	var maxAmount interface{}
	if rule.MaxAmount != nil {
		maxAmount = rule.MaxAmount.String()
	}

	_, err = r.db.ExecutorFor(ctx).ExecContext(ctx, query,
		rule.ID,
		rule.TenantID,
		rule.Name,
		rule.MatchType,
		designations,
		emails,
		rule.SkipManager,
		rule.SkipHR,
		rule.SkipFinance,
		maxAmount,
		categories,
		rule.Priority,
		rule.IsActive,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create skip rule", zap.String("rule_id", rule.ID), zap.Error(err))
		return fmt.Errorf("failed to create skip rule: %w", err)
	}

	return nil
}

// Deactivate turns a rule off without deleting it. Claims that already
// recorded the rule keep their denormalized snapshot.
func (r *SkipRuleRepository) Deactivate(ctx context.Context, tenantID, ruleID string) error {
	query := `
		UPDATE skip_rules
		SET is_active = 0, updated_at = CURRENT_TIMESTAMP
		WHERE tenant_id = ? AND id = ?
	`

	result, err := r.db.ExecutorFor(ctx).ExecContext(ctx, query, tenantID, ruleID)
	if err != nil {
		r.logger.Error("Failed to deactivate skip rule", zap.String("rule_id", ruleID), zap.Error(err))
		return fmt.Errorf("failed to deactivate skip rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return port.ErrNotFound
	}
	return nil
}

func scanSkipRule(scan scanFunc) (*entity.SkipRule, error) {
	var rule entity.SkipRule
	var designations, emails, categories, maxAmount sql.NullString

	err := scan(
		&rule.ID,
		&rule.TenantID,
		&rule.Name,
		&rule.MatchType,
		&designations,
		&emails,
		&rule.SkipManager,
		&rule.SkipHR,
		&rule.SkipFinance,
		&maxAmount,
		&categories,
		&rule.Priority,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rule.Designations, err = unmarshalStringList(designations); err != nil {
		return nil, fmt.Errorf("invalid stored designations: %w", err)
	}
	if rule.Emails, err = unmarshalStringList(emails); err != nil {
		return nil, fmt.Errorf("invalid stored emails: %w", err)
	}
	if rule.Categories, err = unmarshalStringList(categories); err != nil {
		return nil, fmt.Errorf("invalid stored categories: %w", err)
	}
	if maxAmount.Valid {
		amount, err := decimal.NewFromString(maxAmount.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored max amount %q: %w", maxAmount.String, err)
		}
		rule.MaxAmount = &amount
	}

	return &rule, nil
}

func marshalStringList(list []string) (interface{}, error) {
	if len(list) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func unmarshalStringList(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw.String), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Verify interface compliance
var _ port.SkipRuleRepository = (*SkipRuleRepository)(nil)
