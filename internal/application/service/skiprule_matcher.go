package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/port"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/entity"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/routing"
)

// SkipRuleMatcher finds the highest-priority skip rule matching an employee
// and claim. At most one rule applies per claim.
type SkipRuleMatcher struct {
	rules  port.SkipRuleRepository
	logger *zap.Logger
}

// NewSkipRuleMatcher creates a new matcher
func NewSkipRuleMatcher(rules port.SkipRuleRepository, logger *zap.Logger) *SkipRuleMatcher {
	return &SkipRuleMatcher{rules: rules, logger: logger}
}

// Match returns the skip info for the first active rule matching the
// employee, amount and category, or nil when no rule matches.
func (m *SkipRuleMatcher) Match(ctx context.Context, tenantID string, emp routing.EmployeeRef, amount decimal.Decimal, category string) (*entity.SkipInfo, error) {
	rules, err := m.rules.ListActiveByPriority(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list skip rules for tenant %s: %w", tenantID, err)
	}

	info := routing.MatchSkipRule(rules, emp, amount, category)
	if info != nil {
		m.logger.Info("Skip rule matched",
			zap.String("tenant_id", tenantID),
			zap.String("rule_id", info.AppliedRuleID),
			zap.String("rule_name", info.AppliedRuleName))
	}
	return info, nil
}
