package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/port"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/entity"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/routing"
)

// knownSettingKeys are the tenant setting keys the routing engine understands
var knownSettingKeys = map[string]bool{
	routing.SettingEnableAutoApproval:        true,
	routing.SettingAutoApprovalThreshold:     true,
	routing.SettingPolicyComplianceThreshold: true,
	routing.SettingMaxAutoApprovalAmount:     true,
	routing.SettingAutoSkipAfterManager:      true,
}

// CreateSkipRuleInput carries the fields for a new skip rule
type CreateSkipRuleInput struct {
	Name         string
	MatchType    string
	Designations []string
	Emails       []string
	SkipManager  bool
	SkipHR       bool
	SkipFinance  bool
	MaxAmount    *decimal.Decimal
	Categories   []string
	Priority     int
}

// TenantAdminService manages tenant configuration: approval policy settings
// and skip rules
type TenantAdminService struct {
	settings  port.SettingRepository
	skipRules port.SkipRuleRepository
	policies  *TenantPolicyStore
	logger    *zap.Logger
}

// NewTenantAdminService creates a new tenant admin service
func NewTenantAdminService(
	settings port.SettingRepository,
	skipRules port.SkipRuleRepository,
	policies *TenantPolicyStore,
	logger *zap.Logger,
) *TenantAdminService {
	return &TenantAdminService{
		settings:  settings,
		skipRules: skipRules,
		policies:  policies,
		logger:    logger,
	}
}

// UpdateSetting stores a tenant policy setting and drops the cached policy so
// the next routing decision sees the new value
func (s *TenantAdminService) UpdateSetting(ctx context.Context, tenantID, key, value string) error {
	if !knownSettingKeys[key] {
		return fmt.Errorf("unknown setting key %q", key)
	}

	if err := s.settings.UpsertSetting(ctx, tenantID, key, value); err != nil {
		return err
	}
	s.policies.Invalidate(tenantID)

	s.logger.Info("Tenant setting updated",
		zap.String("tenant_id", tenantID),
		zap.String("key", key),
		zap.String("value", value))
	return nil
}

// GetPolicy returns the tenant's effective approval policy with defaults
// applied
func (s *TenantAdminService) GetPolicy(ctx context.Context, tenantID string) (routing.TenantPolicy, error) {
	return s.policies.PolicyFor(ctx, tenantID)
}

// CreateSkipRule registers a new skip rule for the tenant
func (s *TenantAdminService) CreateSkipRule(ctx context.Context, tenantID string, input CreateSkipRuleInput) (*entity.SkipRule, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("rule name is required")
	}
	switch input.MatchType {
	case entity.MatchTypeDesignation:
		if len(input.Designations) == 0 {
			return nil, fmt.Errorf("designation match requires at least one designation")
		}
	case entity.MatchTypeEmail:
		if len(input.Emails) == 0 {
			return nil, fmt.Errorf("email match requires at least one email")
		}
	default:
		return nil, fmt.Errorf("unknown match type %q", input.MatchType)
	}
	if input.MaxAmount != nil && input.MaxAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("max amount threshold must be positive")
	}

	now := time.Now().UTC()
	rule := &entity.SkipRule{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Name:         input.Name,
		MatchType:    input.MatchType,
		Designations: input.Designations,
		Emails:       input.Emails,
		SkipManager:  input.SkipManager,
		SkipHR:       input.SkipHR,
		SkipFinance:  input.SkipFinance,
		MaxAmount:    input.MaxAmount,
		Categories:   input.Categories,
		Priority:     input.Priority,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.skipRules.Create(ctx, rule); err != nil {
		return nil, err
	}

	s.logger.Info("Skip rule created",
		zap.String("tenant_id", tenantID),
		zap.String("rule_id", rule.ID),
		zap.String("rule_name", rule.Name))
	return rule, nil
}

// DeactivateSkipRule turns a rule off. Claims that already recorded the rule
// keep their denormalized snapshot.
func (s *TenantAdminService) DeactivateSkipRule(ctx context.Context, tenantID, ruleID string) error {
	if err := s.skipRules.Deactivate(ctx, tenantID, ruleID); err != nil {
		return err
	}
	s.logger.Info("Skip rule deactivated",
		zap.String("tenant_id", tenantID),
		zap.String("rule_id", ruleID))
	return nil
}

// ListSkipRules returns the tenant's active rules in evaluation order
func (s *TenantAdminService) ListSkipRules(ctx context.Context, tenantID string) ([]*entity.SkipRule, error) {
	return s.skipRules.ListActiveByPriority(ctx, tenantID)
}
