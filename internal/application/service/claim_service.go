package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/dispatcher"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/port"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/entity"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/event"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/routing"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/workflow"
)

// CreateClaimInput carries the fields needed to register a new claim
type CreateClaimInput struct {
	TenantID            string
	EmployeeID          string
	EmployeeEmail       string
	EmployeeDesignation string
	Category            string
	Amount              decimal.Decimal
	Currency            string
	Validation          *entity.ValidationResult
}

// ClaimService manages claim creation and read access
type ClaimService struct {
	claims     port.ClaimRepository
	records    port.ApprovalRecordRepository
	execLog    port.ExecutionLogRepository
	skipRules  *SkipRuleMatcher
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	logger     *zap.Logger
}

// NewClaimService creates a new claim service
func NewClaimService(
	claims port.ClaimRepository,
	records port.ApprovalRecordRepository,
	execLog port.ExecutionLogRepository,
	skipRules *SkipRuleMatcher,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	logger *zap.Logger,
) *ClaimService {
	return &ClaimService{
		claims:     claims,
		records:    records,
		execLog:    execLog,
		skipRules:  skipRules,
		txManager:  txManager,
		dispatcher: d,
		logger:     logger,
	}
}

// CreateClaim registers a new claim awaiting manager review. Skip rules are
// evaluated at creation and the matched rule is denormalized onto the claim.
func (s *ClaimService) CreateClaim(ctx context.Context, input CreateClaimInput) (*entity.Claim, error) {
	if input.TenantID == "" {
		return nil, fmt.Errorf("tenant ID is required")
	}
	if input.EmployeeID == "" {
		return nil, fmt.Errorf("employee ID is required")
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be positive, got %s", input.Amount)
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}

	emp := routing.EmployeeRef{Email: input.EmployeeEmail, Designation: input.EmployeeDesignation}
	skipInfo, err := s.skipRules.Match(ctx, input.TenantID, emp, input.Amount, input.Category)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	claim := &entity.Claim{
		ID:                  uuid.NewString(),
		TenantID:            input.TenantID,
		ClaimNumber:         newClaimNumber(),
		EmployeeID:          input.EmployeeID,
		EmployeeEmail:       input.EmployeeEmail,
		EmployeeDesignation: input.EmployeeDesignation,
		Category:            input.Category,
		Amount:              input.Amount,
		Currency:            input.Currency,
		Status:              workflow.StatusPendingManager,
		Validation:          input.Validation,
		SkipInfo:            skipInfo,
		Version:             1,
		SubmittedAt:         &now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.claims.Create(txCtx, claim); err != nil {
			return err
		}
		return s.claims.AppendHistory(txCtx, &entity.HistoryEntry{
			ClaimID:    claim.ID,
			Actor:      input.EmployeeID,
			FromStatus: "",
			ToStatus:   claim.Status,
			Action:     entity.ActionSubmit,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create claim: %w", err)
	}

	s.logger.Info("Claim created",
		zap.String("claim_id", claim.ID),
		zap.String("claim_number", claim.ClaimNumber),
		zap.String("tenant_id", claim.TenantID),
		zap.String("amount", claim.Amount.String()))

	if s.dispatcher != nil {
		evt := event.NewEvent(event.TypeClaimCreated, claim.TenantID, claim.ID, map[string]interface{}{
			"claim_number": claim.ClaimNumber,
			"employee_id":  claim.EmployeeID,
			"amount":       claim.Amount.String(),
		})
		s.dispatcher.DispatchAsync(ctx, evt)
	}

	return claim, nil
}

// GetClaim returns a claim by ID within a tenant
func (s *ClaimService) GetClaim(ctx context.Context, tenantID, claimID string) (*entity.Claim, error) {
	return s.claims.GetByID(ctx, tenantID, claimID)
}

// ListClaims returns a tenant's claims, newest first
func (s *ClaimService) ListClaims(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Claim, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.claims.ListByTenant(ctx, tenantID, limit, offset)
}

// GetHistory returns the claim's full approval trail in order
func (s *ClaimService) GetHistory(ctx context.Context, tenantID, claimID string) ([]*entity.HistoryEntry, error) {
	if _, err := s.claims.GetByID(ctx, tenantID, claimID); err != nil {
		return nil, err
	}
	return s.claims.GetHistory(ctx, claimID)
}

// GetApprovalRecords returns the per-stage transition records for a claim
func (s *ClaimService) GetApprovalRecords(ctx context.Context, tenantID, claimID string) ([]*entity.ApprovalRecord, error) {
	if _, err := s.claims.GetByID(ctx, tenantID, claimID); err != nil {
		return nil, err
	}
	return s.records.GetByClaimID(ctx, claimID)
}

// GetExecutionLog returns the routing audit entries for a claim
func (s *ClaimService) GetExecutionLog(ctx context.Context, tenantID, claimID string) ([]*entity.ExecutionLogEntry, error) {
	if _, err := s.claims.GetByID(ctx, tenantID, claimID); err != nil {
		return nil, err
	}
	return s.execLog.GetByClaimID(ctx, claimID)
}

func newClaimNumber() string {
	return "CLM-" + strings.ToUpper(uuid.NewString()[:8])
}
