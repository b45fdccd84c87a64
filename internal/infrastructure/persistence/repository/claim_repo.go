package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/port"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/entity"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/workflow"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/infrastructure/persistence/sqlite"
)

// ClaimRepository implements port.ClaimRepository on SQLite
type ClaimRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *sqlite.DB, logger *zap.Logger) port.ClaimRepository {
	return &ClaimRepository{
		db:     db,
		logger: logger,
	}
}

const claimColumns = `
	id, tenant_id, claim_number, employee_id, employee_email,
	employee_designation, category, amount, currency, status,
	validation, skip_info, can_edit, payment_reference, version,
	submitted_at, settled_at, created_at, updated_at
`

// Create inserts a new claim
func (r *ClaimRepository) Create(ctx context.Context, claim *entity.Claim) error {
	query := `
		INSERT INTO claims (` + claimColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	validation, err := marshalNullable(claim.Validation)
	if err != nil {
		return fmt.Errorf("failed to marshal validation: %w", err)
	}
	skipInfo, err := marshalNullable(claim.SkipInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal skip info: %w", err)
	}

	_, err = r.db.ExecutorFor(ctx).ExecContext(ctx, query,
		claim.ID,
		claim.TenantID,
		claim.ClaimNumber,
		claim.EmployeeID,
		claim.EmployeeEmail,
		claim.EmployeeDesignation,
		claim.Category,
		claim.Amount.String(),
		claim.Currency,
		claim.Status.String(),
		validation,
		skipInfo,
		claim.CanEdit,
		nullString(claim.PaymentReference),
		claim.Version,
		nullTime(claim.SubmittedAt),
		nullTime(claim.SettledAt),
		claim.CreatedAt,
		claim.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create claim", zap.String("claim_id", claim.ID), zap.Error(err))
		return fmt.Errorf("failed to create claim: %w", err)
	}

	return nil
}

// GetByID retrieves a claim within a tenant
func (r *ClaimRepository) GetByID(ctx context.Context, tenantID, id string) (*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE tenant_id = ? AND id = ?`

	row := r.db.ExecutorFor(ctx).QueryRowContext(ctx, query, tenantID, id)
	claim, err := scanClaim(row.Scan)
	if err == sql.ErrNoRows {
		return nil, port.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get claim", zap.String("claim_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}

	return claim, nil
}

// UpdateStatus moves a claim to a new status with a compare-and-swap on the
// version column
func (r *ClaimRepository) UpdateStatus(ctx context.Context, id string, expectedVersion int64, status workflow.Status, canEdit bool) error {
	query := `
		UPDATE claims
		SET status = ?, can_edit = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := r.db.ExecutorFor(ctx).ExecContext(ctx, query,
		status.String(), canEdit, time.Now().UTC(), id, expectedVersion)
	if err != nil {
		r.logger.Error("Failed to update claim status", zap.String("claim_id", id), zap.Error(err))
		return fmt.Errorf("failed to update claim status: %w", err)
	}

	return r.checkSwap(ctx, result, id, expectedVersion)
}

// SetSettled records payment details for a settled claim
func (r *ClaimRepository) SetSettled(ctx context.Context, id string, expectedVersion int64, paymentRef string) error {
	now := time.Now().UTC()
	query := `
		UPDATE claims
		SET status = ?, payment_reference = ?, settled_at = ?, can_edit = 0,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := r.db.ExecutorFor(ctx).ExecContext(ctx, query,
		workflow.StatusSettled.String(), paymentRef, now, now, id, expectedVersion)
	if err != nil {
		r.logger.Error("Failed to settle claim", zap.String("claim_id", id), zap.Error(err))
		return fmt.Errorf("failed to settle claim: %w", err)
	}

	return r.checkSwap(ctx, result, id, expectedVersion)
}

// UpdateSkipInfo replaces the claim's applied skip-rule snapshot
func (r *ClaimRepository) UpdateSkipInfo(ctx context.Context, id string, info *entity.SkipInfo) error {
	skipInfo, err := marshalNullable(info)
	if err != nil {
		return fmt.Errorf("failed to marshal skip info: %w", err)
	}

	query := `UPDATE claims SET skip_info = ?, updated_at = ? WHERE id = ?`
	_, err = r.db.ExecutorFor(ctx).ExecContext(ctx, query, skipInfo, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to update skip info", zap.String("claim_id", id), zap.Error(err))
		return fmt.Errorf("failed to update skip info: %w", err)
	}

	return nil
}

// ListByTenant retrieves a tenant's claims with pagination, newest first
func (r *ClaimRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Claim, error) {
	query := `
		SELECT ` + claimColumns + `
		FROM claims
		WHERE tenant_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.ExecutorFor(ctx).QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list claims", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var claims []*entity.Claim
	for rows.Next() {
		claim, err := scanClaim(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, claim)
	}

	return claims, rows.Err()
}

// AppendHistory appends one entry to the claim's approval trail
func (r *ClaimRepository) AppendHistory(ctx context.Context, e *entity.HistoryEntry) error {
	query := `
		INSERT INTO approval_history (claim_id, actor, from_status, to_status, action, comment)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecutorFor(ctx).ExecContext(ctx, query,
		e.ClaimID, e.Actor, e.FromStatus.String(), e.ToStatus.String(), e.Action, e.Comment)
	if err != nil {
		r.logger.Error("Failed to append history", zap.String("claim_id", e.ClaimID), zap.Error(err))
		return fmt.Errorf("failed to append history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// GetHistory retrieves a claim's approval trail in chronological order
func (r *ClaimRepository) GetHistory(ctx context.Context, claimID string) ([]*entity.HistoryEntry, error) {
	query := `
		SELECT id, claim_id, actor, from_status, to_status, action, comment, created_at
		FROM approval_history
		WHERE claim_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.ExecutorFor(ctx).QueryContext(ctx, query, claimID)
	if err != nil {
		r.logger.Error("Failed to get history", zap.String("claim_id", claimID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var entries []*entity.HistoryEntry
	for rows.Next() {
		var e entity.HistoryEntry
		var fromStatus, toStatus, comment string
		if err := rows.Scan(&e.ID, &e.ClaimID, &e.Actor, &fromStatus, &toStatus, &e.Action, &comment, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.FromStatus = workflow.Status(fromStatus)
		e.ToStatus = workflow.Status(toStatus)
		e.Comment = comment
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// checkSwap distinguishes a lost compare-and-swap from a missing claim when
// an update matched zero rows
func (r *ClaimRepository) checkSwap(ctx context.Context, result sql.Result, id string, expectedVersion int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists int
	err = r.db.ExecutorFor(ctx).QueryRowContext(ctx, `SELECT 1 FROM claims WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return port.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check claim existence: %w", err)
	}

	r.logger.Warn("Claim version conflict",
		zap.String("claim_id", id),
		zap.Int64("expected_version", expectedVersion))
	return port.ErrConflict
}

type scanFunc func(dest ...interface{}) error

func scanClaim(scan scanFunc) (*entity.Claim, error) {
	var claim entity.Claim
	var amount, status string
	var validation, skipInfo, paymentRef sql.NullString
	var submittedAt, settledAt sql.NullTime

	err := scan(
		&claim.ID,
		&claim.TenantID,
		&claim.ClaimNumber,
		&claim.EmployeeID,
		&claim.EmployeeEmail,
		&claim.EmployeeDesignation,
		&claim.Category,
		&amount,
		&claim.Currency,
		&status,
		&validation,
		&skipInfo,
		&claim.CanEdit,
		&paymentRef,
		&claim.Version,
		&submittedAt,
		&settledAt,
		&claim.CreatedAt,
		&claim.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	claim.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	claim.Status = workflow.Status(status)
	if !claim.Status.IsValid() {
		return nil, fmt.Errorf("%w: stored status %q", workflow.ErrInvalidStatus, status)
	}

	if validation.Valid {
		var v entity.ValidationResult
		if err := json.Unmarshal([]byte(validation.String), &v); err != nil {
			return nil, fmt.Errorf("invalid stored validation: %w", err)
		}
		claim.Validation = &v
	}
	if skipInfo.Valid {
		var s entity.SkipInfo
		if err := json.Unmarshal([]byte(skipInfo.String), &s); err != nil {
			return nil, fmt.Errorf("invalid stored skip info: %w", err)
		}
		claim.SkipInfo = &s
	}
	if paymentRef.Valid {
		claim.PaymentReference = paymentRef.String
	}
	if submittedAt.Valid {
		claim.SubmittedAt = &submittedAt.Time
	}
	if settledAt.Valid {
		claim.SettledAt = &settledAt.Time
	}

	return &claim, nil
}

func marshalNullable(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case *entity.ValidationResult:
		if t == nil {
			return nil, nil
		}
	case *entity.SkipInfo:
		if t == nil {
			return nil, nil
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
