package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/port"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/entity"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/workflow"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/infrastructure/persistence/sqlite"
)

// ApprovalRecordRepository implements port.ApprovalRecordRepository on SQLite
type ApprovalRecordRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewApprovalRecordRepository creates a new approval record repository
func NewApprovalRecordRepository(db *sqlite.DB, logger *zap.Logger) port.ApprovalRecordRepository {
	return &ApprovalRecordRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a stage transition record
func (r *ApprovalRecordRepository) Create(ctx context.Context, record *entity.ApprovalRecord) error {
	query := `INSERT INTO approval_records (claim_id, stage, status) VALUES (?, ?, ?)`

	result, err := r.db.ExecutorFor(ctx).ExecContext(ctx, query,
		record.ClaimID, string(record.Stage), record.Status)
	if err != nil {
		r.logger.Error("Failed to create approval record",
			zap.String("claim_id", record.ClaimID), zap.Error(err))
		return fmt.Errorf("failed to create approval record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	record.ID = id
	return nil
}

// GetByClaimID retrieves a claim's stage transition records in order
func (r *ApprovalRecordRepository) GetByClaimID(ctx context.Context, claimID string) ([]*entity.ApprovalRecord, error) {
	query := `
		SELECT id, claim_id, stage, status, created_at
		FROM approval_records
		WHERE claim_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.ExecutorFor(ctx).QueryContext(ctx, query, claimID)
	if err != nil {
		r.logger.Error("Failed to get approval records", zap.String("claim_id", claimID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval records: %w", err)
	}
	defer rows.Close()

	var records []*entity.ApprovalRecord
	for rows.Next() {
		var record entity.ApprovalRecord
		var stage string
		if err := rows.Scan(&record.ID, &record.ClaimID, &stage, &record.Status, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval record: %w", err)
		}
		record.Stage = workflow.Stage(stage)
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.ApprovalRecordRepository = (*ApprovalRecordRepository)(nil)
