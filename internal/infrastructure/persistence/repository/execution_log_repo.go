package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/port"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/entity"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/infrastructure/persistence/sqlite"
)

// ExecutionLogRepository implements port.ExecutionLogRepository on SQLite
type ExecutionLogRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewExecutionLogRepository creates a new execution log repository
func NewExecutionLogRepository(db *sqlite.DB, logger *zap.Logger) port.ExecutionLogRepository {
	return &ExecutionLogRepository{
		db:     db,
		logger: logger,
	}
}

// Append writes one routing invocation record. Entries are write-once.
func (r *ExecutionLogRepository) Append(ctx context.Context, e *entity.ExecutionLogEntry) error {
	query := `
		INSERT INTO execution_logs (id, claim_id, outcome, result, duration_ms, error_message)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecutorFor(ctx).ExecContext(ctx, query,
		e.ID, e.ClaimID, e.Outcome, e.Result, e.DurationMS, e.ErrorMessage)
	if err != nil {
		r.logger.Error("Failed to append execution log",
			zap.String("claim_id", e.ClaimID), zap.Error(err))
		return fmt.Errorf("failed to append execution log: %w", err)
	}

	return nil
}

// GetByClaimID retrieves a claim's routing audit entries in order
func (r *ExecutionLogRepository) GetByClaimID(ctx context.Context, claimID string) ([]*entity.ExecutionLogEntry, error) {
	query := `
		SELECT id, claim_id, outcome, result, duration_ms, error_message, created_at
		FROM execution_logs
		WHERE claim_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.db.ExecutorFor(ctx).QueryContext(ctx, query, claimID)
	if err != nil {
		r.logger.Error("Failed to get execution logs", zap.String("claim_id", claimID), zap.Error(err))
		return nil, fmt.Errorf("failed to get execution logs: %w", err)
	}
	defer rows.Close()

	var entries []*entity.ExecutionLogEntry
	for rows.Next() {
		var e entity.ExecutionLogEntry
		if err := rows.Scan(&e.ID, &e.ClaimID, &e.Outcome, &e.Result, &e.DurationMS, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan execution log entry: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// Verify interface compliance
var _ port.ExecutionLogRepository = (*ExecutionLogRepository)(nil)
