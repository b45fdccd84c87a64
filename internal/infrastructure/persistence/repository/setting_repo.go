package repository

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/port"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/infrastructure/persistence/sqlite"
)

// SettingRepository implements port.SettingRepository on SQLite
type SettingRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewSettingRepository creates a new setting repository
func NewSettingRepository(db *sqlite.DB, logger *zap.Logger) port.SettingRepository {
	return &SettingRepository{
		db:     db,
		logger: logger,
	}
}

// GetSettings returns the stored values for the given keys. Keys with no
// stored value are absent from the result.
func (r *SettingRepository) GetSettings(ctx context.Context, tenantID string, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}

	placeholders := strings.Repeat("?,", len(keys))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf(
		`SELECT key, value FROM tenant_settings WHERE tenant_id = ? AND key IN (%s)`,
		placeholders)

	args := make([]interface{}, 0, len(keys)+1)
	args = append(args, tenantID)
	for _, k := range keys {
		args = append(args, k)
	}

	rows, err := r.db.ExecutorFor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to get settings", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, len(keys))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		values[key] = value
	}

	return values, rows.Err()
}

// UpsertSetting stores a tenant configuration value
func (r *SettingRepository) UpsertSetting(ctx context.Context, tenantID, key, value string) error {
	query := `
		INSERT INTO tenant_settings (tenant_id, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT (tenant_id, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecutorFor(ctx).ExecContext(ctx, query, tenantID, key, value)
	if err != nil {
		r.logger.Error("Failed to upsert setting",
			zap.String("tenant_id", tenantID), zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to upsert setting: %w", err)
	}

	return nil
}

// Verify interface compliance
var _ port.SettingRepository = (*SettingRepository)(nil)
