package entity

import "time"

// TenantSetting is one key/value row of a tenant's configuration
type TenantSetting struct {
	TenantID  string    `json:"tenant_id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
