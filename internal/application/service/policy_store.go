package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/port"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/routing"
)

// policyKeys are the tenant setting keys resolved into a TenantPolicy
var policyKeys = []string{
	routing.SettingEnableAutoApproval,
	routing.SettingAutoApprovalThreshold,
	routing.SettingPolicyComplianceThreshold,
	routing.SettingMaxAutoApprovalAmount,
	routing.SettingAutoSkipAfterManager,
}

// TenantPolicyStore resolves a tenant's approval policy from persisted
// settings, applying system defaults for absent or malformed values. Policies
// are read-mostly and cached with a bounded staleness window.
type TenantPolicyStore struct {
	settings port.SettingRepository
	logger   *zap.Logger

	mu    sync.RWMutex
	cache map[string]cachedPolicy
	ttl   time.Duration
}

type cachedPolicy struct {
	policy  routing.TenantPolicy
	fetched time.Time
}

// NewTenantPolicyStore creates a policy store with the given cache TTL
func NewTenantPolicyStore(settings port.SettingRepository, ttl time.Duration, logger *zap.Logger) *TenantPolicyStore {
	return &TenantPolicyStore{
		settings: settings,
		logger:   logger,
		cache:    make(map[string]cachedPolicy),
		ttl:      ttl,
	}
}

// PolicyFor returns the tenant's approval policy, constructed once per fetch
// with defaults already applied. Malformed settings are logged as warnings
// and replaced by their defaults; they never fail the lookup.
func (s *TenantPolicyStore) PolicyFor(ctx context.Context, tenantID string) (routing.TenantPolicy, error) {
	s.mu.RLock()
	cached, ok := s.cache[tenantID]
	s.mu.RUnlock()
	if ok && time.Since(cached.fetched) < s.ttl {
		return cached.policy, nil
	}

	values, err := s.settings.GetSettings(ctx, tenantID, policyKeys)
	if err != nil {
		return routing.TenantPolicy{}, fmt.Errorf("load settings for tenant %s: %w", tenantID, err)
	}

	policy, warnings := routing.PolicyFromSettings(values)
	for _, w := range warnings {
		s.logger.Warn("Malformed tenant setting, using default",
			zap.String("tenant_id", tenantID),
			zap.String("key", w.Key),
			zap.String("value", w.Value))
	}

	s.mu.Lock()
	s.cache[tenantID] = cachedPolicy{policy: policy, fetched: time.Now()}
	s.mu.Unlock()

	return policy, nil
}

// Invalidate drops the cached policy for a tenant (after settings change)
func (s *TenantPolicyStore) Invalidate(tenantID string) {
	s.mu.Lock()
	delete(s.cache, tenantID)
	s.mu.Unlock()
}
