package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/routing"
)

func TestPolicyForAppliesStoredSettings(t *testing.T) {
	settings := newMockSettingRepo()
	settings.set("acme", routing.SettingEnableAutoApproval, "true")
	settings.set("acme", routing.SettingAutoApprovalThreshold, "90")

	store := NewTenantPolicyStore(settings, time.Minute, zap.NewNop())

	policy, err := store.PolicyFor(context.Background(), "acme")
	require.NoError(t, err)
	assert.True(t, policy.EnableAutoApproval)
	assert.Equal(t, 90, policy.AutoApprovalThreshold)
	// Unset keys keep their defaults.
	assert.Equal(t, 80, policy.PolicyComplianceThreshold)
}

func TestPolicyForCachesWithinTTL(t *testing.T) {
	settings := newMockSettingRepo()
	store := NewTenantPolicyStore(settings, time.Minute, zap.NewNop())

	_, err := store.PolicyFor(context.Background(), "acme")
	require.NoError(t, err)
	_, err = store.PolicyFor(context.Background(), "acme")
	require.NoError(t, err)

	assert.Equal(t, 1, settings.getCalls)

	// Different tenants never share a cache entry.
	_, err = store.PolicyFor(context.Background(), "globex")
	require.NoError(t, err)
	assert.Equal(t, 2, settings.getCalls)
}

func TestPolicyForInvalidateForcesRefetch(t *testing.T) {
	settings := newMockSettingRepo()
	store := NewTenantPolicyStore(settings, time.Minute, zap.NewNop())

	_, err := store.PolicyFor(context.Background(), "acme")
	require.NoError(t, err)

	settings.set("acme", routing.SettingEnableAutoApproval, "true")
	store.Invalidate("acme")

	policy, err := store.PolicyFor(context.Background(), "acme")
	require.NoError(t, err)
	assert.True(t, policy.EnableAutoApproval)
	assert.Equal(t, 2, settings.getCalls)
}

func TestPolicyForMalformedSettingFallsBackToDefault(t *testing.T) {
	settings := newMockSettingRepo()
	settings.set("acme", routing.SettingAutoApprovalThreshold, "not-a-number")

	store := NewTenantPolicyStore(settings, time.Minute, zap.NewNop())

	policy, err := store.PolicyFor(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, 95, policy.AutoApprovalThreshold)
}

func TestPolicyForPropagatesRepositoryErrors(t *testing.T) {
	settings := newMockSettingRepo()
	settings.getErr = errors.New("db locked")

	store := NewTenantPolicyStore(settings, time.Minute, zap.NewNop())

	_, err := store.PolicyFor(context.Background(), "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db locked")
}
