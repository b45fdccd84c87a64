package routing

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Tenant setting keys for the approval policy
const (
	SettingEnableAutoApproval        = "enable_auto_approval"
	SettingAutoApprovalThreshold     = "auto_approval_threshold"
	SettingPolicyComplianceThreshold = "policy_compliance_threshold"
	SettingMaxAutoApprovalAmount     = "max_auto_approval_amount"
	SettingAutoSkipAfterManager      = "auto_skip_after_manager"
)

// TenantPolicy is a tenant's approval configuration with all defaults applied
// at construction time. Thresholds are stored as integer percentages and
// compared as fractions.
type TenantPolicy struct {
	EnableAutoApproval        bool
	AutoApprovalThreshold     int
	PolicyComplianceThreshold int
	MaxAutoApprovalAmount     decimal.Decimal
	AutoSkipAfterManager      bool
}

// DefaultTenantPolicy returns the system defaults used when a tenant has no
// explicit configuration.
func DefaultTenantPolicy() TenantPolicy {
	return TenantPolicy{
		EnableAutoApproval:        false,
		AutoApprovalThreshold:     95,
		PolicyComplianceThreshold: 80,
		MaxAutoApprovalAmount:     decimal.NewFromInt(10000),
		AutoSkipAfterManager:      false,
	}
}

// AIThreshold returns the auto-approval confidence threshold as a fraction
func (p TenantPolicy) AIThreshold() float64 {
	return float64(p.AutoApprovalThreshold) / 100
}

// ComplianceThreshold returns the policy-compliance threshold as a fraction
func (p TenantPolicy) ComplianceThreshold() float64 {
	return float64(p.PolicyComplianceThreshold) / 100
}

// SettingWarning reports a malformed tenant setting that was replaced by its
// system default.
type SettingWarning struct {
	Key   string
	Value string
}

// PolicyFromSettings builds a TenantPolicy from raw setting values, applying
// system defaults for absent keys and falling back to them for malformed
// values. Malformed values are reported, never surfaced as errors.
func PolicyFromSettings(settings map[string]string) (TenantPolicy, []SettingWarning) {
	policy := DefaultTenantPolicy()
	var warnings []SettingWarning

	warn := func(key, value string) {
		warnings = append(warnings, SettingWarning{Key: key, Value: value})
	}

	if raw, ok := settings[SettingEnableAutoApproval]; ok {
		if v, err := parseBool(raw); err != nil {
			warn(SettingEnableAutoApproval, raw)
		} else {
			policy.EnableAutoApproval = v
		}
	}

	if raw, ok := settings[SettingAutoApprovalThreshold]; ok {
		if v, err := parsePercent(raw); err != nil {
			warn(SettingAutoApprovalThreshold, raw)
		} else {
			policy.AutoApprovalThreshold = v
		}
	}

	if raw, ok := settings[SettingPolicyComplianceThreshold]; ok {
		if v, err := parsePercent(raw); err != nil {
			warn(SettingPolicyComplianceThreshold, raw)
		} else {
			policy.PolicyComplianceThreshold = v
		}
	}

	if raw, ok := settings[SettingMaxAutoApprovalAmount]; ok {
		if v, err := decimal.NewFromString(strings.TrimSpace(raw)); err != nil || v.IsNegative() {
			warn(SettingMaxAutoApprovalAmount, raw)
		} else {
			policy.MaxAutoApprovalAmount = v
		}
	}

	if raw, ok := settings[SettingAutoSkipAfterManager]; ok {
		if v, err := parseBool(raw); err != nil {
			warn(SettingAutoSkipAfterManager, raw)
		} else {
			policy.AutoSkipAfterManager = v
		}
	}

	return policy, warnings
}

func parseBool(raw string) (bool, error) {
	return strconv.ParseBool(strings.TrimSpace(strings.ToLower(raw)))
}

func parsePercent(raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 100 {
		return 0, strconv.ErrRange
	}
	return v, nil
}
