package routing

import (
	"github.com/shopspring/decimal"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/entity"
)

// EmployeeRef identifies the claiming employee for skip-rule matching
type EmployeeRef struct {
	Email       string
	Designation string
}

// MatchSkipRule returns the skip info for the first rule that matches, or nil
// when none does (not an error). Rules must be active and ordered by priority
// ascending; matching is case-sensitive with no fuzzing.
//
// A rule passes when:
//   - its match list contains the employee's designation or email,
//     according to the rule's match type,
//   - the claim amount does not exceed the rule's ceiling (when set),
//   - its category allow-list is empty or contains the claim's category.
func MatchSkipRule(rules []*entity.SkipRule, emp EmployeeRef, amount decimal.Decimal, category string) *entity.SkipInfo {
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if !matchesEmployee(rule, emp) {
			continue
		}
		if rule.MaxAmount != nil && amount.GreaterThan(*rule.MaxAmount) {
			continue
		}
		if len(rule.Categories) > 0 && !contains(rule.Categories, category) {
			continue
		}

		return &entity.SkipInfo{
			AppliedRuleID:   rule.ID,
			AppliedRuleName: rule.Name,
			SkipManager:     rule.SkipManager,
			SkipHR:          rule.SkipHR,
			SkipFinance:     rule.SkipFinance,
		}
	}
	return nil
}

func matchesEmployee(rule *entity.SkipRule, emp EmployeeRef) bool {
	switch rule.MatchType {
	case entity.MatchTypeDesignation:
		return contains(rule.Designations, emp.Designation)
	case entity.MatchTypeEmail:
		return contains(rule.Emails, emp.Email)
	default:
		return false
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
