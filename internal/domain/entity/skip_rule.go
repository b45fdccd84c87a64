package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SkipRule is a tenant-defined bypass waiving approval levels for matching
// employees and claims. Rules are evaluated in priority order, lowest first.
type SkipRule struct {
	ID           string   `json:"id"`
	TenantID     string   `json:"tenant_id"`
	Name         string   `json:"name"`
	MatchType    string   `json:"match_type"`
	Designations []string `json:"designations,omitempty"`
	Emails       []string `json:"emails,omitempty"`
	SkipManager  bool     `json:"skip_manager"`
	SkipHR       bool     `json:"skip_hr"`
	SkipFinance  bool     `json:"skip_finance"`
	// MaxAmount makes the rule inapplicable to claims above it; nil means no ceiling.
	MaxAmount *decimal.Decimal `json:"max_amount_threshold,omitempty"`
	// Categories is an allow-list of claim categories; empty means all.
	Categories []string  `json:"categories,omitempty"`
	Priority   int       `json:"priority"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
