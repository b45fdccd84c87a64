package entity

import (
	"time"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/workflow"
)

// ApprovalRecord is one row per stage transition, created whenever the
// routing engine produces a new status. Never updated or deleted.
type ApprovalRecord struct {
	ID        int64          `json:"id"`
	ClaimID   string         `json:"claim_id"`
	Stage     workflow.Stage `json:"stage"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// HistoryEntry is one append-only event in a claim's approval trail
type HistoryEntry struct {
	ID         int64           `json:"id"`
	ClaimID    string          `json:"claim_id"`
	Actor      string          `json:"actor"`
	FromStatus workflow.Status `json:"from_status"`
	ToStatus   workflow.Status `json:"to_status,omitempty"`
	Action     string          `json:"action"`
	Comment    string          `json:"comment,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
