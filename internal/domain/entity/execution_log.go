package entity

import "time"

// ExecutionLogEntry records one invocation of the routing engine.
// Write-once; FAILURE entries are mandatory, SUCCESS best effort.
type ExecutionLogEntry struct {
	ID           string    `json:"id"`
	ClaimID      string    `json:"claim_id"`
	Outcome      string    `json:"outcome"`
	Result       string    `json:"result,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
