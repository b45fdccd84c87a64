package event

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event emitted by the claim lifecycle
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	TenantID      string                 `json:"tenant_id"`
	ClaimID       string                 `json:"claim_id"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with a generated ID and timestamp
func NewEvent(eventType Type, tenantID, claimID string, payload map[string]interface{}) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		TenantID:      tenantID,
		ClaimID:       claimID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
	}
}

// NewEventWithCorrelation creates an event linked to a correlation chain
func NewEventWithCorrelation(eventType Type, tenantID, claimID string, payload map[string]interface{}, correlationID string) *Event {
	e := NewEvent(eventType, tenantID, claimID, payload)
	e.CorrelationID = correlationID
	return e
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadBool retrieves a bool value from the payload
func (e *Event) GetPayloadBool(key string) bool {
	if val, ok := e.Payload[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}
