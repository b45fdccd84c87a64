package event

// Type identifies the type of domain event
type Type string

const (
	TypeClaimCreated  Type = "claim.created"
	TypeClaimRouted   Type = "claim.routed"
	TypeStatusChanged Type = "claim.status_changed"
	TypeClaimSettled  Type = "claim.settled"
	TypeClaimRejected Type = "claim.rejected"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeClaimCreated,
		TypeClaimRouted,
		TypeStatusChanged,
		TypeClaimSettled,
		TypeClaimRejected:
		return true
	default:
		return false
	}
}
