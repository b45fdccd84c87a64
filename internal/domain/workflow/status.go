package workflow

// Status represents a claim's position in the approval lifecycle
type Status string

const (
	StatusPendingManager     Status = "PENDING_MANAGER"
	StatusReturnedToEmployee Status = "RETURNED_TO_EMPLOYEE"
	StatusManagerApproved    Status = "MANAGER_APPROVED"
	StatusPendingHR          Status = "PENDING_HR"
	StatusHRApproved         Status = "HR_APPROVED"
	StatusPendingFinance     Status = "PENDING_FINANCE"
	StatusFinanceApproved    Status = "FINANCE_APPROVED"
	StatusSettled            Status = "SETTLED"
	StatusRejected           Status = "REJECTED"
)

var validStatuses = map[Status]bool{
	StatusPendingManager:     true,
	StatusReturnedToEmployee: true,
	StatusManagerApproved:    true,
	StatusPendingHR:          true,
	StatusHRApproved:         true,
	StatusPendingFinance:     true,
	StatusFinanceApproved:    true,
	StatusSettled:            true,
	StatusRejected:           true,
}

var terminalStatuses = map[Status]bool{
	StatusSettled:  true,
	StatusRejected: true,
}

// pendingStatuses are the states in which a human reviewer holds the claim.
var pendingStatuses = map[Status]bool{
	StatusPendingManager: true,
	StatusPendingHR:      true,
	StatusPendingFinance: true,
}

// IsTerminal returns true if no further transitions are allowed from the status
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsPendingReview returns true if the claim is waiting on a human reviewer
func (s Status) IsPendingReview() bool {
	return pendingStatuses[s]
}

// IsValid returns true if the status is a member of the closed enumeration
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// Stage identifies the approval level responsible for a status
type Stage string

const (
	StageManager Stage = "MANAGER"
	StageHR      Stage = "HR"
	StageFinance Stage = "FINANCE"
	StageAuto    Stage = "AUTO"
	StageSystem  Stage = "SYSTEM"
)

// String returns the string representation of the stage
func (s Stage) String() string {
	return string(s)
}

// stageByStatus is the single authoritative status-to-stage mapping.
var stageByStatus = map[Status]Stage{
	StatusPendingManager:     StageManager,
	StatusManagerApproved:    StageManager,
	StatusPendingHR:          StageHR,
	StatusHRApproved:         StageHR,
	StatusPendingFinance:     StageFinance,
	StatusFinanceApproved:    StageAuto,
	StatusSettled:            StageAuto,
	StatusRejected:           StageSystem,
	StatusReturnedToEmployee: StageSystem,
}

// StageFor returns the approval stage responsible for the given status
func StageFor(s Status) Stage {
	if stage, ok := stageByStatus[s]; ok {
		return stage
	}
	return StageSystem
}
