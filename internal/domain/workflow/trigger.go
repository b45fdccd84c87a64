package workflow

// Trigger represents an event that can move a claim between statuses
type Trigger string

const (
	TriggerRouteManager   Trigger = "ROUTE_MANAGER"
	TriggerRouteHR        Trigger = "ROUTE_HR"
	TriggerRouteFinance   Trigger = "ROUTE_FINANCE"
	TriggerAutoApprove    Trigger = "AUTO_APPROVE"
	TriggerAutoSettle     Trigger = "AUTO_SETTLE"
	TriggerManagerApprove Trigger = "MANAGER_APPROVE"
	TriggerHRApprove      Trigger = "HR_APPROVE"
	TriggerFinanceApprove Trigger = "FINANCE_APPROVE"
	TriggerReject         Trigger = "REJECT"
	TriggerReturn         Trigger = "RETURN"
	TriggerResubmit       Trigger = "RESUBMIT"
	TriggerSettle         Trigger = "SETTLE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
