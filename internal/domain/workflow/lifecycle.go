package workflow

// BuildClaimLifecycle creates a status machine configured for the claim
// approval lifecycle, positioned at the given status.
//
// Routing triggers may re-enter the current pending status: submission
// re-confirms skip rules, so a claim created in PENDING_HR can legitimately
// route to PENDING_HR again.
func BuildClaimLifecycle(initial Status) StatusMachine {
	builder := NewBuilder()

	builder.Configure(StatusPendingManager).
		Permit(TriggerRouteManager, StatusPendingManager).
		Permit(TriggerRouteHR, StatusPendingHR).
		Permit(TriggerRouteFinance, StatusPendingFinance).
		Permit(TriggerAutoApprove, StatusFinanceApproved).
		Permit(TriggerAutoSettle, StatusSettled).
		Permit(TriggerManagerApprove, StatusManagerApproved).
		Permit(TriggerReject, StatusRejected).
		Permit(TriggerReturn, StatusReturnedToEmployee)

	// Transient: a manager approval immediately continues to the next route.
	builder.Configure(StatusManagerApproved).
		Permit(TriggerRouteHR, StatusPendingHR).
		Permit(TriggerRouteFinance, StatusPendingFinance).
		Permit(TriggerAutoApprove, StatusFinanceApproved)

	builder.Configure(StatusPendingHR).
		Permit(TriggerRouteHR, StatusPendingHR).
		Permit(TriggerRouteFinance, StatusPendingFinance).
		Permit(TriggerAutoApprove, StatusFinanceApproved).
		Permit(TriggerHRApprove, StatusHRApproved).
		Permit(TriggerReject, StatusRejected).
		Permit(TriggerReturn, StatusReturnedToEmployee)

	// Transient: an HR approval immediately continues to the next route.
	builder.Configure(StatusHRApproved).
		Permit(TriggerRouteFinance, StatusPendingFinance).
		Permit(TriggerAutoApprove, StatusFinanceApproved)

	builder.Configure(StatusPendingFinance).
		Permit(TriggerRouteFinance, StatusPendingFinance).
		Permit(TriggerFinanceApprove, StatusFinanceApproved).
		Permit(TriggerReject, StatusRejected).
		Permit(TriggerReturn, StatusReturnedToEmployee)

	builder.Configure(StatusFinanceApproved).
		Permit(TriggerSettle, StatusSettled)

	builder.Configure(StatusReturnedToEmployee).
		Permit(TriggerResubmit, StatusPendingManager)

	// SETTLED and REJECTED are terminal, no outgoing transitions.

	return builder.Build(initial)
}
