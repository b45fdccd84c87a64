package port

import (
	"context"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/entity"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/workflow"
)

// NotificationDispatcher delivers routing outcomes to employees and
// reviewers. Fire-and-forget; delivery failures never block routing.
type NotificationDispatcher interface {
	Notify(ctx context.Context, claim *entity.Claim, newStatus workflow.Status) error
}

// DashboardInvalidator drops cached dashboard aggregates for a tenant and
// employee after a transition. Best effort; failures never block routing.
type DashboardInvalidator interface {
	Invalidate(ctx context.Context, tenantID, employeeID string) error
}
