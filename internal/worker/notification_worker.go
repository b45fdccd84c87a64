package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/dispatcher"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/port"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/event"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/workflow"
)

// NotificationWorker reacts to claim status changes: it notifies the affected
// employee and drops their cached dashboard aggregates. Both effects are best
// effort and run off the request path.
type NotificationWorker struct {
	claims      port.ClaimRepository
	notifier    port.NotificationDispatcher
	invalidator port.DashboardInvalidator
	events      dispatcher.Dispatcher
	logger      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(
	claims port.ClaimRepository,
	notifier port.NotificationDispatcher,
	invalidator port.DashboardInvalidator,
	events dispatcher.Dispatcher,
	logger *zap.Logger,
) *NotificationWorker {
	return &NotificationWorker{
		claims:      claims,
		notifier:    notifier,
		invalidator: invalidator,
		events:      events,
		logger:      logger,
	}
}

// Name implements Worker
func (w *NotificationWorker) Name() string {
	return "notification-worker"
}

// Start subscribes the worker to status change events
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.events.SubscribeNamed(event.TypeStatusChanged, w.Name(), w.handleStatusChanged)
	w.events.SubscribeNamed(event.TypeClaimSettled, w.Name()+"-settled", w.handleStatusChanged)
	return nil
}

// Stop cancels in-flight handling
func (w *NotificationWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *NotificationWorker) handleStatusChanged(_ context.Context, evt *event.Event) error {
	// Use the worker's own context: the dispatching request may already be done.
	ctx := w.ctx
	if ctx.Err() != nil {
		return ctx.Err()
	}

	newStatus := evt.GetPayloadString("new_status")
	if newStatus == "" {
		return fmt.Errorf("event %s missing new_status payload", evt.ID)
	}

	claim, err := w.claims.GetByID(ctx, evt.TenantID, evt.ClaimID)
	if err != nil {
		return fmt.Errorf("load claim %s: %w", evt.ClaimID, err)
	}

	if err := w.notifier.Notify(ctx, claim, workflow.Status(newStatus)); err != nil {
		w.logger.Warn("Notification delivery failed",
			zap.String("claim_id", claim.ID),
			zap.Error(err))
	}

	if err := w.invalidator.Invalidate(ctx, claim.TenantID, claim.EmployeeID); err != nil {
		w.logger.Warn("Dashboard invalidation failed",
			zap.String("claim_id", claim.ID),
			zap.Error(err))
	}

	w.logger.Info("Claim status fan-out complete",
		zap.String("claim_id", claim.ID),
		zap.String("new_status", newStatus),
		zap.Bool("auto_approved", evt.GetPayloadBool("auto_approved")))

	return nil
}
