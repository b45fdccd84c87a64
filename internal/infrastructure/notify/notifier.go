// Package notify holds outbound side-effect adapters triggered by claim
// transitions. Delivery is fire-and-forget; routing never waits on it.
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/port"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/entity"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/workflow"
)

// LogNotifier implements port.NotificationDispatcher by writing structured
// log records. Stands in for mail or chat delivery in deployments without an
// outbound channel configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify records the routing outcome for the claim's employee and the
// reviewers of the new stage
func (n *LogNotifier) Notify(ctx context.Context, claim *entity.Claim, newStatus workflow.Status) error {
	n.logger.Info("Claim notification",
		zap.String("tenant_id", claim.TenantID),
		zap.String("claim_id", claim.ID),
		zap.String("claim_number", claim.ClaimNumber),
		zap.String("employee_id", claim.EmployeeID),
		zap.String("new_status", newStatus.String()),
		zap.String("stage", string(workflow.StageFor(newStatus))))
	return nil
}

// DashboardCache implements port.DashboardInvalidator over an in-process
// cache of per-employee dashboard aggregates
type DashboardCache struct {
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]interface{}
}

// NewDashboardCache creates an empty dashboard cache
func NewDashboardCache(logger *zap.Logger) *DashboardCache {
	return &DashboardCache{
		logger:  logger,
		entries: make(map[string]interface{}),
	}
}

// Put stores a computed dashboard aggregate
func (c *DashboardCache) Put(tenantID, employeeID string, aggregate interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[tenantID+"/"+employeeID] = aggregate
}

// Get returns a cached aggregate, if any
func (c *DashboardCache) Get(tenantID, employeeID string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	aggregate, ok := c.entries[tenantID+"/"+employeeID]
	return aggregate, ok
}

// Invalidate drops the cached aggregate for an employee after a transition
func (c *DashboardCache) Invalidate(ctx context.Context, tenantID, employeeID string) error {
	c.mu.Lock()
	delete(c.entries, tenantID+"/"+employeeID)
	c.mu.Unlock()

	c.logger.Debug("Dashboard cache invalidated",
		zap.String("tenant_id", tenantID),
		zap.String("employee_id", employeeID))
	return nil
}

// Verify interface compliance
var (
	_ port.NotificationDispatcher = (*LogNotifier)(nil)
	_ port.DashboardInvalidator   = (*DashboardCache)(nil)
)
