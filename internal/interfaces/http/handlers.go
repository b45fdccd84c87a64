package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/port"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/service"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/entity"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	claims     *service.ClaimService
	transition *service.TransitionService
	admin      *service.TenantAdminService
	logger     Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	claims *service.ClaimService,
	transition *service.TransitionService,
	admin *service.TenantAdminService,
	logger Logger,
) *Handlers {
	return &Handlers{
		claims:     claims,
		transition: transition,
		admin:      admin,
		logger:     logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// CreateClaimRequest represents the claim creation payload. The amount is a
// string so fractional values survive the wire without float rounding.
type CreateClaimRequest struct {
	EmployeeID          string                   `json:"employee_id" binding:"required"`
	EmployeeEmail       string                   `json:"employee_email"`
	EmployeeDesignation string                   `json:"employee_designation"`
	Category            string                   `json:"category"`
	Amount              string                   `json:"amount" binding:"required"`
	Currency            string                   `json:"currency"`
	Validation          *entity.ValidationResult `json:"validation,omitempty"`
}

// DecisionRequest represents a reviewer's approve/reject payload
type DecisionRequest struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment"`
}

// ReturnRequest represents a return-to-employee payload
type ReturnRequest struct {
	Comment string `json:"comment"`
}

// SettleRequest represents a settlement payload
type SettleRequest struct {
	PaymentReference string `json:"payment_reference" binding:"required"`
}

// UpdateSettingRequest represents a tenant setting update payload
type UpdateSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// CreateSkipRuleRequest represents a skip rule creation payload
type CreateSkipRuleRequest struct {
	Name         string   `json:"name" binding:"required"`
	MatchType    string   `json:"match_type" binding:"required"`
	Designations []string `json:"designations"`
	Emails       []string `json:"emails"`
	SkipManager  bool     `json:"skip_manager"`
	SkipHR       bool     `json:"skip_hr"`
	SkipFinance  bool     `json:"skip_finance"`
	MaxAmount    string   `json:"max_amount_threshold"`
	Categories   []string `json:"categories"`
	Priority     int      `json:"priority"`
}

// ListClaimsRequest represents query parameters for listing claims
type ListClaimsRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

func tenantID(c *gin.Context) string {
	return c.GetHeader("X-Tenant-ID")
}

func actorID(c *gin.Context) string {
	if actor := c.GetHeader("X-Actor-ID"); actor != "" {
		return actor
	}
	return "system"
}

func requireTenant(c *gin.Context) (string, bool) {
	tenant := tenantID(c)
	if tenant == "" {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "X-Tenant-ID header is required",
		})
		return "", false
	}
	return tenant, true
}

// respondError maps service errors to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, port.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "not found"})
	case errors.Is(err, port.ErrConflict):
		c.JSON(http.StatusConflict, Response{Success: false, Error: "claim was modified concurrently, retry"})
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, workflow.ErrGuardFailed):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CreateClaim handles POST /api/claims
func (h *Handlers) CreateClaim(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}

	var req CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid amount"})
		return
	}

	claim, err := h.claims.CreateClaim(c.Request.Context(), service.CreateClaimInput{
		TenantID:            tenant,
		EmployeeID:          req.EmployeeID,
		EmployeeEmail:       req.EmployeeEmail,
		EmployeeDesignation: req.EmployeeDesignation,
		Category:            req.Category,
		Amount:              amount,
		Currency:            req.Currency,
		Validation:          req.Validation,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: claim})
}

// ListClaims handles GET /api/claims
func (h *Handlers) ListClaims(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}

	var req ListClaimsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}

	claims, err := h.claims.ListClaims(c.Request.Context(), tenant, req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claims})
}

// GetClaim handles GET /api/claims/:id
func (h *Handlers) GetClaim(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}

	claim, err := h.claims.GetClaim(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// GetHistory handles GET /api/claims/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}

	entries, err := h.claims.GetHistory(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// GetApprovalRecords handles GET /api/claims/:id/records
func (h *Handlers) GetApprovalRecords(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}

	records, err := h.claims.GetApprovalRecords(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// GetExecutionLog handles GET /api/claims/:id/executions
func (h *Handlers) GetExecutionLog(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}

	entries, err := h.claims.GetExecutionLog(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// SubmitClaim handles POST /api/claims/:id/submit
func (h *Handlers) SubmitClaim(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}

	result, err := h.transition.RouteOnSubmit(c.Request.Context(), tenant, c.Param("id"), actorID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ManagerDecision handles POST /api/claims/:id/manager-decision
func (h *Handlers) ManagerDecision(c *gin.Context) {
	h.decision(c, h.transition.RouteOnManagerDecision)
}

// HRDecision handles POST /api/claims/:id/hr-decision
func (h *Handlers) HRDecision(c *gin.Context) {
	h.decision(c, h.transition.RouteOnHRDecision)
}

// FinanceDecision handles POST /api/claims/:id/finance-decision
func (h *Handlers) FinanceDecision(c *gin.Context) {
	h.decision(c, h.transition.RouteOnFinanceDecision)
}

func (h *Handlers) decision(
	c *gin.Context,
	route func(ctx context.Context, tenantID, claimID string, approved bool, actor, comment string) (workflow.Status, error),
) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	newStatus, err := route(c.Request.Context(), tenant, c.Param("id"), req.Approved, actorID(c), req.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"new_status": newStatus}})
}

// ReturnClaim handles POST /api/claims/:id/return
func (h *Handlers) ReturnClaim(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}

	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	if err := h.transition.Return(c.Request.Context(), tenant, c.Param("id"), actorID(c), req.Comment); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"new_status": workflow.StatusReturnedToEmployee}})
}

// ResubmitClaim handles POST /api/claims/:id/resubmit
func (h *Handlers) ResubmitClaim(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}

	result, err := h.transition.Resubmit(c.Request.Context(), tenant, c.Param("id"), actorID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// SettleClaim handles POST /api/claims/:id/settle
func (h *Handlers) SettleClaim(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}

	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	if err := h.transition.Settle(c.Request.Context(), tenant, c.Param("id"), actorID(c), req.PaymentReference); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"new_status": workflow.StatusSettled}})
}

// GetPolicy handles GET /api/settings/policy
func (h *Handlers) GetPolicy(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}

	policy, err := h.admin.GetPolicy(c.Request.Context(), tenant)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: policy})
}

// UpdateSetting handles PUT /api/settings/:key
func (h *Handlers) UpdateSetting(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}

	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	if err := h.admin.UpdateSetting(c.Request.Context(), tenant, c.Param("key"), req.Value); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ListSkipRules handles GET /api/skip-rules
func (h *Handlers) ListSkipRules(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}

	rules, err := h.admin.ListSkipRules(c.Request.Context(), tenant)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: rules})
}

// CreateSkipRule handles POST /api/skip-rules
func (h *Handlers) CreateSkipRule(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}

	var req CreateSkipRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	var maxAmount *decimal.Decimal
	if req.MaxAmount != "" {
		amount, err := decimal.NewFromString(req.MaxAmount)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid max amount threshold"})
			return
		}
		maxAmount = &amount
	}

	rule, err := h.admin.CreateSkipRule(c.Request.Context(), tenant, service.CreateSkipRuleInput{
		Name:         req.Name,
		MatchType:    req.MatchType,
		Designations: req.Designations,
		Emails:       req.Emails,
		SkipManager:  req.SkipManager,
		SkipHR:       req.SkipHR,
		SkipFinance:  req.SkipFinance,
		MaxAmount:    maxAmount,
		Categories:   req.Categories,
		Priority:     req.Priority,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: rule})
}

// DeactivateSkipRule handles DELETE /api/skip-rules/:id
func (h *Handlers) DeactivateSkipRule(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}

	if err := h.admin.DeactivateSkipRule(c.Request.Context(), tenant, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}
