package handler

import (
	"errors"

	"github.com/aarnav1729/sample-trials/internal/trial/entity"
	"github.com/aarnav1729/sample-trials/internal/trial/service"
	"github.com/gin-gonic/gin"
)

// RequestHandler serves trial request CRUD and the audit trail.
type RequestHandler struct {
	svc *service.LifecycleService
}

func NewRequestHandler(svc *service.LifecycleService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

// ListRequests lists trial requests
// GET /api/v1/trial/requests?status=xxx&plant=xxx&requested_by=xxx&search=xxx
func (h *RequestHandler) ListRequests(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":            c.Query("status"),
		"plant":             c.Query("plant"),
		"requested_by":      c.Query("requested_by"),
		"material_category": c.Query("material_category"),
		"search":            c.Query("search"),
	}

	items, total, err := h.svc.ListRequests(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "failed to list trial requests: "+err.Error())
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// GetRequest returns one trial request
// GET /api/v1/trial/requests/:id
func (h *RequestHandler) GetRequest(c *gin.Context) {
	req, err := h.svc.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			NotFound(c, "trial request not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, req)
}

// CreateRequest opens a new trial request
// POST /api/v1/trial/requests
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var payload service.CreateRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "invalid payload: "+err.Error())
		return
	}

	req, err := h.svc.CreateRequest(c.Request.Context(), GetActor(c), payload)
	if err != nil {
		RespondCommandError(c, err)
		return
	}
	Created(c, req)
}

// EditRequest amends the intake fields pre-approval
// PUT /api/v1/trial/requests/:id
func (h *RequestHandler) EditRequest(c *gin.Context) {
	var payload service.EditRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "invalid payload: "+err.Error())
		return
	}

	req, err := h.svc.ApplyCommand(c.Request.Context(), c.Param("id"), GetActor(c), entity.CommandEditRequest, payload)
	if err != nil {
		RespondCommandError(c, err)
		return
	}
	Success(c, req)
}

// GetAuditTrail returns the request's audit trail in insertion order
// GET /api/v1/trial/requests/:id/audit
func (h *RequestHandler) GetAuditTrail(c *gin.Context) {
	entries, err := h.svc.GetAuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			NotFound(c, "trial request not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, entries)
}
