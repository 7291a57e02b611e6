package handler

import (
	"github.com/aarnav1729/sample-trials/internal/trial/service"
	"github.com/gin-gonic/gin"
)

// ReferenceHandler serves the open reference-value sets.
type ReferenceHandler struct {
	svc *service.ReferenceService
}

func NewReferenceHandler(svc *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{svc: svc}
}

// List returns one reference-value set
// GET /api/v1/trial/reference-values?kind=material_category
func (h *ReferenceHandler) List(c *gin.Context) {
	values, err := h.svc.List(c.Request.Context(), c.Query("kind"))
	if err != nil {
		RespondCommandError(c, err)
		return
	}
	Success(c, values)
}
