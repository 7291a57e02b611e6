package handler

import (
	"github.com/aarnav1729/sample-trials/internal/trial/entity"
	"github.com/aarnav1729/sample-trials/internal/trial/service"
	"github.com/gin-gonic/gin"
)

// CommandHandler exposes the stage commands. Every endpoint funnels into
// LifecycleService.ApplyCommand, the single write path.
type CommandHandler struct {
	svc *service.LifecycleService
}

func NewCommandHandler(svc *service.LifecycleService) *CommandHandler {
	return &CommandHandler{svc: svc}
}

func (h *CommandHandler) apply(c *gin.Context, cmd entity.Command, payload interface{}) {
	req, err := h.svc.ApplyCommand(c.Request.Context(), c.Param("id"), GetActor(c), cmd, payload)
	if err != nil {
		RespondCommandError(c, err)
		return
	}
	Success(c, req)
}

// CMKDecide records the plant-head approval or rejection
// POST /api/v1/trial/requests/:id/decision
func (h *CommandHandler) CMKDecide(c *gin.Context) {
	var payload service.CMKDecisionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "invalid payload: "+err.Error())
		return
	}
	h.apply(c, entity.CommandCMKDecide, payload)
}

// PPCEnterData attaches the purchase requisition details
// POST /api/v1/trial/requests/:id/ppc-data
func (h *CommandHandler) PPCEnterData(c *gin.Context) {
	var payload service.PPCDataPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "invalid payload: "+err.Error())
		return
	}
	h.apply(c, entity.CommandPPCEnterData, payload)
}

// PlaceOrder records the procurement order
// POST /api/v1/trial/requests/:id/order
func (h *CommandHandler) PlaceOrder(c *gin.Context) {
	var payload service.PlaceOrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "invalid payload: "+err.Error())
		return
	}
	h.apply(c, entity.CommandPlaceOrder, payload)
}

// MarkDelivered stamps the delivery
// POST /api/v1/trial/requests/:id/delivery
func (h *CommandHandler) MarkDelivered(c *gin.Context) {
	var payload service.MarkDeliveredPayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			BadRequest(c, "invalid payload: "+err.Error())
			return
		}
	}
	h.apply(c, entity.CommandMarkDelivered, payload)
}

// ReceiveMaterial records the stores receipt (extended flow)
// POST /api/v1/trial/requests/:id/receipt
func (h *CommandHandler) ReceiveMaterial(c *gin.Context) {
	var payload service.ReceiveMaterialPayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			BadRequest(c, "invalid payload: "+err.Error())
			return
		}
	}
	h.apply(c, entity.CommandReceiveMaterial, payload)
}

// ConfirmReceipt confirms receipt and the planned completion date
// POST /api/v1/trial/requests/:id/receipt-confirmation
func (h *CommandHandler) ConfirmReceipt(c *gin.Context) {
	var payload service.ConfirmReceiptPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "invalid payload: "+err.Error())
		return
	}
	h.apply(c, entity.CommandConfirmReceipt, payload)
}

// SubmitReport files the evaluation report
// POST /api/v1/trial/requests/:id/report
func (h *CommandHandler) SubmitReport(c *gin.Context) {
	var payload service.SubmitReportPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "invalid payload: "+err.Error())
		return
	}
	h.apply(c, entity.CommandSubmitReport, payload)
}

// FinalReview closes the request after evaluation (extended flow)
// POST /api/v1/trial/requests/:id/review
func (h *CommandHandler) FinalReview(c *gin.Context) {
	var payload service.FinalReviewPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "invalid payload: "+err.Error())
		return
	}
	h.apply(c, entity.CommandFinalReview, payload)
}
