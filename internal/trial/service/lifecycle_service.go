package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aarnav1729/sample-trials/internal/trial/entity"
	"github.com/aarnav1729/sample-trials/internal/trial/repository"
	"github.com/aarnav1729/sample-trials/internal/trial/sse"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LifecycleService is the sole write path into a material trial request.
// Every mutation goes through CreateRequest or ApplyCommand, which commit
// the entity change and the matching audit entry in one transaction.
type LifecycleService struct {
	requestRepo    *repository.RequestRepository
	auditRepo      *repository.AuditRepository
	referenceRepo  *repository.ReferenceRepository
	referenceCache *ReferenceService
	db             *gorm.DB
	flow           entity.FlowConfig
}

// SetReferenceCache wires the cached reference service so novel values
// registered at creation invalidate the cached sets.
func (s *LifecycleService) SetReferenceCache(rs *ReferenceService) {
	s.referenceCache = rs
}

func NewLifecycleService(
	requestRepo *repository.RequestRepository,
	auditRepo *repository.AuditRepository,
	referenceRepo *repository.ReferenceRepository,
	db *gorm.DB,
	flow entity.FlowConfig,
) *LifecycleService {
	return &LifecycleService{
		requestRepo:   requestRepo,
		auditRepo:     auditRepo,
		referenceRepo: referenceRepo,
		db:            db,
		flow:          flow,
	}
}

// Flow exposes the configured lifecycle variant.
func (s *LifecycleService) Flow() entity.FlowConfig {
	return s.flow
}

// === queries ===

// GetRequest returns one request.
func (s *LifecycleService) GetRequest(ctx context.Context, id string) (*entity.MaterialRequest, error) {
	return s.requestRepo.FindByID(ctx, id)
}

// ListRequests lists requests with filters and pagination.
func (s *LifecycleService) ListRequests(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.MaterialRequest, int64, error) {
	return s.requestRepo.FindAll(ctx, page, pageSize, filters)
}

// GetAuditTrail returns the full audit trail in insertion order.
func (s *LifecycleService) GetAuditTrail(ctx context.Context, requestID string) ([]entity.AuditEntry, error) {
	if _, err := s.requestRepo.FindByID(ctx, requestID); err != nil {
		return nil, err
	}
	return s.auditRepo.FindByRequestID(ctx, requestID)
}

// === create ===

// CreateRequestPayload carries the intake fields. When MaterialCategory or
// Purpose is "Other", the matching *Other field supplies the novel value,
// which is registered into the open reference set for future reuse.
type CreateRequestPayload struct {
	DateReceived          time.Time         `json:"date_received" binding:"required"`
	MaterialCategory      string            `json:"material_category" binding:"required"`
	MaterialCategoryOther string            `json:"material_category_other"`
	MaterialDetails       string            `json:"material_details" binding:"required"`
	SupplierName          string            `json:"supplier_name" binding:"required"`
	Quantity              string            `json:"quantity"`
	TrialAtPlant          bool              `json:"trial_at_plant"`
	Purpose               string            `json:"purpose" binding:"required"`
	PurposeOther          string            `json:"purpose_other"`
	BIS                   entity.Compliance `json:"bis"`
	IEC                   entity.Compliance `json:"iec"`
}

// CreateRequest validates the intake fields and opens a new request at
// pending_cmk with a single creation audit entry.
func (s *LifecycleService) CreateRequest(ctx context.Context, actor Actor, payload CreateRequestPayload) (*entity.MaterialRequest, error) {
	category, purpose, novel, err := s.resolveIntake(&payload)
	if err != nil {
		return nil, err
	}

	code, err := s.requestRepo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate request code: %w", err)
	}

	req := &entity.MaterialRequest{
		ID:               uuid.New().String()[:32],
		Code:             code,
		DateReceived:     payload.DateReceived,
		MaterialCategory: category,
		MaterialDetails:  payload.MaterialDetails,
		SupplierName:     payload.SupplierName,
		Quantity:         payload.Quantity,
		TrialAtPlant:     payload.TrialAtPlant,
		Purpose:          purpose,
		BIS:              normalizeCompliance(payload.BIS),
		IEC:              normalizeCompliance(payload.IEC),
		Status:           entity.StatusPendingCMK,
		RequestedBy:      actor.ID,
		RequestorName:    actor.Name,
	}

	entry := &entity.AuditEntry{
		RequestID:  req.ID,
		Action:     entity.ActionCreated,
		FromStatus: "",
		ToStatus:   entity.StatusPendingCMK,
		Details:    fmt.Sprintf("Trial request %s created for %s material from %s by %s", code, category, payload.SupplierName, actor.Name),
		UserID:     actor.ID,
		UserName:   actor.Name,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requestRepo.Create(ctx, tx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if err := s.auditRepo.Append(ctx, tx, entry); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
		for kind, value := range novel {
			if err := s.referenceRepo.Register(ctx, tx, kind, value); err != nil {
				return fmt.Errorf("register reference value: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.referenceCache != nil {
		for kind := range novel {
			s.referenceCache.Invalidate(ctx, kind)
		}
	}

	sse.PublishRequestUpdate(req.ID, req.Code, entity.ActionCreated, req.Status)
	return req, nil
}

// resolveIntake validates the intake fields and resolves "Other" values.
// Returned map holds the novel reference values to register.
func (s *LifecycleService) resolveIntake(p *CreateRequestPayload) (category, purpose string, novel map[string]string, err error) {
	if p.DateReceived.IsZero() {
		return "", "", nil, missingField("date_received")
	}
	if strings.TrimSpace(p.MaterialCategory) == "" {
		return "", "", nil, missingField("material_category")
	}
	if strings.TrimSpace(p.MaterialDetails) == "" {
		return "", "", nil, missingField("material_details")
	}
	if strings.TrimSpace(p.SupplierName) == "" {
		return "", "", nil, missingField("supplier_name")
	}
	if strings.TrimSpace(p.Purpose) == "" {
		return "", "", nil, missingField("purpose")
	}
	if err := validateCompliance("bis", p.BIS); err != nil {
		return "", "", nil, err
	}
	if err := validateCompliance("iec", p.IEC); err != nil {
		return "", "", nil, err
	}

	novel = map[string]string{}
	category = p.MaterialCategory
	if category == entity.OtherValue {
		if strings.TrimSpace(p.MaterialCategoryOther) == "" {
			return "", "", nil, missingField("material_category_other")
		}
		category = strings.TrimSpace(p.MaterialCategoryOther)
		novel[entity.ReferenceKindMaterialCategory] = category
	}
	purpose = p.Purpose
	if purpose == entity.OtherValue {
		if strings.TrimSpace(p.PurposeOther) == "" {
			return "", "", nil, missingField("purpose_other")
		}
		purpose = strings.TrimSpace(p.PurposeOther)
		novel[entity.ReferenceKindPurpose] = purpose
	}
	return category, purpose, novel, nil
}

func validateCompliance(prefix string, c entity.Compliance) error {
	if !c.Required {
		return nil
	}
	switch c.Currency {
	case entity.CurrencyUSD, entity.CurrencyINR, entity.CurrencyYuan:
	case "":
		return missingField(prefix + ".currency")
	default:
		return invalidField(prefix+".currency", "must be one of USD, INR, YUAN")
	}
	switch c.CostBorneBy {
	case entity.CostBorneBySupplier, entity.CostBorneByPremier:
	case entity.CostBorneBySplit:
		if c.SplitSupplier == nil {
			return missingField(prefix + ".split_supplier")
		}
		if c.SplitPremier == nil {
			return missingField(prefix + ".split_premier")
		}
		// Whether the split amounts sum to the total is not enforced.
	case "":
		return missingField(prefix + ".cost_borne_by")
	default:
		return invalidField(prefix+".cost_borne_by", "must be one of Supplier, Premier, Split")
	}
	return nil
}

// normalizeCompliance drops cost fields when the certification is not
// required, so downstream stages never see stale terms.
func normalizeCompliance(c entity.Compliance) entity.Compliance {
	if !c.Required {
		return entity.Compliance{}
	}
	return c
}

// === stage command payloads ===

type CMKDecisionPayload struct {
	Decision        string `json:"decision" binding:"required"` // trial/pilot/rejected
	Plant           string `json:"plant"`
	Reason          string `json:"reason"`
	RevisedQuantity string `json:"revised_quantity"`
}

type PPCDataPayload struct {
	PRNumber     string `json:"pr_number" binding:"required"`
	MaterialCode string `json:"material_code" binding:"required"`
	Description  string `json:"description" binding:"required"`
	Remarks      string `json:"remarks"`
}

type PlaceOrderPayload struct {
	OrderType         string    `json:"order_type" binding:"required"`
	EstimatedDelivery time.Time `json:"estimated_delivery" binding:"required"`
	Remarks           string    `json:"remarks"`
}

type MarkDeliveredPayload struct {
	Remarks string `json:"remarks"`
}

type ReceiveMaterialPayload struct {
	Documents []string `json:"documents"` // filenames only
	Remarks   string   `json:"remarks"`
}

type ConfirmReceiptPayload struct {
	Received       bool       `json:"received"`
	CompletionDate *time.Time `json:"completion_date"`
}

type SubmitReportPayload struct {
	Report     string `json:"report"`
	ReportFile string `json:"report_file"` // filename only
}

type FinalReviewPayload struct {
	Decision string `json:"decision" binding:"required"` // approved/rejected
	Reason   string `json:"reason"`
}

// EditRequestPayload replaces the intake fields pre-approval. Status, stage
// data and the audit trail are untouched.
type EditRequestPayload = CreateRequestPayload

// === command layer ===

// ApplyCommand validates role and status eligibility, applies the stage
// transition and commits the entity update together with exactly one audit
// entry. It returns the updated request.
//
// Failure modes: ErrNotFound (unknown id), ErrInvalidTransition (command
// does not match the current status), ErrForbidden (actor role does not own
// the stage), *ValidationError (payload guard failed). None of them mutate
// state.
func (s *LifecycleService) ApplyCommand(ctx context.Context, requestID string, actor Actor, cmd entity.Command, payload interface{}) (*entity.MaterialRequest, error) {
	req, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	tr, ok := s.flow.Find(req.Status, cmd)
	if !ok {
		return nil, ErrInvalidTransition
	}
	if actor.Role != tr.Role {
		return nil, ErrForbidden
	}
	if cmd == entity.CommandEditRequest && actor.ID != req.RequestedBy {
		// Pre-approval edits are reserved for the original requestor.
		return nil, ErrForbidden
	}

	fromStatus := req.Status
	toStatus := tr.To
	var action, details string

	switch cmd {
	case entity.CommandEditRequest:
		action, details, err = s.applyEdit(req, actor, payload)
	case entity.CommandCMKDecide:
		action, details, toStatus, err = s.applyCMKDecision(req, actor, payload)
	case entity.CommandPPCEnterData:
		action, details, err = s.applyPPCData(req, actor, payload)
	case entity.CommandPlaceOrder:
		action, details, err = s.applyPlaceOrder(req, actor, payload)
	case entity.CommandMarkDelivered:
		action, details, err = s.applyMarkDelivered(req, actor, payload)
	case entity.CommandReceiveMaterial:
		action, details, err = s.applyReceiveMaterial(req, actor, payload)
	case entity.CommandConfirmReceipt:
		action, details, err = s.applyConfirmReceipt(req, actor, payload)
	case entity.CommandSubmitReport:
		action, details, err = s.applySubmitReport(req, actor, payload)
	case entity.CommandFinalReview:
		action, details, toStatus, err = s.applyFinalReview(req, actor, payload)
	default:
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}

	req.Status = toStatus

	entry := &entity.AuditEntry{
		RequestID:  req.ID,
		Action:     action,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		Details:    details,
		UserID:     actor.ID,
		UserName:   actor.Name,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requestRepo.Save(ctx, tx, req); err != nil {
			return fmt.Errorf("save request: %w", err)
		}
		if err := s.auditRepo.Append(ctx, tx, entry); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sse.PublishRequestUpdate(req.ID, req.Code, action, req.Status)
	return req, nil
}

func (s *LifecycleService) applyEdit(req *entity.MaterialRequest, actor Actor, payload interface{}) (string, string, error) {
	p, ok := payload.(EditRequestPayload)
	if !ok {
		return "", "", fmt.Errorf("unexpected payload type for %s", entity.CommandEditRequest)
	}
	category, purpose, _, err := s.resolveIntake(&p)
	if err != nil {
		return "", "", err
	}

	req.DateReceived = p.DateReceived
	req.MaterialCategory = category
	req.MaterialDetails = p.MaterialDetails
	req.SupplierName = p.SupplierName
	req.Quantity = p.Quantity
	req.TrialAtPlant = p.TrialAtPlant
	req.Purpose = purpose
	req.BIS = normalizeCompliance(p.BIS)
	req.IEC = normalizeCompliance(p.IEC)

	details := fmt.Sprintf("Intake details amended by requestor %s", actor.Name)
	return entity.ActionEdited, details, nil
}

func (s *LifecycleService) applyCMKDecision(req *entity.MaterialRequest, actor Actor, payload interface{}) (string, string, entity.Status, error) {
	p, ok := payload.(CMKDecisionPayload)
	if !ok {
		return "", "", "", fmt.Errorf("unexpected payload type for %s", entity.CommandCMKDecide)
	}

	now := time.Now()
	switch p.Decision {
	case entity.DecisionRejected:
		if strings.TrimSpace(p.Reason) == "" {
			return "", "", "", missingField("reason")
		}
		req.CMKDecision = &entity.CMKDecision{
			Decision:       entity.DecisionRejected,
			Reason:         p.Reason,
			ApprovedBy:     actor.ID,
			ApprovedByName: actor.Name,
			ApprovedAt:     now,
		}
		details := fmt.Sprintf("CMK %s rejected the request: %s", actor.Name, p.Reason)
		return entity.ActionCMKDecision, details, entity.StatusRejected, nil

	case entity.DecisionTrial, entity.DecisionPilot:
		if strings.TrimSpace(p.Plant) == "" {
			return "", "", "", missingField("plant")
		}
		req.CMKDecision = &entity.CMKDecision{
			Decision:        p.Decision,
			Plant:           p.Plant,
			RevisedQuantity: p.RevisedQuantity,
			ApprovedBy:      actor.ID,
			ApprovedByName:  actor.Name,
			ApprovedAt:      now,
		}
		req.Plant = p.Plant
		if p.RevisedQuantity != "" {
			req.Quantity = p.RevisedQuantity
		}
		details := fmt.Sprintf("CMK %s approved for %s at plant %s", actor.Name, p.Decision, p.Plant)
		return entity.ActionCMKDecision, details, entity.StatusPendingPPC, nil

	default:
		return "", "", "", invalidField("decision", "must be one of trial, pilot, rejected")
	}
}

func (s *LifecycleService) applyPPCData(req *entity.MaterialRequest, actor Actor, payload interface{}) (string, string, error) {
	p, ok := payload.(PPCDataPayload)
	if !ok {
		return "", "", fmt.Errorf("unexpected payload type for %s", entity.CommandPPCEnterData)
	}
	if strings.TrimSpace(p.PRNumber) == "" {
		return "", "", missingField("pr_number")
	}
	if strings.TrimSpace(p.MaterialCode) == "" {
		return "", "", missingField("material_code")
	}
	if strings.TrimSpace(p.Description) == "" {
		return "", "", missingField("description")
	}

	req.PPCData = &entity.PPCData{
		PRNumber:     p.PRNumber,
		MaterialCode: p.MaterialCode,
		Description:  p.Description,
		Remarks:      p.Remarks,
		EnteredBy:    actor.ID,
		EnteredAt:    time.Now(),
	}
	details := fmt.Sprintf("PPC attached PR %s, material code %s", p.PRNumber, p.MaterialCode)
	return entity.ActionPPCData, details, nil
}

func (s *LifecycleService) applyPlaceOrder(req *entity.MaterialRequest, actor Actor, payload interface{}) (string, string, error) {
	p, ok := payload.(PlaceOrderPayload)
	if !ok {
		return "", "", fmt.Errorf("unexpected payload type for %s", entity.CommandPlaceOrder)
	}
	if strings.TrimSpace(p.OrderType) == "" {
		return "", "", missingField("order_type")
	}
	if p.EstimatedDelivery.IsZero() {
		return "", "", missingField("estimated_delivery")
	}

	req.ProcurementData = &entity.ProcurementData{
		OrderType:         p.OrderType,
		EstimatedDelivery: p.EstimatedDelivery,
		Remarks:           p.Remarks,
		OrderedBy:         actor.ID,
		OrderedAt:         time.Now(),
	}
	details := fmt.Sprintf("Order placed (%s), estimated delivery %s", p.OrderType, p.EstimatedDelivery.Format("2006-01-02"))
	return entity.ActionOrderPlaced, details, nil
}

func (s *LifecycleService) applyMarkDelivered(req *entity.MaterialRequest, actor Actor, payload interface{}) (string, string, error) {
	p, ok := payload.(MarkDeliveredPayload)
	if !ok {
		return "", "", fmt.Errorf("unexpected payload type for %s", entity.CommandMarkDelivered)
	}
	if req.ProcurementData == nil {
		return "", "", fmt.Errorf("request %s has no procurement data", req.ID)
	}

	now := time.Now()
	req.ProcurementData.DeliveredBy = actor.ID
	req.ProcurementData.DeliveredAt = &now
	if p.Remarks != "" {
		req.ProcurementData.Remarks = p.Remarks
	}
	details := fmt.Sprintf("Order marked delivered by %s", actor.Name)
	return entity.ActionDelivered, details, nil
}

func (s *LifecycleService) applyReceiveMaterial(req *entity.MaterialRequest, actor Actor, payload interface{}) (string, string, error) {
	p, ok := payload.(ReceiveMaterialPayload)
	if !ok {
		return "", "", fmt.Errorf("unexpected payload type for %s", entity.CommandReceiveMaterial)
	}

	req.StoresData = &entity.StoresData{
		Documents:  p.Documents,
		Remarks:    p.Remarks,
		ReceivedBy: actor.ID,
		ReceivedAt: time.Now(),
	}
	details := fmt.Sprintf("Material received at stores by %s (%d documents)", actor.Name, len(p.Documents))
	return entity.ActionReceived, details, nil
}

func (s *LifecycleService) applyConfirmReceipt(req *entity.MaterialRequest, actor Actor, payload interface{}) (string, string, error) {
	p, ok := payload.(ConfirmReceiptPayload)
	if !ok {
		return "", "", fmt.Errorf("unexpected payload type for %s", entity.CommandConfirmReceipt)
	}
	if !p.Received {
		return "", "", invalidField("received", "receipt must be confirmed")
	}
	if p.CompletionDate == nil {
		return "", "", missingField("completion_date")
	}

	now := time.Now()
	if req.EvaluationData == nil {
		req.EvaluationData = &entity.EvaluationData{}
	}
	req.EvaluationData.Received = true
	req.EvaluationData.CompletionDate = p.CompletionDate
	req.EvaluationData.ConfirmedBy = actor.ID
	req.EvaluationData.ConfirmedAt = &now
	details := fmt.Sprintf("Receipt confirmed, trial completion planned for %s", p.CompletionDate.Format("2006-01-02"))
	return entity.ActionReceiptConfirm, details, nil
}

func (s *LifecycleService) applySubmitReport(req *entity.MaterialRequest, actor Actor, payload interface{}) (string, string, error) {
	p, ok := payload.(SubmitReportPayload)
	if !ok {
		return "", "", fmt.Errorf("unexpected payload type for %s", entity.CommandSubmitReport)
	}
	if strings.TrimSpace(p.Report) == "" && strings.TrimSpace(p.ReportFile) == "" {
		return "", "", missingField("report")
	}

	now := time.Now()
	if req.EvaluationData == nil {
		req.EvaluationData = &entity.EvaluationData{}
	}
	req.EvaluationData.Report = p.Report
	req.EvaluationData.ReportFile = p.ReportFile
	req.EvaluationData.SubmittedBy = actor.ID
	req.EvaluationData.SubmittedAt = &now
	details := fmt.Sprintf("Evaluation report submitted by %s", actor.Name)
	return entity.ActionReportSubmitted, details, nil
}

func (s *LifecycleService) applyFinalReview(req *entity.MaterialRequest, actor Actor, payload interface{}) (string, string, entity.Status, error) {
	p, ok := payload.(FinalReviewPayload)
	if !ok {
		return "", "", "", fmt.Errorf("unexpected payload type for %s", entity.CommandFinalReview)
	}

	now := time.Now()
	switch p.Decision {
	case entity.DecisionRejected:
		if strings.TrimSpace(p.Reason) == "" {
			return "", "", "", missingField("reason")
		}
		req.FinalCMKReview = &entity.FinalCMKReview{
			Decision:       entity.DecisionRejected,
			Reason:         p.Reason,
			ReviewedBy:     actor.ID,
			ReviewedByName: actor.Name,
			ReviewedAt:     now,
		}
		details := fmt.Sprintf("Final CMK review by %s: rejected (%s)", actor.Name, p.Reason)
		return entity.ActionFinalReview, details, entity.StatusRejected, nil

	case entity.DecisionApproved:
		req.FinalCMKReview = &entity.FinalCMKReview{
			Decision:       entity.DecisionApproved,
			Reason:         p.Reason,
			ReviewedBy:     actor.ID,
			ReviewedByName: actor.Name,
			ReviewedAt:     now,
		}
		details := fmt.Sprintf("Final CMK review by %s: approved", actor.Name)
		return entity.ActionFinalReview, details, entity.StatusCompleted, nil

	default:
		return "", "", "", invalidField("decision", "must be one of approved, rejected")
	}
}
