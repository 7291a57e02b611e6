package entity

import "time"

// MaterialRequest is one material trial request, from intake to completion.
// Status is the single source of truth for which stage owns the request;
// the stage data blocks are written exactly once by the owning role.
type MaterialRequest struct {
	ID   string `json:"id" gorm:"primaryKey;size:32"`
	Code string `json:"code" gorm:"size:32;uniqueIndex;not null"` // MTR-2026-0001

	// Intake fields, immutable after CMK approval
	DateReceived     time.Time `json:"date_received" gorm:"not null"`
	MaterialCategory string    `json:"material_category" gorm:"size:100;not null"`
	MaterialDetails  string    `json:"material_details" gorm:"type:text;not null"`
	SupplierName     string    `json:"supplier_name" gorm:"size:200;not null"`
	Quantity         string    `json:"quantity" gorm:"size:100"` // free text, e.g. "500 pcs"
	TrialAtPlant     bool      `json:"trial_at_plant"`
	Purpose          string    `json:"purpose" gorm:"size:200;not null"`

	// Compliance certifications
	BIS Compliance `json:"bis" gorm:"embedded;embeddedPrefix:bis_"`
	IEC Compliance `json:"iec" gorm:"embedded;embeddedPrefix:iec_"`

	Status Status `json:"status" gorm:"size:30;not null;index"`
	Plant  string `json:"plant" gorm:"size:20"` // assigned at CMK approval

	RequestedBy   string `json:"requested_by" gorm:"size:32;not null;index"`
	RequestorName string `json:"requestor_name" gorm:"size:100"`

	// Per-stage data, nil until the stage fires
	CMKDecision     *CMKDecision     `json:"cmk_decision,omitempty" gorm:"type:jsonb;serializer:json"`
	PPCData         *PPCData         `json:"ppc_data,omitempty" gorm:"type:jsonb;serializer:json"`
	ProcurementData *ProcurementData `json:"procurement_data,omitempty" gorm:"type:jsonb;serializer:json"`
	StoresData      *StoresData      `json:"stores_data,omitempty" gorm:"type:jsonb;serializer:json"`
	EvaluationData  *EvaluationData  `json:"evaluation_data,omitempty" gorm:"type:jsonb;serializer:json"`
	FinalCMKReview  *FinalCMKReview  `json:"final_cmk_review,omitempty" gorm:"type:jsonb;serializer:json"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MaterialRequest) TableName() string {
	return "trial_requests"
}

// Compliance holds the cost terms for one certification (BIS or IEC).
// When Required is false the cost fields are meaningless and ignored.
type Compliance struct {
	Required      bool     `json:"required"`
	Cost          *float64 `json:"cost,omitempty" gorm:"type:decimal(15,2)"`
	Currency      string   `json:"currency,omitempty" gorm:"size:10"` // USD/INR/YUAN
	CostBorneBy   string   `json:"cost_borne_by,omitempty" gorm:"size:20"`
	SplitSupplier *float64 `json:"split_supplier,omitempty" gorm:"type:decimal(15,2)"`
	SplitPremier  *float64 `json:"split_premier,omitempty" gorm:"type:decimal(15,2)"`
}

// Currencies
const (
	CurrencyUSD  = "USD"
	CurrencyINR  = "INR"
	CurrencyYuan = "YUAN"
)

// Cost sharing
const (
	CostBorneBySupplier = "Supplier"
	CostBorneByPremier  = "Premier"
	CostBorneBySplit    = "Split"
)

// CMKDecision records the plant-head approval or rejection.
type CMKDecision struct {
	Decision        string    `json:"decision"` // trial/pilot/rejected
	Plant           string    `json:"plant,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	RevisedQuantity string    `json:"revised_quantity,omitempty"`
	ApprovedBy      string    `json:"approved_by"`
	ApprovedByName  string    `json:"approved_by_name,omitempty"`
	ApprovedAt      time.Time `json:"approved_at"`
}

// CMK decision values
const (
	DecisionTrial    = "trial"
	DecisionPilot    = "pilot"
	DecisionRejected = "rejected"
	DecisionApproved = "approved" // final review only
)

// PPCData carries the purchase requisition details attached by planning.
type PPCData struct {
	PRNumber     string    `json:"pr_number"`
	MaterialCode string    `json:"material_code"`
	Description  string    `json:"description"`
	Remarks      string    `json:"remarks,omitempty"`
	EnteredBy    string    `json:"entered_by"`
	EnteredAt    time.Time `json:"entered_at"`
}

// ProcurementData tracks the physical order.
type ProcurementData struct {
	OrderType         string     `json:"order_type"` // air/sea/courier/local
	EstimatedDelivery time.Time  `json:"estimated_delivery"`
	Remarks           string     `json:"remarks,omitempty"`
	OrderedBy         string     `json:"ordered_by"`
	OrderedAt         time.Time  `json:"ordered_at"`
	DeliveredBy       string     `json:"delivered_by,omitempty"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
}

// StoresData records the physical receipt at stores (extended flow only).
// Documents are filenames only; file storage lives outside this service.
type StoresData struct {
	Documents  []string  `json:"documents,omitempty"`
	Remarks    string    `json:"remarks,omitempty"`
	ReceivedBy string    `json:"received_by"`
	ReceivedAt time.Time `json:"received_at"`
}

// EvaluationData covers receipt confirmation and the trial report.
type EvaluationData struct {
	Received       bool       `json:"received"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
	ConfirmedBy    string     `json:"confirmed_by,omitempty"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	Report         string     `json:"report,omitempty"`
	ReportFile     string     `json:"report_file,omitempty"` // filename only
	SubmittedBy    string     `json:"submitted_by,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
}

// FinalCMKReview closes the request after evaluation (extended flow only).
type FinalCMKReview struct {
	Decision       string    `json:"decision"` // approved/rejected
	Reason         string    `json:"reason,omitempty"`
	ReviewedBy     string    `json:"reviewed_by"`
	ReviewedByName string    `json:"reviewed_by_name,omitempty"`
	ReviewedAt     time.Time `json:"reviewed_at"`
}
