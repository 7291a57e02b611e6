package entity

import "time"

// AuditEntry is one immutable line in a request's audit trail. Entries are
// appended inside the same transaction as the state change they describe
// and are never updated or deleted. Seq is the insertion order within a
// request; CreatedAt collisions inside a fast test run cannot reorder it.
type AuditEntry struct {
	ID        string `json:"id" gorm:"primaryKey;size:32"`
	RequestID string `json:"request_id" gorm:"size:32;not null;uniqueIndex:idx_audit_request_seq,priority:1;index"`
	Seq       int    `json:"seq" gorm:"not null;uniqueIndex:idx_audit_request_seq,priority:2"`

	Action     string `json:"action" gorm:"size:50;not null"`
	FromStatus Status `json:"from_status" gorm:"size:30"`
	ToStatus   Status `json:"to_status" gorm:"size:30"`
	Details    string `json:"details" gorm:"type:text"`

	UserID    string    `json:"user_id" gorm:"size:32;not null"`
	UserName  string    `json:"user_name" gorm:"size:100"`
	CreatedAt time.Time `json:"created_at"`
}

func (AuditEntry) TableName() string {
	return "trial_audit_entries"
}

// Audit actions
const (
	ActionCreated         = "created"
	ActionEdited          = "edited"
	ActionCMKDecision     = "cmk_decision"
	ActionPPCData         = "ppc_data"
	ActionOrderPlaced     = "order_placed"
	ActionDelivered       = "delivered"
	ActionReceived        = "material_received"
	ActionReceiptConfirm  = "receipt_confirmed"
	ActionReportSubmitted = "report_submitted"
	ActionFinalReview     = "final_review"
)
