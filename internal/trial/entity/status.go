package entity

// Status is the lifecycle state of a material trial request.
type Status string

const (
	StatusPendingCMK         Status = "pending_cmk"
	StatusPendingPPC         Status = "pending_ppc"
	StatusPendingProcurement Status = "pending_procurement"
	StatusOrdered            Status = "ordered"
	StatusDelivered          Status = "delivered"
	StatusReceived           Status = "received" // stores stage only
	StatusPendingEvaluation  Status = "pending_evaluation"
	StatusPendingFinalCMK    Status = "pending_final_cmk" // final review stage only
	StatusCompleted          Status = "completed"
	StatusRejected           Status = "rejected"
)

// Terminal reports whether no further transitions are legal.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// Role identifies the workflow role an actor holds.
type Role string

const (
	RoleRequestor   Role = "requestor"
	RoleCMK         Role = "cmk"
	RolePPC         Role = "ppc"
	RoleProcurement Role = "procurement"
	RoleStores      Role = "stores"
	RoleEvaluation  Role = "evaluation"
)

// Command names a role-gated action against a request.
type Command string

const (
	CommandEditRequest     Command = "edit_request"
	CommandCMKDecide       Command = "cmk_decide"
	CommandPPCEnterData    Command = "ppc_enter_data"
	CommandPlaceOrder      Command = "place_order"
	CommandMarkDelivered   Command = "mark_delivered"
	CommandReceiveMaterial Command = "receive_material"
	CommandConfirmReceipt  Command = "confirm_receipt"
	CommandSubmitReport    Command = "submit_report"
	CommandFinalReview     Command = "final_review"
)

// Transition is one allowed edge in the lifecycle state machine.
// To is the forward target; when CanReject is set the owning role may
// divert the request to rejected instead.
type Transition struct {
	From      Status
	Command   Command
	Role      Role
	To        Status
	CanReject bool
}

// FlowConfig selects the deployed lifecycle variant. The extended flow
// (both flags set) is canonical; the simple flow skips the stores receipt
// and the final CMK review.
type FlowConfig struct {
	StoresStage bool `mapstructure:"stores_stage"`
	FinalReview bool `mapstructure:"final_review"`
}

// Transitions builds the canonical transition table for this variant.
func (f FlowConfig) Transitions() []Transition {
	ts := []Transition{
		{From: StatusPendingCMK, Command: CommandEditRequest, Role: RoleRequestor, To: StatusPendingCMK},
		{From: StatusPendingCMK, Command: CommandCMKDecide, Role: RoleCMK, To: StatusPendingPPC, CanReject: true},
		{From: StatusPendingPPC, Command: CommandPPCEnterData, Role: RolePPC, To: StatusPendingProcurement},
		{From: StatusPendingProcurement, Command: CommandPlaceOrder, Role: RoleProcurement, To: StatusOrdered},
		{From: StatusOrdered, Command: CommandMarkDelivered, Role: RoleProcurement, To: StatusDelivered},
	}

	if f.StoresStage {
		ts = append(ts,
			Transition{From: StatusDelivered, Command: CommandReceiveMaterial, Role: RoleStores, To: StatusReceived},
			Transition{From: StatusReceived, Command: CommandConfirmReceipt, Role: RoleEvaluation, To: StatusPendingEvaluation},
		)
	} else {
		ts = append(ts,
			Transition{From: StatusDelivered, Command: CommandConfirmReceipt, Role: RoleEvaluation, To: StatusPendingEvaluation},
		)
	}

	if f.FinalReview {
		ts = append(ts,
			Transition{From: StatusPendingEvaluation, Command: CommandSubmitReport, Role: RoleEvaluation, To: StatusPendingFinalCMK},
			Transition{From: StatusPendingFinalCMK, Command: CommandFinalReview, Role: RoleCMK, To: StatusCompleted, CanReject: true},
		)
	} else {
		ts = append(ts,
			Transition{From: StatusPendingEvaluation, Command: CommandSubmitReport, Role: RoleEvaluation, To: StatusCompleted},
		)
	}

	return ts
}

// Find returns the transition for the given status and command, if any.
func (f FlowConfig) Find(from Status, cmd Command) (Transition, bool) {
	for _, t := range f.Transitions() {
		if t.From == from && t.Command == cmd {
			return t, true
		}
	}
	return Transition{}, false
}

// OwnerRole returns the role that owns the next action for a status.
// Edit is a self-transition and never owns a stage.
func (f FlowConfig) OwnerRole(from Status) (Role, bool) {
	for _, t := range f.Transitions() {
		if t.From == from && t.Command != CommandEditRequest {
			return t.Role, true
		}
	}
	return "", false
}

// Statuses returns every status reachable under this variant, in flow order.
func (f FlowConfig) Statuses() []Status {
	ss := []Status{StatusPendingCMK, StatusPendingPPC, StatusPendingProcurement, StatusOrdered, StatusDelivered}
	if f.StoresStage {
		ss = append(ss, StatusReceived)
	}
	ss = append(ss, StatusPendingEvaluation)
	if f.FinalReview {
		ss = append(ss, StatusPendingFinalCMK)
	}
	return append(ss, StatusCompleted, StatusRejected)
}
