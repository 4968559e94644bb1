package model

// TradeState represents the lifecycle state of a trade
type TradeState string

const (
	StateDraft              TradeState = "DRAFT"
	StatePendingApproval    TradeState = "PENDING_APPROVAL"
	StateNeedsReapproval    TradeState = "NEEDS_REAPPROVAL"
	StateApproved           TradeState = "APPROVED"
	StateSendToCounterparty TradeState = "SEND_TO_COUNTERPARTY"
	StateExecuted           TradeState = "EXECUTED"
	StateCancelled          TradeState = "CANCELLED"
)

// States lists every trade state in lifecycle order
var States = []TradeState{
	StateDraft,
	StatePendingApproval,
	StateNeedsReapproval,
	StateApproved,
	StateSendToCounterparty,
	StateExecuted,
	StateCancelled,
}

// IsTerminal reports whether no further actions are permitted from the state
func (s TradeState) IsTerminal() bool {
	return s == StateExecuted || s == StateCancelled
}

// Action represents a named operation requested against a trade
type Action string

const (
	ActionRequestNew    Action = "REQUEST_NEW"
	ActionSubmit        Action = "SUBMIT"
	ActionApproveNew    Action = "APPROVE_NEW"
	ActionRequestUpdate Action = "REQUEST_UPDATE"
	ActionApproveUpdate Action = "APPROVE_UPDATE"
	ActionSendToExecute Action = "SEND_TO_EXECUTE"
	ActionBook          Action = "BOOK"
	ActionCancel        Action = "CANCEL"
)

// Actions lists every supported action
var Actions = []Action{
	ActionRequestNew,
	ActionSubmit,
	ActionApproveNew,
	ActionRequestUpdate,
	ActionApproveUpdate,
	ActionSendToExecute,
	ActionBook,
	ActionCancel,
}

// IsValid reports whether the action is one of the supported actions
func (a Action) IsValid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// Role represents the permission group a user acts under
type Role string

const (
	RoleRequester Role = "REQUESTER"
	RoleApprover  Role = "APPROVER"
)

// IsValid reports whether the role is one of the supported roles
func (r Role) IsValid() bool {
	return r == RoleRequester || r == RoleApprover
}
