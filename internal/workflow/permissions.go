package workflow

import (
	"github.com/yourorg/trade-approval/internal/model"
)

// permissions maps each role to the set of actions it may request
var permissions = map[model.Role]map[model.Action]bool{
	model.RoleRequester: {
		model.ActionRequestNew:    true,
		model.ActionSubmit:        true,
		model.ActionRequestUpdate: true,
		model.ActionApproveUpdate: true,
		model.ActionBook:          true,
		model.ActionCancel:        true,
	},
	model.RoleApprover: {
		model.ActionApproveNew:    true,
		model.ActionRequestUpdate: true,
		model.ActionSendToExecute: true,
		model.ActionBook:          true,
		model.ActionCancel:        true,
	},
}

// CheckPermission verifies that the role may request the action at all,
// independent of any trade's state or ownership.
func CheckPermission(role model.Role, action model.Action) error {
	if !permissions[role][action] {
		return &model.UnauthorizedError{Role: role, Action: action}
	}
	return nil
}

// CheckOwnership enforces the ownership constraint: a requester may act only
// on trades they own, while an approver may act on any trade.
func CheckOwnership(role model.Role, userID, ownerID string, action model.Action) error {
	if role == model.RoleRequester && userID != ownerID {
		return &model.UnauthorizedError{
			Role:   role,
			Action: action,
			Reason: "requesters may only act on their own trades",
		}
	}
	return nil
}
