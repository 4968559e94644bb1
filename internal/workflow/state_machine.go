// Package workflow holds the pure rules of the approval workflow: which
// actions are legal from which state, and which roles may request them.
// State legality and role permission are orthogonal checks and fail with
// distinguishable errors.
package workflow

import (
	"github.com/yourorg/trade-approval/internal/model"
)

// transitions is the single source of truth for the trade lifecycle.
// EXECUTED and CANCELLED have no outgoing transitions.
var transitions = map[model.TradeState]map[model.Action]model.TradeState{
	model.StateDraft: {
		model.ActionSubmit: model.StatePendingApproval,
	},
	model.StatePendingApproval: {
		model.ActionApproveNew:    model.StateApproved,
		model.ActionRequestUpdate: model.StateNeedsReapproval,
		model.ActionCancel:        model.StateCancelled,
	},
	model.StateNeedsReapproval: {
		model.ActionApproveUpdate: model.StateApproved,
		model.ActionCancel:        model.StateCancelled,
	},
	model.StateApproved: {
		model.ActionSendToExecute: model.StateSendToCounterparty,
		model.ActionCancel:        model.StateCancelled,
	},
	model.StateSendToCounterparty: {
		model.ActionBook:   model.StateExecuted,
		model.ActionCancel: model.StateCancelled,
	},
	model.StateExecuted:  {},
	model.StateCancelled: {},
}

// NextState returns the state the trade enters when the action is applied to
// the current state. It has no side effects; callers apply the result only
// after all other checks succeed.
func NextState(current model.TradeState, action model.Action) (model.TradeState, error) {
	allowed, ok := transitions[current]
	if !ok {
		return "", &model.IllegalTransitionError{State: current, Action: action}
	}
	next, ok := allowed[action]
	if !ok {
		return "", &model.IllegalTransitionError{State: current, Action: action}
	}
	return next, nil
}

// AllowedActions returns the actions legal from the given state, in the
// declaration order of model.Actions.
func AllowedActions(current model.TradeState) []model.Action {
	allowed := transitions[current]
	var out []model.Action
	for _, action := range model.Actions {
		if _, ok := allowed[action]; ok {
			out = append(out, action)
		}
	}
	return out
}
