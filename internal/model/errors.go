package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for missing records
var (
	// ErrTradeNotFound indicates the referenced trade id does not exist
	ErrTradeNotFound = errors.New("trade not found")
	// ErrVersionNotFound indicates the referenced version sequence does not exist
	ErrVersionNotFound = errors.New("version not found")
)

// UnauthorizedError indicates the role lacks permission for the action, or an
// ownership constraint was violated
type UnauthorizedError struct {
	Role   Role
	Action Action
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("role %s is not authorized to %s: %s", e.Role, e.Action, e.Reason)
	}
	return fmt.Sprintf("role %s is not authorized to %s", e.Role, e.Action)
}

// IllegalTransitionError indicates the action is not permitted from the
// trade's current state
type IllegalTransitionError struct {
	State  TradeState
	Action Action
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("action %s is not allowed from state %s", e.Action, e.State)
}

// ValidationError indicates submitted trade details violate an invariant. It
// reports the first violated rule only.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
