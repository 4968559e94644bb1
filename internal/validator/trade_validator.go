// Package validator checks the internal consistency of a trade-detail
// snapshot. Checks are pure and report the first violated rule only; no
// partial correction is attempted.
package validator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yourorg/trade-approval/internal/model"
)

// ValidateDetails checks a snapshot against every invariant that must hold at
// commit time. The entering state decides whether a strike must be present:
// a strike exists exactly once a trade is executed.
func ValidateDetails(details model.TradeDetails, entering model.TradeState) error {
	if details.TradingEntity == "" {
		return &model.ValidationError{Field: "trading_entity", Reason: "is required"}
	}
	if details.Counterparty == "" {
		return &model.ValidationError{Field: "counterparty", Reason: "is required"}
	}
	if !details.Direction.IsValid() {
		return &model.ValidationError{Field: "direction", Reason: "must be BUY or SELL"}
	}
	if details.Style != model.StyleForward {
		return &model.ValidationError{
			Field:  "style",
			Reason: fmt.Sprintf("only %q trades are supported", model.StyleForward),
		}
	}
	if details.NotionalCurrency == "" {
		return &model.ValidationError{Field: "notional_currency", Reason: "is required"}
	}
	if len(details.Underlying) == 0 {
		return &model.ValidationError{Field: "underlying", Reason: "must contain at least one currency"}
	}
	if !details.HasUnderlying(details.NotionalCurrency) {
		return &model.ValidationError{
			Field:  "notional_currency",
			Reason: fmt.Sprintf("currency %s is not part of the underlying set", details.NotionalCurrency),
		}
	}
	if !details.NotionalAmount.GreaterThan(decimal.Zero) {
		return &model.ValidationError{Field: "notional_amount", Reason: "must be greater than zero"}
	}

	if err := validateDates(details); err != nil {
		return err
	}

	return validateStrike(details, entering)
}

// validateDates enforces strict chronological ordering of the trade dates
func validateDates(details model.TradeDetails) error {
	if details.TradeDate.IsZero() {
		return &model.ValidationError{Field: "trade_date", Reason: "is required"}
	}
	if !details.TradeDate.Before(details.ValueDate) {
		return &model.ValidationError{Field: "value_date", Reason: "must be after the trade date"}
	}
	if !details.ValueDate.Before(details.DeliveryDate) {
		return &model.ValidationError{Field: "delivery_date", Reason: "must be after the value date"}
	}
	return nil
}

// validateStrike enforces that a strike is present iff the trade is entering
// the executed state
func validateStrike(details model.TradeDetails, entering model.TradeState) error {
	if entering == model.StateExecuted {
		if details.Strike == nil {
			return &model.ValidationError{Field: "strike", Reason: "is required to book a trade"}
		}
		if !details.Strike.GreaterThan(decimal.Zero) {
			return &model.ValidationError{Field: "strike", Reason: "must be greater than zero"}
		}
		return nil
	}
	if details.Strike != nil {
		return &model.ValidationError{Field: "strike", Reason: "is only set when a trade is executed"}
	}
	return nil
}
