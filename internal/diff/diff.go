// Package diff computes field-level differences between two trade-detail
// snapshots. The output is a flat value diff in a fixed field order, stable
// across calls; no semantic interpretation is applied.
package diff

import (
	"strings"
	"time"

	"github.com/yourorg/trade-approval/internal/model"
)

// Field order is fixed: trading_entity, counterparty, direction, style,
// notional_currency, notional_amount, underlying, trade_date, value_date,
// delivery_date, strike.
var fields = []struct {
	name   string
	render func(model.TradeDetails) string
}{
	{"trading_entity", func(d model.TradeDetails) string { return d.TradingEntity }},
	{"counterparty", func(d model.TradeDetails) string { return d.Counterparty }},
	{"direction", func(d model.TradeDetails) string { return string(d.Direction) }},
	{"style", func(d model.TradeDetails) string { return d.Style }},
	{"notional_currency", func(d model.TradeDetails) string { return string(d.NotionalCurrency) }},
	{"notional_amount", func(d model.TradeDetails) string { return d.NotionalAmount.String() }},
	{"underlying", renderUnderlying},
	{"trade_date", func(d model.TradeDetails) string { return renderTime(d.TradeDate) }},
	{"value_date", func(d model.TradeDetails) string { return renderTime(d.ValueDate) }},
	{"delivery_date", func(d model.TradeDetails) string { return renderTime(d.DeliveryDate) }},
	{"strike", renderStrike},
}

// Compute returns the fields whose values differ between the two snapshots,
// compared by value equality on their rendered form. Compute(a, a) is empty,
// and Compute(b, a) is Compute(a, b) with old and new values swapped.
func Compute(a, b model.TradeDetails) []model.FieldDiff {
	var out []model.FieldDiff
	for _, f := range fields {
		oldValue := f.render(a)
		newValue := f.render(b)
		if oldValue != newValue {
			out = append(out, model.FieldDiff{Field: f.name, Old: oldValue, New: newValue})
		}
	}
	return out
}

// renderUnderlying renders the underlying as a sorted set so ordering of the
// submitted slice never produces a spurious diff
func renderUnderlying(d model.TradeDetails) string {
	sorted := d.SortedUnderlying()
	parts := make([]string, len(sorted))
	for i, c := range sorted {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func renderStrike(d model.TradeDetails) string {
	if d.Strike == nil {
		return ""
	}
	return d.Strike.String()
}

func renderTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
