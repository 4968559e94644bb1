package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code (e.g. USD, EUR)
type Currency string

// Direction indicates which side of the trade we are on
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// IsValid reports whether the direction is one of the supported directions
func (d Direction) IsValid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// StyleForward is the only supported trade style
const StyleForward = "forward"

// TradeDetails holds the economic terms of a trade. A TradeDetails value is
// immutable once committed to a version; mutations always produce a new snapshot.
type TradeDetails struct {
	TradingEntity    string           `json:"trading_entity"`
	Counterparty     string           `json:"counterparty"`
	Direction        Direction        `json:"direction"`
	Style            string           `json:"style"`
	NotionalCurrency Currency         `json:"notional_currency"`
	NotionalAmount   decimal.Decimal  `json:"notional_amount"`
	Underlying       []Currency       `json:"underlying"`
	TradeDate        time.Time        `json:"trade_date"`
	ValueDate        time.Time        `json:"value_date"`
	DeliveryDate     time.Time        `json:"delivery_date"`
	Strike           *decimal.Decimal `json:"strike,omitempty"`
}

// Clone returns a deep copy so committed snapshots never share mutable state
func (d TradeDetails) Clone() TradeDetails {
	cp := d
	if d.Underlying != nil {
		cp.Underlying = make([]Currency, len(d.Underlying))
		copy(cp.Underlying, d.Underlying)
	}
	if d.Strike != nil {
		strike := *d.Strike
		cp.Strike = &strike
	}
	return cp
}

// HasUnderlying reports whether the currency is part of the underlying set
func (d TradeDetails) HasUnderlying(c Currency) bool {
	for _, u := range d.Underlying {
		if u == c {
			return true
		}
	}
	return false
}

// SortedUnderlying returns the underlying set in a stable, sorted order
func (d TradeDetails) SortedUnderlying() []Currency {
	out := make([]Currency, len(d.Underlying))
	copy(out, d.Underlying)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Trade represents a forward-contract trade record tracked through its
// approval lifecycle. Details always equal the latest version's snapshot.
type Trade struct {
	ID          string       `json:"id"`
	RequesterID string       `json:"requester_id"`
	State       TradeState   `json:"state"`
	Details     TradeDetails `json:"details"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// DraftCreate represents data for creating a new draft trade
type DraftCreate struct {
	TradingEntity    string          `json:"trading_entity" binding:"required"`
	Counterparty     string          `json:"counterparty" binding:"required"`
	Direction        Direction       `json:"direction" binding:"required,oneof=BUY SELL"`
	NotionalCurrency Currency        `json:"notional_currency" binding:"required,currency"`
	NotionalAmount   decimal.Decimal `json:"notional_amount" binding:"required"`
	Underlying       []Currency      `json:"underlying" binding:"required,min=1,dive,currency"`
	ValueDate        time.Time       `json:"value_date" binding:"required"`
	DeliveryDate     time.Time       `json:"delivery_date" binding:"required"`
}

// DetailsUpdate represents the mutable terms submitted with a REQUEST_UPDATE
type DetailsUpdate struct {
	Counterparty     string          `json:"counterparty" binding:"required"`
	Direction        Direction       `json:"direction" binding:"required,oneof=BUY SELL"`
	NotionalCurrency Currency        `json:"notional_currency" binding:"required,currency"`
	NotionalAmount   decimal.Decimal `json:"notional_amount" binding:"required"`
	Underlying       []Currency      `json:"underlying" binding:"required,min=1,dive,currency"`
	ValueDate        time.Time       `json:"value_date" binding:"required"`
	DeliveryDate     time.Time       `json:"delivery_date" binding:"required"`
}

// Apply overlays the mutable terms onto an existing snapshot. Trade date,
// trading entity and strike are not caller-mutable.
func (u DetailsUpdate) Apply(current TradeDetails) TradeDetails {
	next := current.Clone()
	next.Counterparty = u.Counterparty
	next.Direction = u.Direction
	next.NotionalCurrency = u.NotionalCurrency
	next.NotionalAmount = u.NotionalAmount
	next.Underlying = make([]Currency, len(u.Underlying))
	copy(next.Underlying, u.Underlying)
	next.ValueDate = u.ValueDate
	next.DeliveryDate = u.DeliveryDate
	return next
}

// ActionSubmission represents an action submitted against an existing trade
type ActionSubmission struct {
	Action  Action           `json:"action" binding:"required"`
	Details *DetailsUpdate   `json:"details,omitempty"`
	Strike  *decimal.Decimal `json:"strike,omitempty"`
}
