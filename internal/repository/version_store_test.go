package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/trade-approval/internal/model"
)

func storeDetails() model.TradeDetails {
	tradeDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return model.TradeDetails{
		TradingEntity:    "ACME Capital",
		Counterparty:     "Globex",
		Direction:        model.DirectionBuy,
		Style:            model.StyleForward,
		NotionalCurrency: "USD",
		NotionalAmount:   decimal.NewFromInt(100),
		Underlying:       []model.Currency{"USD", "EUR"},
		TradeDate:        tradeDate,
		ValueDate:        tradeDate.AddDate(0, 0, 2),
		DeliveryDate:     tradeDate.AddDate(0, 0, 4),
	}
}

func TestVersionStoreSequenceNumbersAreContiguous(t *testing.T) {
	store := NewVersionStore(nil)
	details := storeDetails()

	for i := 0; i < 5; i++ {
		entry := store.Append(details, model.StateDraft, "alice", model.RoleRequester, model.ActionRequestNew)
		assert.Equal(t, i, entry.Seq)
	}

	require.Equal(t, 5, store.Len())
	for i, entry := range store.All() {
		assert.Equal(t, i, entry.Seq)
	}
}

func TestVersionStoreAtAndLatest(t *testing.T) {
	store := NewVersionStore(nil)
	details := storeDetails()

	store.Append(details, model.StateDraft, "alice", model.RoleRequester, model.ActionRequestNew)
	store.Append(details, model.StatePendingApproval, "alice", model.RoleRequester, model.ActionSubmit)

	entry, ok := store.At(0)
	require.True(t, ok)
	assert.Equal(t, model.StateDraft, entry.State)

	entry, ok = store.At(1)
	require.True(t, ok)
	assert.Equal(t, model.StatePendingApproval, entry.State)

	_, ok = store.At(2)
	assert.False(t, ok)
	_, ok = store.At(-1)
	assert.False(t, ok)

	assert.Equal(t, 1, store.Latest().Seq)
	assert.Equal(t, model.StatePendingApproval, store.Latest().State)
}

func TestVersionStoreRecordsChangesAgainstPredecessor(t *testing.T) {
	store := NewVersionStore(nil)
	details := storeDetails()

	first := store.Append(details, model.StateDraft, "alice", model.RoleRequester, model.ActionRequestNew)
	assert.Empty(t, first.Changes)

	updated := details.Clone()
	updated.Direction = model.DirectionSell
	second := store.Append(updated, model.StateNeedsReapproval, "admin", model.RoleApprover, model.ActionRequestUpdate)

	require.Len(t, second.Changes, 1)
	assert.Equal(t, "direction", second.Changes[0].Field)
	assert.Equal(t, "BUY", second.Changes[0].Old)
	assert.Equal(t, "SELL", second.Changes[0].New)

	// A detail-preserving transition records no changes
	third := store.Append(updated, model.StateApproved, "alice", model.RoleRequester, model.ActionApproveUpdate)
	assert.Empty(t, third.Changes)
}

func TestVersionStoreAllReturnsIsolatedSnapshot(t *testing.T) {
	store := NewVersionStore(nil)
	details := storeDetails()

	store.Append(details, model.StateDraft, "alice", model.RoleRequester, model.ActionRequestNew)
	snapshot := store.All()

	store.Append(details, model.StatePendingApproval, "alice", model.RoleRequester, model.ActionSubmit)

	assert.Len(t, snapshot, 1)
	assert.Equal(t, 2, store.Len())
}

func TestVersionStoreSnapshotsAreImmutable(t *testing.T) {
	store := NewVersionStore(nil)
	details := storeDetails()

	store.Append(details, model.StateDraft, "alice", model.RoleRequester, model.ActionRequestNew)

	// Mutating the caller's slice after append must not leak into the entry
	details.Underlying[0] = "JPY"

	entry, ok := store.At(0)
	require.True(t, ok)
	assert.Equal(t, model.Currency("USD"), entry.Details.Underlying[0])
}

func TestVersionStoreTimestampsNeverMoveBackwards(t *testing.T) {
	times := []time.Time{
		time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), // clock jumped back
		time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC),
	}
	i := 0
	clock := func() time.Time {
		ts := times[i]
		i++
		return ts
	}

	store := NewVersionStore(clock)
	details := storeDetails()

	first := store.Append(details, model.StateDraft, "alice", model.RoleRequester, model.ActionRequestNew)
	second := store.Append(details, model.StatePendingApproval, "alice", model.RoleRequester, model.ActionSubmit)
	third := store.Append(details, model.StateApproved, "admin", model.RoleApprover, model.ActionApproveNew)

	assert.False(t, second.Timestamp.Before(first.Timestamp))
	assert.False(t, third.Timestamp.Before(second.Timestamp))
}
