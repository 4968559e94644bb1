package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/trade-approval/internal/model"
)

// TradeRepository owns the trade-id to trade mapping and is the concurrency
// boundary for all reads and writes. Each trade carries its own RWMutex so
// mutations on one trade never contend with traffic on another; the map-level
// lock only guards insertion and lookup. Ids are never removed, trades only
// reach a terminal state.
type TradeRepository struct {
	mu     sync.RWMutex
	trades map[string]*tradeRecord
	logger *zap.Logger
	clock  func() time.Time
	newID  func() string
}

// tradeRecord pairs a trade with its version log under one lock
type tradeRecord struct {
	mu       sync.RWMutex
	trade    model.Trade
	versions *VersionStore
}

// NewTradeRepository creates an empty in-memory trade repository
func NewTradeRepository(logger *zap.Logger) *TradeRepository {
	return &TradeRepository{
		trades: make(map[string]*tradeRecord),
		logger: logger,
		clock:  time.Now,
		newID:  uuid.NewString,
	}
}

// CreateDraft inserts a new trade in DRAFT state and appends its sequence 0
// entry as a single atomic step. Details must already be validated.
func (r *TradeRepository) CreateDraft(ctx context.Context, userID string, details model.TradeDetails) (model.Trade, model.VersionEntry, error) {
	id := r.newID()
	now := r.clock().UTC()

	record := &tradeRecord{
		trade: model.Trade{
			ID:          id,
			RequesterID: userID,
			State:       model.StateDraft,
			Details:     details.Clone(),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		versions: NewVersionStore(r.clock),
	}
	entry := record.versions.Append(details, model.StateDraft, userID, model.RoleRequester, model.ActionRequestNew)
	record.trade.UpdatedAt = entry.Timestamp

	r.mu.Lock()
	r.trades[id] = record
	r.mu.Unlock()

	r.logger.Info("trade draft created",
		zap.String("trade_id", id),
		zap.String("requester_id", userID),
	)

	return record.trade, entry, nil
}

// Update runs fn while holding the trade's write lock. The trade and version
// log passed to fn may be mutated; if fn returns an error the trade is left
// exactly as fn left it, so fn must not mutate before all checks pass.
func (r *TradeRepository) Update(ctx context.Context, id string, fn func(trade *model.Trade, versions *VersionStore) (model.VersionEntry, error)) (model.VersionEntry, error) {
	record, err := r.lookup(id)
	if err != nil {
		return model.VersionEntry{}, err
	}

	record.mu.Lock()
	defer record.mu.Unlock()

	entry, err := fn(&record.trade, record.versions)
	if err != nil {
		return model.VersionEntry{}, err
	}
	record.trade.UpdatedAt = entry.Timestamp
	return entry, nil
}

// View runs fn while holding the trade's read lock. Concurrent View calls on
// one trade proceed in parallel; a writer waits for readers to drain.
func (r *TradeRepository) View(ctx context.Context, id string, fn func(trade model.Trade, versions *VersionStore) error) error {
	record, err := r.lookup(id)
	if err != nil {
		return err
	}

	record.mu.RLock()
	defer record.mu.RUnlock()

	return fn(record.trade, record.versions)
}

// List returns one page of current trade records ordered by creation time
// then id, plus the total count.
func (r *TradeRepository) List(ctx context.Context, page, limit int) ([]model.Trade, int, error) {
	r.mu.RLock()
	records := make([]*tradeRecord, 0, len(r.trades))
	for _, record := range r.trades {
		records = append(records, record)
	}
	r.mu.RUnlock()

	trades := make([]model.Trade, 0, len(records))
	for _, record := range records {
		record.mu.RLock()
		trades = append(trades, record.trade)
		record.mu.RUnlock()
	}

	sort.Slice(trades, func(i, j int) bool {
		if !trades[i].CreatedAt.Equal(trades[j].CreatedAt) {
			return trades[i].CreatedAt.Before(trades[j].CreatedAt)
		}
		return trades[i].ID < trades[j].ID
	})

	total := len(trades)
	offset := (page - 1) * limit
	if offset >= total {
		return []model.Trade{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return trades[offset:end], total, nil
}

// lookup finds the record for a trade id under the map's read lock
func (r *TradeRepository) lookup(id string) (*tradeRecord, error) {
	r.mu.RLock()
	record, ok := r.trades[id]
	r.mu.RUnlock()
	if !ok {
		return nil, model.ErrTradeNotFound
	}
	return record, nil
}
