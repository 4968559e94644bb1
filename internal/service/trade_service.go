package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/trade-approval/internal/diff"
	"github.com/yourorg/trade-approval/internal/model"
	"github.com/yourorg/trade-approval/internal/repository"
	"github.com/yourorg/trade-approval/internal/validator"
	"github.com/yourorg/trade-approval/internal/workflow"
)

const publishTimeout = 5 * time.Second

// AuditPublisher defines the interface for publishing committed versions to
// the audit topic
type AuditPublisher interface {
	PublishVersion(ctx context.Context, tradeID string, entry model.VersionEntry) error
}

// TradeService runs the approval workflow: every mutation passes the
// permission, ownership, transition and validation checks before anything is
// committed, all under the trade's lock so no partial update is observable.
type TradeService struct {
	repo      *repository.TradeRepository
	publisher AuditPublisher
	logger    *zap.Logger
	clock     func() time.Time
}

// NewTradeService creates a new trade service. The publisher may be nil, in
// which case audit publishing is skipped.
func NewTradeService(repo *repository.TradeRepository, publisher AuditPublisher, logger *zap.Logger) *TradeService {
	return &TradeService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		clock:     time.Now,
	}
}

// CreateDraft validates the submitted terms and creates a trade in DRAFT
// state with its sequence 0 version. The trade date is assigned by the
// engine, not the caller.
func (s *TradeService) CreateDraft(ctx context.Context, userID string, input model.DraftCreate) (model.Trade, model.VersionEntry, error) {
	details := model.TradeDetails{
		TradingEntity:    input.TradingEntity,
		Counterparty:     input.Counterparty,
		Direction:        input.Direction,
		Style:            model.StyleForward,
		NotionalCurrency: input.NotionalCurrency,
		NotionalAmount:   input.NotionalAmount,
		Underlying:       input.Underlying,
		TradeDate:        s.clock().UTC(),
		ValueDate:        input.ValueDate,
		DeliveryDate:     input.DeliveryDate,
	}

	if err := validator.ValidateDetails(details, model.StateDraft); err != nil {
		return model.Trade{}, model.VersionEntry{}, err
	}

	trade, entry, err := s.repo.CreateDraft(ctx, userID, details)
	if err != nil {
		return model.Trade{}, model.VersionEntry{}, err
	}

	s.publishAudit(trade.ID, entry)
	return trade, entry, nil
}

// SubmitAction applies one action to a trade. The checks run in a fixed
// order, each failing with its own error kind: permission (Unauthorized),
// ownership (Unauthorized), transition (IllegalTransition), then details
// validation (ValidationError). Only when all pass is a version appended and
// the current state updated, as one atomic operation under the trade's lock.
func (s *TradeService) SubmitAction(ctx context.Context, tradeID, userID string, role model.Role, submission model.ActionSubmission) (model.VersionEntry, error) {
	if !role.IsValid() {
		return model.VersionEntry{}, &model.UnauthorizedError{Role: role, Action: submission.Action, Reason: "unknown role"}
	}
	if !submission.Action.IsValid() {
		return model.VersionEntry{}, &model.ValidationError{Field: "action", Reason: fmt.Sprintf("unknown action %q", string(submission.Action))}
	}

	entry, err := s.repo.Update(ctx, tradeID, func(trade *model.Trade, versions *repository.VersionStore) (model.VersionEntry, error) {
		if err := workflow.CheckPermission(role, submission.Action); err != nil {
			return model.VersionEntry{}, err
		}
		if err := workflow.CheckOwnership(role, userID, trade.RequesterID, submission.Action); err != nil {
			return model.VersionEntry{}, err
		}

		next, err := workflow.NextState(trade.State, submission.Action)
		if err != nil {
			return model.VersionEntry{}, err
		}

		details, err := resolveDetails(trade.Details, submission)
		if err != nil {
			return model.VersionEntry{}, err
		}
		if err := validator.ValidateDetails(details, next); err != nil {
			return model.VersionEntry{}, err
		}

		entry := versions.Append(details, next, userID, role, submission.Action)
		trade.State = next
		trade.Details = details.Clone()
		return entry, nil
	})
	if err != nil {
		return model.VersionEntry{}, err
	}

	s.logger.Info("trade action applied",
		zap.String("trade_id", tradeID),
		zap.String("user_id", userID),
		zap.String("role", string(role)),
		zap.String("action", string(submission.Action)),
		zap.String("state", string(entry.State)),
		zap.Int("seq", entry.Seq),
	)

	s.publishAudit(tradeID, entry)
	return entry, nil
}

// resolveDetails produces the snapshot an action commits. REQUEST_UPDATE
// replaces the mutable terms, BOOK stamps the strike onto the latest terms,
// every other action carries the current snapshot forward unchanged.
func resolveDetails(current model.TradeDetails, submission model.ActionSubmission) (model.TradeDetails, error) {
	switch submission.Action {
	case model.ActionRequestUpdate:
		if submission.Details == nil {
			return model.TradeDetails{}, &model.ValidationError{Field: "details", Reason: "are required to request an update"}
		}
		if submission.Strike != nil {
			return model.TradeDetails{}, &model.ValidationError{Field: "strike", Reason: "cannot be set by an update request"}
		}
		return submission.Details.Apply(current), nil
	case model.ActionBook:
		if submission.Details != nil {
			return model.TradeDetails{}, &model.ValidationError{Field: "details", Reason: "cannot be changed while booking"}
		}
		if submission.Strike == nil {
			return model.TradeDetails{}, &model.ValidationError{Field: "strike", Reason: "is required to book a trade"}
		}
		next := current.Clone()
		strike := *submission.Strike
		next.Strike = &strike
		return next, nil
	default:
		if submission.Details != nil {
			return model.TradeDetails{}, &model.ValidationError{Field: "details", Reason: fmt.Sprintf("cannot accompany action %s", submission.Action)}
		}
		if submission.Strike != nil {
			return model.TradeDetails{}, &model.ValidationError{Field: "strike", Reason: fmt.Sprintf("cannot accompany action %s", submission.Action)}
		}
		return current.Clone(), nil
	}
}

// GetTrade returns the current trade record
func (s *TradeService) GetTrade(ctx context.Context, tradeID string) (model.Trade, error) {
	var trade model.Trade
	err := s.repo.View(ctx, tradeID, func(t model.Trade, _ *repository.VersionStore) error {
		trade = t
		return nil
	})
	return trade, err
}

// GetHistory returns one page of the trade's ordered version history plus the
// total entry count
func (s *TradeService) GetHistory(ctx context.Context, tradeID string, page, limit int) ([]model.VersionEntry, int, error) {
	page, limit = clampPagination(page, limit)

	var entries []model.VersionEntry
	err := s.repo.View(ctx, tradeID, func(_ model.Trade, versions *repository.VersionStore) error {
		entries = versions.All()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	total := len(entries)
	offset := (page - 1) * limit
	if offset >= total {
		return []model.VersionEntry{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return entries[offset:end], total, nil
}

// GetVersion returns the point-in-time snapshot with the given sequence number
func (s *TradeService) GetVersion(ctx context.Context, tradeID string, seq int) (model.VersionEntry, error) {
	var entry model.VersionEntry
	err := s.repo.View(ctx, tradeID, func(_ model.Trade, versions *repository.VersionStore) error {
		found, ok := versions.At(seq)
		if !ok {
			return model.ErrVersionNotFound
		}
		entry = found
		return nil
	})
	return entry, err
}

// GetDiff computes the field-level difference between two versions of a trade
func (s *TradeService) GetDiff(ctx context.Context, tradeID string, from, to int) ([]model.FieldDiff, error) {
	var changes []model.FieldDiff
	err := s.repo.View(ctx, tradeID, func(_ model.Trade, versions *repository.VersionStore) error {
		a, ok := versions.At(from)
		if !ok {
			return model.ErrVersionNotFound
		}
		b, ok := versions.At(to)
		if !ok {
			return model.ErrVersionNotFound
		}
		changes = diff.Compute(a.Details, b.Details)
		return nil
	})
	return changes, err
}

// ListTrades returns one page of current trade records
func (s *TradeService) ListTrades(ctx context.Context, page, limit int) ([]model.Trade, int, error) {
	page, limit = clampPagination(page, limit)
	return s.repo.List(ctx, page, limit)
}

// publishAudit sends the committed entry to the audit topic without blocking
// the caller. Failures are logged; the committed result is never affected.
func (s *TradeService) publishAudit(tradeID string, entry model.VersionEntry) {
	if s.publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.publisher.PublishVersion(ctx, tradeID, entry); err != nil {
			s.logger.Error("failed to publish audit event",
				zap.String("trade_id", tradeID),
				zap.Int("seq", entry.Seq),
				zap.Error(err),
			)
		}
	}()
}

// clampPagination applies the service-wide pagination bounds
func clampPagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}
