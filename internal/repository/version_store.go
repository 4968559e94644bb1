package repository

import (
	"time"

	"github.com/yourorg/trade-approval/internal/diff"
	"github.com/yourorg/trade-approval/internal/model"
)

// VersionStore is the append-only version log for a single trade. Entries are
// assigned contiguous sequence numbers starting at 0 and are never mutated or
// deleted, so readers holding a snapshot observe a consistent prefix of the
// history regardless of later appends.
//
// The store itself is not synchronized; the owning trade record's lock guards
// every call.
type VersionStore struct {
	entries []model.VersionEntry
	clock   func() time.Time
}

// NewVersionStore creates an empty version log using the given clock
func NewVersionStore(clock func() time.Time) *VersionStore {
	if clock == nil {
		clock = time.Now
	}
	return &VersionStore{clock: clock}
}

// Append commits a new snapshot to the log and returns the entry. The entry
// records the field diff against its predecessor. Timestamps never move
// backwards even if the wall clock does.
func (s *VersionStore) Append(details model.TradeDetails, state model.TradeState, userID string, role model.Role, action model.Action) model.VersionEntry {
	ts := s.clock().UTC()
	var changes []model.FieldDiff
	if len(s.entries) > 0 {
		last := s.entries[len(s.entries)-1]
		if ts.Before(last.Timestamp) {
			ts = last.Timestamp
		}
		changes = diff.Compute(last.Details, details)
	}

	entry := model.VersionEntry{
		Seq:       len(s.entries),
		Details:   details.Clone(),
		State:     state,
		UserID:    userID,
		Role:      role,
		Action:    action,
		Timestamp: ts,
		Changes:   changes,
	}
	s.entries = append(s.entries, entry)
	return entry
}

// At returns the entry with the given sequence number
func (s *VersionStore) At(seq int) (model.VersionEntry, bool) {
	if seq < 0 || seq >= len(s.entries) {
		return model.VersionEntry{}, false
	}
	return s.entries[seq], true
}

// Latest returns the most recent entry. The log is never empty once a trade
// exists: creation appends sequence 0.
func (s *VersionStore) Latest() model.VersionEntry {
	return s.entries[len(s.entries)-1]
}

// Len returns the number of entries in the log
func (s *VersionStore) Len() int {
	return len(s.entries)
}

// All returns a snapshot copy of the ordered history. The copy is finite,
// restartable and safe to iterate after the trade's lock is released.
func (s *VersionStore) All() []model.VersionEntry {
	out := make([]model.VersionEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
