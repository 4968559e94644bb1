package model

import (
	"time"
)

// VersionEntry is an immutable record of trade details plus resulting state at
// one point in the trade's history. Sequence numbers are monotonic per trade,
// starting at 0. Entries are never mutated after creation.
type VersionEntry struct {
	Seq       int          `json:"seq"`
	Details   TradeDetails `json:"details"`
	State     TradeState   `json:"state"`
	UserID    string       `json:"user_id"`
	Role      Role         `json:"role"`
	Action    Action       `json:"action"`
	Timestamp time.Time    `json:"timestamp"`
	Changes   []FieldDiff  `json:"changes,omitempty"`
}

// FieldDiff records one field whose value differs between two snapshots
type FieldDiff struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}
