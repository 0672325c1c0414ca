package domain

import "time"

type RewardKeyStatus string

const (
	RewardKeyAvailable RewardKeyStatus = "available"
	RewardKeyAssigned  RewardKeyStatus = "assigned"
	RewardKeyRevoked   RewardKeyStatus = "revoked"
)

// RewardKey is a scarce token granted to active creators. A key has at most
// one holder; the available -> assigned transition is a single conditional
// update.
type RewardKey struct {
	ID         int64           `db:"id" json:"id"`
	Value      string          `db:"key_value" json:"value"`
	Status     RewardKeyStatus `db:"status" json:"status"`
	AssignedTo int64           `db:"assigned_to" json:"assigned_to,omitempty"`
	AssignedAt *time.Time      `db:"assigned_at" json:"assigned_at,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
