package domain

import "time"

// PayoutStatus is append-only. A pending request may be retried; paid,
// rejected and failed are terminal.
type PayoutStatus string

const (
	PayoutStatusPending  PayoutStatus = "pending"
	PayoutStatusPaid     PayoutStatus = "paid"
	PayoutStatusRejected PayoutStatus = "rejected"
	PayoutStatusFailed   PayoutStatus = "failed"
)

// PayoutRequest tracks one logical transfer to a creator. SpendKey is derived
// from stable business identifiers and stays the same across retries, so the
// rail can deduplicate; exactly one request per spend key ever reaches paid.
type PayoutRequest struct {
	ID          int64        `db:"id" json:"id"`
	CreatorID   int64        `db:"creator_id" json:"creator_id"`
	VideoID     int64        `db:"video_id" json:"video_id,omitempty"` // 0 for balance-level payouts
	AmountKop   int64        `db:"amount_kop" json:"amount_kop"`
	AmountUSDT  float64      `db:"amount_usdt" json:"amount_usdt"`
	SpendKey    string       `db:"spend_key" json:"spend_key"`
	TransferRef string       `db:"transfer_ref" json:"transfer_ref,omitempty"`
	Status      PayoutStatus `db:"status" json:"status"`
	Note        string       `db:"note" json:"note,omitempty"`
	AdminID     int64        `db:"admin_id" json:"admin_id,omitempty"`
	LastAttempt *time.Time   `db:"last_attempt_at" json:"last_attempt_at,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	PaidAt      *time.Time   `db:"paid_at" json:"paid_at,omitempty"`
}
