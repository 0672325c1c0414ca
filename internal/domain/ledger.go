package domain

import "time"

// Ledger entry kinds. Every balance mutation leaves exactly one entry.
const (
	LedgerKindVideoEarnings      = "video_earnings"
	LedgerKindReferralCommission = "referral_commission"
	LedgerKindWithdrawal         = "withdrawal"
	LedgerKindDirectPayout       = "direct_payout"
	LedgerKindAdminCorrection    = "admin_correction"
)

type LedgerEntry struct {
	ID        int64     `db:"id" json:"id"`
	CreatorID int64     `db:"creator_id" json:"creator_id"`
	Kind      string    `db:"kind" json:"kind"`
	AmountKop int64     `db:"amount_kop" json:"amount_kop"` // signed: credits positive, debits negative
	RefID     int64     `db:"ref_id" json:"ref_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
