package domain

import "time"

// Tier controls what happens when a video is approved: gold creators are paid
// out immediately, bronze creators accumulate balance until they request a
// payout, banned creators earn nothing.
type Tier string

const (
	TierBronze Tier = "bronze"
	TierGold   Tier = "gold"
	TierBanned Tier = "banned"
)

func (t Tier) Valid() bool {
	return t == TierBronze || t == TierGold || t == TierBanned
}

// Creator is a monetized content author. Balance and TotalWithdrawn are in
// kopecks and are mutated only through the ledger.
type Creator struct {
	ID               int64      `db:"id" json:"id"`
	TgID             int64      `db:"tg_id" json:"tg_id"`
	Username         string     `db:"username" json:"username"`
	FullName         string     `db:"full_name" json:"full_name"`
	Tier             Tier       `db:"tier" json:"tier"`
	Balance          int64      `db:"balance" json:"balance"`
	ReferrerID       int64      `db:"referrer_id" json:"referrer_id,omitempty"` // 0 when not referred
	ReferralEarnings int64      `db:"referral_earnings" json:"referral_earnings"`
	TotalWithdrawn   int64      `db:"total_withdrawn" json:"total_withdrawn"`
	PayoutSeq        int64      `db:"payout_seq" json:"-"`
	LastRewardAt     *time.Time `db:"last_reward_at" json:"last_reward_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}
