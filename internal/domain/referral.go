package domain

import "time"

// ReferralLink is unique per (referrer, referred) pair; Earnings only grows.
type ReferralLink struct {
	ReferrerID int64     `db:"referrer_id" json:"referrer_id"`
	ReferredID int64     `db:"referred_id" json:"referred_id"`
	Earnings   int64     `db:"earnings" json:"earnings"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type ReferralStats struct {
	TotalReferrals int   `json:"total_referrals"`
	TotalEarned    int64 `json:"total_earned"`
}
