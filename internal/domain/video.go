package domain

import "time"

type Platform string

const (
	PlatformTikTok  Platform = "tiktok"
	PlatformYouTube Platform = "youtube"
)

func (p Platform) Valid() bool {
	return p == PlatformTikTok || p == PlatformYouTube
}

// VideoStatus transitions are one-directional:
// pending -> approved | rejected, approved -> paid_out (direct payout only).
type VideoStatus string

const (
	VideoStatusPending  VideoStatus = "pending"
	VideoStatusApproved VideoStatus = "approved"
	VideoStatusRejected VideoStatus = "rejected"
	VideoStatusPaidOut  VideoStatus = "paid_out"
)

// Video holds the engagement snapshot taken at submission time. Earnings are
// in kopecks; Credited marks that earnings were added to the owner's balance.
type Video struct {
	ID        int64       `db:"id" json:"id"`
	CreatorID int64       `db:"creator_id" json:"creator_id"`
	Platform  Platform    `db:"platform" json:"platform"`
	URL       string      `db:"url" json:"url"`
	Title     string      `db:"title" json:"title,omitempty"`
	Views     int64       `db:"views" json:"views"`
	Likes     int64       `db:"likes" json:"likes"`
	Comments  int64       `db:"comments" json:"comments"`
	Shares    int64       `db:"shares" json:"shares"`
	Status    VideoStatus `db:"status" json:"status"`
	Earnings  int64       `db:"earnings" json:"earnings"`
	Credited  bool        `db:"credited" json:"credited"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}
