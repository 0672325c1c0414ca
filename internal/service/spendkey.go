package service

import (
	"fmt"

	"github.com/google/uuid"
)

// spendKeyNamespace seeds the deterministic spend-key derivation. Keys are a
// pure function of stable business identifiers, so every retry of the same
// logical payout presents the same key to the rail and deduplicates there.
var spendKeyNamespace = uuid.MustParse("9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d")

// VideoSpendKey identifies the direct payout for one video. A video is paid
// out at most once, so the video ID alone pins the key.
func VideoSpendKey(videoID int64) string {
	return uuid.NewSHA1(spendKeyNamespace, fmt.Appendf(nil, "video:%d", videoID)).String()
}

// BalanceSpendKey identifies one balance-level payout by the creator and
// their payout sequence number. The sequence advances only when a new
// logical payout is opened, never on retry.
func BalanceSpendKey(creatorID, seq int64) string {
	return uuid.NewSHA1(spendKeyNamespace, fmt.Appendf(nil, "balance:%d:%d", creatorID, seq)).String()
}
