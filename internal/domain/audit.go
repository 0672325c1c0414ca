package domain

import "time"

// Audit actions
const (
	AuditActionSetBalance   = "set_balance"
	AuditActionSetTier      = "set_tier"
	AuditActionApproveVideo = "approve_video"
	AuditActionRejectVideo  = "reject_video"
	AuditActionRetryPayout  = "retry_payout"
	AuditActionRejectPayout = "reject_payout"
	AuditActionUploadKeys   = "upload_keys"
	AuditActionRevokeKey    = "revoke_key"
)

// Audit categories
const (
	AuditCategoryLedger     = "ledger"
	AuditCategoryModeration = "moderation"
	AuditCategoryPayout     = "payout"
	AuditCategoryRewards    = "rewards"
)

type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	ActorID   int64                  `db:"actor_id" json:"actor_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}
