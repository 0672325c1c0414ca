package service

import (
	"context"
	"log/slog"

	"zenithmedia_bot/internal/domain"
	"zenithmedia_bot/internal/logger"
)

// AuditStore persists audit events; satisfied by *repository.AuditRepository.
type AuditStore interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	ListRecent(ctx context.Context, limit int) ([]domain.AuditLog, error)
}

// AuditService records admin actions. Recording is best-effort: a storage
// failure is logged but never blocks the action being audited.
type AuditService struct {
	store AuditStore
	log   *slog.Logger
}

func NewAuditService(store AuditStore) *AuditService {
	return &AuditService{
		store: store,
		log:   logger.With("component", "audit"),
	}
}

func (s *AuditService) Audit(ctx context.Context, actorID int64, action, category string, details map[string]interface{}) {
	err := s.store.Create(ctx, &domain.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Category: category,
		Details:  details,
	})
	if err != nil {
		s.log.Error("audit write failed", "action", action, "actor_id", actorID, "error", err)
	}
}

func (s *AuditService) Recent(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListRecent(ctx, limit)
}
