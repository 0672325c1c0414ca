package service

import (
	"context"
	"errors"
	"log/slog"

	"zenithmedia_bot/internal/domain"
	"zenithmedia_bot/internal/logger"
	"zenithmedia_bot/internal/repository"
	"zenithmedia_bot/internal/videometa"
)

var ErrDuplicateVideo = errors.New("video url already submitted")

// SubmissionStore is the video surface the submission flow needs.
type SubmissionStore interface {
	Create(ctx context.Context, v *domain.Video) error
	URLExists(ctx context.Context, url string) (bool, error)
	ListByCreator(ctx context.Context, creatorID int64, limit int) ([]domain.Video, error)
	ListPendingModeration(ctx context.Context, limit int) ([]domain.Video, error)
}

// VideoService handles creator-side video submission. The engagement snapshot
// is taken once at submission time; moderation and earnings work from the
// snapshot even when live numbers move on.
type VideoService struct {
	videos   SubmissionStore
	creators CreatorStore
	parser   videometa.Parser
	log      *slog.Logger
}

func NewVideoService(videos SubmissionStore, creators CreatorStore, parser videometa.Parser) *VideoService {
	return &VideoService{
		videos:   videos,
		creators: creators,
		parser:   parser,
		log:      logger.With("component", "video"),
	}
}

// Submit registers a video for moderation. The URL is unique across all
// creators forever: a link once submitted can never earn twice, not even
// after rejection.
func (s *VideoService) Submit(ctx context.Context, creatorID int64, platform domain.Platform, videoURL string) (*domain.Video, error) {
	if !platform.Valid() {
		return nil, ErrInvalidPlatform
	}

	creator, err := s.creators.GetByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCreatorNotFound
		}
		return nil, err
	}
	if creator.Tier == domain.TierBanned {
		return nil, ErrCreatorBanned
	}

	// Cheap pre-check; the unique index is the real guard.
	exists, err := s.videos.URLExists(ctx, videoURL)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateVideo
	}

	meta, err := s.parser.Fetch(ctx, string(platform), videoURL)
	if err != nil {
		return nil, err
	}

	video := &domain.Video{
		CreatorID: creatorID,
		Platform:  platform,
		URL:       videoURL,
		Title:     meta.Title,
		Views:     meta.Views,
		Likes:     meta.Likes,
		Comments:  meta.Comments,
		Shares:    meta.Shares,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateVideo
		}
		return nil, err
	}

	s.log.Info("video submitted",
		"video_id", video.ID,
		"creator_id", creatorID,
		"platform", platform,
		"views", video.Views,
	)
	return video, nil
}

// ListByCreator returns the creator's recent submissions.
func (s *VideoService) ListByCreator(ctx context.Context, creatorID int64, limit int) ([]domain.Video, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.videos.ListByCreator(ctx, creatorID, limit)
}

// ListPendingModeration returns the moderation queue, oldest first.
func (s *VideoService) ListPendingModeration(ctx context.Context, limit int) ([]domain.Video, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.videos.ListPendingModeration(ctx, limit)
}
