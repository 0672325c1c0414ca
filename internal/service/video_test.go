package service

import (
	"context"
	"errors"
	"testing"

	"zenithmedia_bot/internal/domain"
	"zenithmedia_bot/internal/videometa"
)

type fakeParser struct {
	meta *videometa.Engagement
	err  error
}

func (p fakeParser) Fetch(ctx context.Context, platform, videoURL string) (*videometa.Engagement, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.meta, nil
}

func newVideoService(store *memStore, parser videometa.Parser) *VideoService {
	return NewVideoService(memVideos{store}, store, parser)
}

func TestSubmitSnapshotsEngagement(t *testing.T) {
	store := newMemStore()
	store.addCreator(&domain.Creator{ID: 1, TgID: 101, Tier: domain.TierBronze})
	svc := newVideoService(store, fakeParser{meta: &videometa.Engagement{
		Title: "clip", Author: "@a", Views: 15000, Likes: 900, Comments: 30,
	}})

	video, err := svc.Submit(context.Background(), 1, domain.PlatformTikTok, "https://tiktok.com/@a/video/1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if video.Views != 15000 || video.Title != "clip" {
		t.Fatalf("video = %+v; snapshot not taken", video)
	}
	if video.Status != domain.VideoStatusPending {
		t.Fatalf("status = %s; want pending", video.Status)
	}
}

func TestSubmitRejectsDuplicateURL(t *testing.T) {
	store := newMemStore()
	store.addCreator(&domain.Creator{ID: 1, TgID: 101, Tier: domain.TierBronze})
	store.addCreator(&domain.Creator{ID: 2, TgID: 102, Tier: domain.TierBronze})
	svc := newVideoService(store, fakeParser{meta: &videometa.Engagement{Views: 100}})
	ctx := context.Background()

	const url = "https://tiktok.com/@a/video/1"
	if _, err := svc.Submit(ctx, 1, domain.PlatformTikTok, url); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	// Another creator resubmitting the same link is still a duplicate.
	if _, err := svc.Submit(ctx, 2, domain.PlatformTikTok, url); !errors.Is(err, ErrDuplicateVideo) {
		t.Fatalf("err = %v; want ErrDuplicateVideo", err)
	}
}

func TestSubmitChecks(t *testing.T) {
	store := newMemStore()
	store.addCreator(&domain.Creator{ID: 1, TgID: 101, Tier: domain.TierBanned})
	svc := newVideoService(store, fakeParser{meta: &videometa.Engagement{Views: 100}})
	ctx := context.Background()

	if _, err := svc.Submit(ctx, 1, "vimeo", "https://vimeo.com/1"); !errors.Is(err, ErrInvalidPlatform) {
		t.Fatalf("platform err = %v; want ErrInvalidPlatform", err)
	}
	if _, err := svc.Submit(ctx, 1, domain.PlatformTikTok, "https://tiktok.com/@a/video/1"); !errors.Is(err, ErrCreatorBanned) {
		t.Fatalf("banned err = %v; want ErrCreatorBanned", err)
	}
	if _, err := svc.Submit(ctx, 404, domain.PlatformTikTok, "https://tiktok.com/@a/video/1"); !errors.Is(err, ErrCreatorNotFound) {
		t.Fatalf("unknown creator err = %v; want ErrCreatorNotFound", err)
	}
}

func TestSubmitParserVerdictPassedThrough(t *testing.T) {
	store := newMemStore()
	store.addCreator(&domain.Creator{ID: 1, TgID: 101, Tier: domain.TierBronze})
	svc := newVideoService(store, fakeParser{err: &videometa.RejectedError{Reason: videometa.ReasonWrongAuthor}})

	_, err := svc.Submit(context.Background(), 1, domain.PlatformTikTok, "https://tiktok.com/@b/video/2")
	var rejected *videometa.RejectedError
	if !errors.As(err, &rejected) || rejected.Reason != videometa.ReasonWrongAuthor {
		t.Fatalf("err = %v; want wrong_author rejection", err)
	}
}
