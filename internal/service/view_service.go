package service

import (
	"context"
	"fmt"
	"time"

	"inkwell/internal/apperror"
	"inkwell/internal/logger"
	"inkwell/internal/model"
	"inkwell/internal/repository"
)

// ViewCache remembers which client already counted a view. SetNX reports whether the
// key was absent and is now stored.
type ViewCache interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
}

type ViewService interface {
	// RecordView counts one view of (v, id) from clientIP unless the same IP was
	// counted within the dedup window, and returns the item with fresh counters.
	RecordView(ctx context.Context, v *model.Variant, id uint, clientIP string) (model.ContentItem, error)
	// ResetStaleTodayViews zeroes today_views on items not viewed today.
	ResetStaleTodayViews(ctx context.Context) (int64, error)
	// RunDailyReset calls ResetStaleTodayViews after every UTC midnight until ctx ends.
	RunDailyReset(ctx context.Context)
}

type viewService struct {
	contentRepo repository.ContentRepository
	registry    *model.Registry
	cache       ViewCache
	window      time.Duration
	broadcaster Broadcaster
	now         func() time.Time
}

const viewCachePrefix = "view_count:"

// NewViewService builds the view counter. cache may be nil, in which case every view
// is counted.
func NewViewService(
	contentRepo repository.ContentRepository,
	registry *model.Registry,
	cache ViewCache,
	window time.Duration,
	broadcaster Broadcaster,
) ViewService {
	return &viewService{
		contentRepo: contentRepo,
		registry:    registry,
		cache:       cache,
		window:      window,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

func viewCacheKey(variant string, id uint, ip string) string {
	return fmt.Sprintf("%s%s:%d:%s", viewCachePrefix, variant, id, ip)
}

func (s *viewService) RecordView(ctx context.Context, v *model.Variant, id uint, clientIP string) (model.ContentItem, error) {
	if s.shouldCount(ctx, v.Tag, id, clientIP) {
		if err := s.contentRepo.IncrementViews(ctx, v, id, s.now()); err != nil {
			return nil, targetError(err, "increment views", v.Tag, id)
		}

		item, err := s.contentRepo.FindByID(ctx, v, id, true)
		if err != nil {
			return nil, targetError(err, "reload after view", v.Tag, id)
		}

		counters := item.GetCounters()
		broadcast(s.broadcaster, v.Tag, id, "views", map[string]int64{
			"total_views": counters.TotalViews,
			"today_views": counters.TodayViews,
		})
		return item, nil
	}

	item, err := s.contentRepo.FindByID(ctx, v, id, true)
	if err != nil {
		return nil, targetError(err, "load item", v.Tag, id)
	}
	return item, nil
}

// shouldCount claims the dedup key. Any cache failure counts the view.
func (s *viewService) shouldCount(ctx context.Context, tag string, id uint, ip string) bool {
	if s.cache == nil {
		return true
	}

	key := viewCacheKey(tag, id, ip)
	claimed, err := s.cache.SetNX(ctx, key, 1, s.window)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("view dedup cache unavailable, counting view")
		return true
	}
	return claimed
}

func (s *viewService) ResetStaleTodayViews(ctx context.Context) (int64, error) {
	dayStart := startOfDay(s.now())

	var total int64
	for _, v := range s.registry.All() {
		n, err := s.contentRepo.ResetStaleTodayViews(ctx, v, dayStart)
		if err != nil {
			return total, apperror.Storage("reset today views "+v.Tag, err)
		}
		total += n
	}
	return total, nil
}

func (s *viewService) RunDailyReset(ctx context.Context) {
	for {
		now := s.now().UTC()
		next := startOfDay(now).Add(24 * time.Hour)
		timer := time.NewTimer(next.Sub(now) + time.Second)

		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info().Msg("daily view reset stopped")
			return
		case <-timer.C:
			n, err := s.ResetStaleTodayViews(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("daily view reset failed")
				continue
			}
			logger.Info().Int64("rows", n).Msg("daily view reset done")
		}
	}
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
