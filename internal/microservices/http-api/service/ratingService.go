package service

import (
	"context"
	"log/slog"

	"yamdb/internal/cache"
	"yamdb/internal/microservices/http-api/repository"
)

// RatingService derives title ratings from review scores. A title without
// reviews has a nil rating.
type RatingService interface {
	Rating(ctx context.Context, titleID int64) (*float64, error)
	Ratings(ctx context.Context, titleIDs []int64) (map[int64]*float64, error)
	Invalidate(ctx context.Context, titleID int64)
}

type ratingService struct {
	reviewRepo repository.ReviewRepository
	cache      *cache.RatingCache
	logger     *slog.Logger
}

// NewRatingService creates the service; a nil cache computes every rating
// from the database.
func NewRatingService(reviewRepo repository.ReviewRepository, ratingCache *cache.RatingCache, logger *slog.Logger) RatingService {
	return &ratingService{
		reviewRepo: reviewRepo,
		cache:      ratingCache,
		logger:     logger,
	}
}

func (s *ratingService) Rating(ctx context.Context, titleID int64) (*float64, error) {
	ratings, err := s.Ratings(ctx, []int64{titleID})
	if err != nil {
		return nil, err
	}
	return ratings[titleID], nil
}

// Ratings returns an entry for every id in titleIDs.
func (s *ratingService) Ratings(ctx context.Context, titleIDs []int64) (map[int64]*float64, error) {
	// versions are read before the averages so a concurrent Invalidate
	// makes the later SetMany a no-op for that title
	out, versions, err := s.cache.GetMany(ctx, titleIDs)
	if err != nil {
		// cache trouble must not fail reads
		s.logger.WarnContext(ctx, "rating_cache_read_failed", "error", err)
		out = make(map[int64]*float64, len(titleIDs))
	}

	var missing []int64
	for _, id := range titleIDs {
		if _, ok := out[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	averages, err := s.reviewRepo.AverageScores(ctx, missing)
	if err != nil {
		return nil, err
	}

	computed := make(map[int64]*float64, len(missing))
	for _, id := range missing {
		if avg, ok := averages[id]; ok {
			v := avg
			computed[id] = &v
		} else {
			computed[id] = nil
		}
		out[id] = computed[id]
	}

	if err := s.cache.SetMany(ctx, computed, versions); err != nil {
		s.logger.WarnContext(ctx, "rating_cache_write_failed", "error", err)
	}
	return out, nil
}

// Invalidate drops the cached rating after a review of titleID changes.
func (s *ratingService) Invalidate(ctx context.Context, titleID int64) {
	if err := s.cache.Invalidate(ctx, titleID); err != nil {
		s.logger.WarnContext(ctx, "rating_cache_invalidate_failed", "title_id", titleID, "error", err)
	}
}
