package app

import (
	"context"
	"fmt"
	"time"

	"placepulse/internal/domain"
)

// QueryService serves the read paths with a redis read-model cache in
// front of the store. Entries live for the configured TTL or until the
// next ingest for the place invalidates them.
type QueryService struct {
	store    domain.ReviewStore
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(s domain.ReviewStore, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: s, cache: c, cacheTTL: ttl}
}

func statsKey(placeID string) string    { return "stats:" + placeID }
func businessKey(placeID string) string { return "business:" + placeID }

func reviewsKey(placeID string, f domain.ReviewFilter, limit, offset int) string {
	rating, sentiment := "all", "all"
	if f.Rating != nil {
		rating = fmt.Sprintf("%d", *f.Rating)
	}
	if f.Sentiment != nil {
		sentiment = *f.Sentiment
	}
	return fmt.Sprintf("reviews:%s:%s:%s:%d:%d", placeID, rating, sentiment, limit, offset)
}

func (s *QueryService) GetBusiness(ctx context.Context, placeID string) (domain.Business, error) {
	key := businessKey(placeID)
	var b domain.Business
	if ok, _ := s.cache.Get(ctx, key, &b); ok {
		return b, nil
	}
	b, err := s.store.GetBusiness(ctx, placeID)
	if err != nil {
		return domain.Business{}, err
	}
	_ = s.cache.Set(ctx, key, b, int(s.cacheTTL.Seconds()))
	return b, nil
}

func (s *QueryService) ListReviews(ctx context.Context, placeID string, f domain.ReviewFilter, limit, offset int) ([]domain.Review, error) {
	key := reviewsKey(placeID, f, limit, offset)
	var out []domain.Review
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rs, err := s.store.ListReviews(ctx, placeID, f, limit, offset)
	if err != nil {
		return nil, err
	}

	// copy to avoid aliasing the store's backing array into the cache
	cp := make([]domain.Review, len(rs))
	copy(cp, rs)
	_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	return cp, nil
}

func (s *QueryService) GetStats(ctx context.Context, placeID string) (domain.Stats, error) {
	// The store already caches the aggregate blob durably; redis only
	// spares it the lookup on hot paths.
	key := statsKey(placeID)
	var st domain.Stats
	if ok, _ := s.cache.Get(ctx, key, &st); ok {
		return st, nil
	}
	st, err := s.store.GetStats(ctx, placeID)
	if err != nil {
		return domain.Stats{}, err
	}
	_ = s.cache.Set(ctx, key, st, int(s.cacheTTL.Seconds()))
	return st, nil
}
