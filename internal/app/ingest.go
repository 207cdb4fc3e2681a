package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"placepulse/internal/domain"
)

// keywordTopN is how many keywords each review carries after enrichment.
const keywordTopN = 5

// IngestionService runs one acquisition-enrichment-persistence pass per
// place. Runs for different places are independent: a fatal error here
// terminates only this place's run.
type IngestionService struct {
	fetcher  domain.ReviewFetcher
	enricher domain.Enricher
	store    domain.ReviewStore
	cache    domain.Cache
}

func NewIngestionService(f domain.ReviewFetcher, e domain.Enricher, s domain.ReviewStore, c domain.Cache) *IngestionService {
	return &IngestionService{fetcher: f, enricher: e, store: s, cache: c}
}

// IngestPlace fetches the business profile and up to maxReviews reviews,
// enriches each review, and upserts the batch. The profile fetch is fatal
// for the run; a degraded enrichment or a bad record never stops its
// neighbours. Returns the number of reviews upserted.
func (s *IngestionService) IngestPlace(ctx context.Context, placeID string, maxReviews int) (int, error) {
	biz, err := s.fetcher.FetchBusinessInfo(ctx, placeID)
	if err != nil {
		return 0, fmt.Errorf("business info for %s: %w", placeID, err)
	}
	if err := s.store.UpsertBusiness(ctx, biz); err != nil {
		// profile persistence is best-effort; the review batch is the payload
		log.Warn().Err(err).Str("place_id", placeID).Msg("business upsert failed, continuing")
	}

	raw, err := s.fetcher.FetchReviews(ctx, placeID, maxReviews)
	if err != nil {
		return 0, fmt.Errorf("fetch reviews for %s: %w", placeID, err)
	}

	batch := make([]domain.Review, 0, len(raw))
	for _, rr := range raw {
		// sentiment and keywords are attached together; the enricher
		// degrades internally instead of failing
		sent := s.enricher.AnalyzeText(rr.Text)
		kws := s.enricher.ExtractKeywords(rr.Text, keywordTopN)
		batch = append(batch, domain.Review{
			RawReview: rr,
			PlaceID:   placeID,
			Sentiment: &sent,
			Keywords:  kws,
		})
	}

	n, err := s.store.UpsertReviews(ctx, placeID, batch)
	if err != nil {
		return 0, fmt.Errorf("upsert reviews for %s: %w", placeID, err)
	}

	if s.cache != nil && len(batch) > 0 {
		s.invalidateReadModels(ctx, placeID)
	}

	log.Info().Str("place_id", placeID).Int("fetched", len(raw)).Int("upserted", n).Msg("ingest finished")
	return n, nil
}

// invalidateReadModels drops the redis entries the query layer may have
// built before this batch. The review-list key space is filter-dependent,
// so the common default variants are cleared.
func (s *IngestionService) invalidateReadModels(ctx context.Context, placeID string) {
	_ = s.cache.Del(ctx, statsKey(placeID))
	_ = s.cache.Del(ctx, businessKey(placeID))
	for _, lim := range []int{50, 100, 200} {
		_ = s.cache.Del(ctx, reviewsKey(placeID, domain.ReviewFilter{}, lim, 0))
	}
}
