// internal/adapters/places/fetcher.go
package places

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"placepulse/internal/adapters/observability"
	"placepulse/internal/domain"
)

type structuredSource interface {
	FetchReviews(ctx context.Context, placeID string, maxReviews int) ([]domain.RawReview, error)
	GetBusinessInfo(ctx context.Context, placeID string) (domain.Business, error)
}

type browserSource interface {
	ScrapeReviews(ctx context.Context, placeID string, maxReviews int) ([]domain.RawReview, error)
}

// Fetcher selects between the structured path and the browser fallback.
// Exactly one path's results populate a run: the fallback fires only when
// the structured error wraps domain.ErrAcquisition, and the structured path
// is never retried within the run. Any other error propagates so genuine
// bugs stay visible.
type Fetcher struct {
	client  structuredSource
	scraper browserSource
}

func NewFetcher(client structuredSource, scraper browserSource) *Fetcher {
	return &Fetcher{client: client, scraper: scraper}
}

func (f *Fetcher) FetchReviews(ctx context.Context, placeID string, maxReviews int) ([]domain.RawReview, error) {
	rs, err := f.client.FetchReviews(ctx, placeID, maxReviews)
	if err == nil {
		observability.ObserveIngest("structured", len(rs))
		log.Info().Str("place_id", placeID).Int("count", len(rs)).Msg("fetched reviews via structured path")
		return rs, nil
	}
	if !errors.Is(err, domain.ErrAcquisition) {
		return nil, err
	}

	log.Warn().Str("place_id", placeID).Err(err).Msg("structured path unusable, falling back to scraping")
	rs, err = f.scraper.ScrapeReviews(ctx, placeID, maxReviews)
	if err != nil {
		return nil, err
	}
	observability.ObserveIngest("fallback", len(rs))
	log.Info().Str("place_id", placeID).Int("count", len(rs)).Msg("fetched reviews via fallback path")
	return rs, nil
}

func (f *Fetcher) FetchBusinessInfo(ctx context.Context, placeID string) (domain.Business, error) {
	return f.client.GetBusinessInfo(ctx, placeID)
}
