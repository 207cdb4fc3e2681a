package domain

import "context"

// ReviewStore owns all persisted state: businesses, reviews and the stats
// cache. Nothing else mutates these tables.
type ReviewStore interface {
	// Write paths
	UpsertBusiness(ctx context.Context, b Business) error
	UpsertReviews(ctx context.Context, placeID string, rs []Review) (int, error)

	// Read paths
	GetBusiness(ctx context.Context, placeID string) (Business, error)
	ListReviews(ctx context.Context, placeID string, f ReviewFilter, limit, offset int) ([]Review, error)
	GetStats(ctx context.Context, placeID string) (Stats, error)
}

// ReviewFetcher acquires raw reviews and business metadata for a place.
type ReviewFetcher interface {
	FetchReviews(ctx context.Context, placeID string, maxReviews int) ([]RawReview, error)
	FetchBusinessInfo(ctx context.Context, placeID string) (Business, error)
}

// Enricher derives sentiment and keywords from review text. It never fails:
// unusable input degrades to the neutral default / an empty list.
type Enricher interface {
	AnalyzeText(text string) SentimentResult
	ExtractKeywords(text string, topN int) []string
}

// Cache is the read-model cache used by the query layer.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
