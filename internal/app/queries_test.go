package app_test

import (
	"context"
	"testing"
	"time"

	"placepulse/internal/app"
	"placepulse/internal/domain"
)

// ---- fakes ----

type fakeQueryStore struct {
	biz   domain.Business
	revs  []domain.Review
	stats domain.Stats
}

func (f *fakeQueryStore) UpsertBusiness(ctx context.Context, b domain.Business) error { return nil }
func (f *fakeQueryStore) UpsertReviews(ctx context.Context, placeID string, rs []domain.Review) (int, error) {
	return len(rs), nil
}
func (f *fakeQueryStore) GetBusiness(ctx context.Context, placeID string) (domain.Business, error) {
	return f.biz, nil
}
func (f *fakeQueryStore) ListReviews(ctx context.Context, placeID string, q domain.ReviewFilter, limit, offset int) ([]domain.Review, error) {
	return f.revs, nil
}
func (f *fakeQueryStore) GetStats(ctx context.Context, placeID string) (domain.Stats, error) {
	return f.stats, nil
}

type memCache struct{ store map[string]any }

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.Business:
		*d = v.(domain.Business)
	case *domain.Stats:
		*d = v.(domain.Stats)
	case *[]domain.Review:
		*d = v.([]domain.Review)
	}
	return true, nil
}

func (c *memCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *memCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

// ---- tests ----

func TestGetStats_CacheMissThenHit(t *testing.T) {
	store := &fakeQueryStore{stats: domain.Stats{PlaceID: "E1", TotalReviews: 9, AverageRating: 4.1}}
	cache := &memCache{}
	q := app.NewQueryService(store, cache, 10*time.Minute)

	st, err := q.GetStats(context.Background(), "E1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if st.TotalReviews != 9 {
		t.Fatalf("unexpected stats: %+v", st)
	}

	// mutate the store to prove the second read comes from cache
	store.stats.TotalReviews = 999

	st2, err := q.GetStats(context.Background(), "E1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if st2.TotalReviews != 9 {
		t.Fatalf("expected cached stats, got %+v", st2)
	}
}

func TestListReviews_CacheKeyIncludesFilters(t *testing.T) {
	store := &fakeQueryStore{revs: []domain.Review{
		{RawReview: domain.RawReview{SourceID: "r1", Author: "Ana", Rating: 5}, PlaceID: "E1"},
	}}
	cache := &memCache{}
	q := app.NewQueryService(store, cache, 10*time.Minute)

	rating := 5
	out, err := q.ListReviews(context.Background(), "E1", domain.ReviewFilter{Rating: &rating}, 10, 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 1 || out[0].Author != "Ana" {
		t.Fatalf("unexpected reviews: %+v", out)
	}

	// a different filter is a different key, so it must hit the store again
	store.revs = []domain.Review{
		{RawReview: domain.RawReview{SourceID: "r2", Author: "Ben", Rating: 1}, PlaceID: "E1"},
	}
	other := 1
	out2, err := q.ListReviews(context.Background(), "E1", domain.ReviewFilter{Rating: &other}, 10, 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out2) != 1 || out2[0].Author != "Ben" {
		t.Fatalf("expected fresh result for new filter, got %+v", out2)
	}

	// the first key still serves the old cached value
	out3, _ := q.ListReviews(context.Background(), "E1", domain.ReviewFilter{Rating: &rating}, 10, 0)
	if len(out3) != 1 || out3[0].Author != "Ana" {
		t.Fatalf("expected cached result, got %+v", out3)
	}
}

func TestGetBusiness_Cached(t *testing.T) {
	store := &fakeQueryStore{biz: domain.Business{PlaceID: "E1", Name: "Blue Fern Cafe"}}
	cache := &memCache{}
	q := app.NewQueryService(store, cache, 10*time.Minute)

	b, err := q.GetBusiness(context.Background(), "E1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if b.Name != "Blue Fern Cafe" {
		t.Fatalf("unexpected business: %+v", b)
	}

	store.biz.Name = "SHOULD NOT SEE THIS"
	b2, _ := q.GetBusiness(context.Background(), "E1")
	if b2.Name != "Blue Fern Cafe" {
		t.Fatalf("expected cached name, got %s", b2.Name)
	}
}
