//go:build integration || !unit

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "placepulse/internal/adapters/httpserver"
	redisad "placepulse/internal/adapters/redis"
	"placepulse/internal/app"
	"placepulse/internal/domain"
	"placepulse/internal/enrich"
	mysqlrepo "placepulse/internal/storage/mysql"
)

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// cannedFetcher stands in for the Places API so the test stays hermetic.
type cannedFetcher struct {
	biz     domain.Business
	reviews []domain.RawReview
}

func (c *cannedFetcher) FetchBusinessInfo(ctx context.Context, placeID string) (domain.Business, error) {
	return c.biz, nil
}

func (c *cannedFetcher) FetchReviews(ctx context.Context, placeID string, max int) ([]domain.RawReview, error) {
	if max < len(c.reviews) {
		return c.reviews[:max], nil
	}
	return c.reviews, nil
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=placepulse",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/placepulse?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC", hostPort)

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestHTTP_EndToEnd_FetchThenRead(t *testing.T) {
	db := startMySQL(t)
	applyMigrations(t, db)

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	repo := mysqlrepo.New(db)
	analyzer := enrich.NewAnalyzer(enrich.DefaultThresholds())
	fetcher := &cannedFetcher{
		biz: domain.Business{PlaceID: "E2E1", Name: "E2E Diner", Address: "1 Test Way", Rating: 4.5, TotalRatings: 2},
		reviews: []domain.RawReview{
			{SourceID: "r1", Author: "Ann", Rating: 5, Text: "Absolutely wonderful food and lovely service.", PostedAt: time.Now().Add(-48 * time.Hour).Unix(), Language: "en"},
			{SourceID: "r2", Author: "Bob", Rating: 1, Text: "Terrible food, horrible wait.", PostedAt: time.Now().Add(-24 * time.Hour).Unix(), Language: "en"},
		},
	}

	ing := app.NewIngestionService(fetcher, analyzer, repo, cache)
	q := app.NewQueryService(repo, cache, time.Minute)

	srv := server.New()
	srv.MountHandlers(&server.Handlers{Q: q, I: ing, MaxReviews: 100})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	// trigger the full pipeline
	res, err := http.Post(ts.URL+"/v1/places/E2E1/fetch", "application/json", nil)
	if err != nil {
		t.Fatalf("POST fetch: %v", err)
	}
	var fr struct {
		PlaceID  string `json:"place_id"`
		Upserted int    `json:"reviews_upserted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&fr); err != nil {
		t.Fatalf("decode fetch response: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK || fr.Upserted != 2 {
		t.Fatalf("fetch: status %d, upserted %d", res.StatusCode, fr.Upserted)
	}

	// business metadata round-tripped
	res, err = http.Get(ts.URL + "/v1/places/E2E1")
	if err != nil {
		t.Fatalf("GET business: %v", err)
	}
	var biz domain.Business
	if err := json.NewDecoder(res.Body).Decode(&biz); err != nil {
		t.Fatalf("decode business: %v", err)
	}
	res.Body.Close()
	if biz.Name != "E2E Diner" {
		t.Fatalf("business name = %q", biz.Name)
	}

	// reviews arrive newest first and carry sentiment
	res, err = http.Get(ts.URL + "/v1/places/E2E1/reviews")
	if err != nil {
		t.Fatalf("GET reviews: %v", err)
	}
	var reviews []domain.Review
	if err := json.NewDecoder(res.Body).Decode(&reviews); err != nil {
		t.Fatalf("decode reviews: %v", err)
	}
	res.Body.Close()
	if len(reviews) != 2 {
		t.Fatalf("reviews = %d, want 2", len(reviews))
	}
	if reviews[0].SourceID != "r2" {
		t.Fatalf("first review = %s, want newest (r2)", reviews[0].SourceID)
	}
	if reviews[0].Sentiment == nil || reviews[0].Sentiment.Label != "negative" {
		t.Fatalf("r2 sentiment = %+v, want negative", reviews[0].Sentiment)
	}
	if reviews[1].Sentiment == nil || reviews[1].Sentiment.Label != "positive" {
		t.Fatalf("r1 sentiment = %+v, want positive", reviews[1].Sentiment)
	}

	// sentiment filter narrows the list
	res, err = http.Get(ts.URL + "/v1/places/E2E1/reviews?sentiment=positive")
	if err != nil {
		t.Fatalf("GET filtered reviews: %v", err)
	}
	var positive []domain.Review
	if err := json.NewDecoder(res.Body).Decode(&positive); err != nil {
		t.Fatalf("decode filtered reviews: %v", err)
	}
	res.Body.Close()
	if len(positive) != 1 || positive[0].SourceID != "r1" {
		t.Fatalf("positive reviews = %+v", positive)
	}

	// aggregates reflect both reviews
	res, err = http.Get(ts.URL + "/v1/places/E2E1/stats")
	if err != nil {
		t.Fatalf("GET stats: %v", err)
	}
	var st domain.Stats
	if err := json.NewDecoder(res.Body).Decode(&st); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	res.Body.Close()
	if st.TotalReviews != 2 {
		t.Fatalf("total reviews = %d", st.TotalReviews)
	}
	if st.AverageRating != 3 {
		t.Fatalf("average rating = %v", st.AverageRating)
	}
	if st.SentimentCounts["positive"] != 1 || st.SentimentCounts["negative"] != 1 {
		t.Fatalf("sentiment counts = %v", st.SentimentCounts)
	}

	// a second ingest of the same reviews stays idempotent
	res, err = http.Post(ts.URL+"/v1/places/E2E1/fetch", "application/json", nil)
	if err != nil {
		t.Fatalf("POST second fetch: %v", err)
	}
	res.Body.Close()

	res, err = http.Get(ts.URL + "/v1/places/E2E1/stats")
	if err != nil {
		t.Fatalf("GET stats after rerun: %v", err)
	}
	var st2 domain.Stats
	if err := json.NewDecoder(res.Body).Decode(&st2); err != nil {
		t.Fatalf("decode stats after rerun: %v", err)
	}
	res.Body.Close()
	if st2.TotalReviews != 2 {
		t.Fatalf("total after rerun = %d, want 2", st2.TotalReviews)
	}
}
