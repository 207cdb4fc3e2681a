package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"placepulse/internal/adapters/observability"
	"placepulse/internal/adapters/places"
	redisad "placepulse/internal/adapters/redis"
	"placepulse/internal/app"
	"placepulse/internal/domain"
	"placepulse/internal/enrich"
	"placepulse/internal/export"
	"placepulse/internal/shared"
	mysqlrepo "placepulse/internal/storage/mysql"
)

func main() {
	loop := flag.Bool("loop", false, "keep running, one pass per schedule interval")
	doExport := flag.Bool("export", false, "write CSV reports after each pass")
	flag.Parse()

	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	// ingestor has no API listener, so metrics get their own port
	observability.Serve()

	log.Info().
		Str("base", cfg.PlacesBase).
		Int("workers", cfg.Workers).
		Int("reviews", cfg.MaxReviews).
		Int("places", len(cfg.PlaceIDs)).
		Msg("ingestor starting")

	if len(cfg.PlaceIDs) == 0 {
		log.Fatal().Msg("INGEST_PLACE_IDS is empty, nothing to ingest")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	client := places.New(cfg.PlacesBase, cfg.PlacesKey, 5, cfg.PageDelay)
	scraper := places.NewScraper(cfg.ScraperTimeout)
	fetcher := places.NewFetcher(client, scraper)
	analyzer := enrich.NewAnalyzer(enrich.Thresholds{Positive: cfg.PositiveThreshold, Negative: cfg.NegativeThreshold})
	ing := app.NewIngestionService(fetcher, analyzer, repo, cache)

	var exporter *export.Writer
	if *doExport {
		exporter = export.NewWriter(cfg.ExportDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runPass(ctx, cfg, ing, repo, exporter)

	if !*loop && !cfg.ScheduleEnabled {
		log.Info().Msg("ingestion completed")
		return
	}

	ticker := time.NewTicker(cfg.ScheduleInterval)
	defer ticker.Stop()
	log.Info().Dur("interval", cfg.ScheduleInterval).Msg("scheduler running")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("ingestor shutting down")
			return
		case <-ticker.C:
			runPass(ctx, cfg, ing, repo, exporter)
		}
	}
}

// runPass ingests every configured place with a bounded worker pool, then
// optionally writes the CSV reports from the freshly persisted state.
func runPass(ctx context.Context, cfg shared.Config, ing *app.IngestionService, store domain.ReviewStore, exporter *export.Writer) {
	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, id := range cfg.PlaceIDs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("semaphore acquire failed, stopping pass")
			break
		}

		wg.Add(1)
		go func(placeID string) {
			defer wg.Done()
			defer sem.Release(1)

			n, err := ing.IngestPlace(ctx, placeID, cfg.MaxReviews)
			if err != nil {
				log.Warn().Str("place_id", placeID).Err(err).Msg("ingest failed")
				return
			}
			log.Info().Str("place_id", placeID).Int("upserted", n).Msg("ingest ok")
		}(id)
	}

	wg.Wait()

	if exporter == nil {
		return
	}
	for _, id := range cfg.PlaceIDs {
		exportPlace(ctx, store, exporter, id)
	}
}

func exportPlace(ctx context.Context, store domain.ReviewStore, exporter *export.Writer, placeID string) {
	rs, err := store.ListReviews(ctx, placeID, domain.ReviewFilter{}, 1000, 0)
	if err != nil {
		log.Warn().Str("place_id", placeID).Err(err).Msg("export: list reviews failed")
		return
	}
	if _, err := exporter.WriteReviews(placeID, rs); err != nil {
		log.Warn().Str("place_id", placeID).Err(err).Msg("export: review report failed")
	}

	st, err := store.GetStats(ctx, placeID)
	if err != nil {
		log.Warn().Str("place_id", placeID).Err(err).Msg("export: stats failed")
		return
	}
	if _, err := exporter.WriteStats(st); err != nil {
		log.Warn().Str("place_id", placeID).Err(err).Msg("export: stats report failed")
	}
}
