package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "placepulse/internal/adapters/httpserver"
	"placepulse/internal/adapters/observability"
	"placepulse/internal/adapters/places"
	redisad "placepulse/internal/adapters/redis"
	"placepulse/internal/app"
	"placepulse/internal/enrich"
	"placepulse/internal/shared"
	mysqlrepo "placepulse/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)

	client := places.New(cfg.PlacesBase, cfg.PlacesKey, 5, cfg.PageDelay)
	scraper := places.NewScraper(cfg.ScraperTimeout)
	fetcher := places.NewFetcher(client, scraper)
	analyzer := enrich.NewAnalyzer(enrich.Thresholds{Positive: cfg.PositiveThreshold, Negative: cfg.NegativeThreshold})
	ing := app.NewIngestionService(fetcher, analyzer, repo, cache)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, I: ing, MaxReviews: cfg.MaxReviews})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
