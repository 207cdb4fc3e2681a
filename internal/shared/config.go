package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	PlacesBase string
	PlacesKey  string

	Workers    int
	MaxReviews int
	PlaceIDs   []string

	PageDelay      time.Duration // mandatory wait between structured pages
	ScraperTimeout time.Duration // hard cap for the browser fallback
	CacheTTL       time.Duration

	PositiveThreshold float64
	NegativeThreshold float64

	ScheduleEnabled  bool
	ScheduleInterval time.Duration

	ExportDir string
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
		return def
	}
	c := Config{
		AppEnv:            env("APP_ENV", "prod"),
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		MetricsAddr:       env("METRICS_ADDR", ":9100"),
		MySQLDSN:          env("MYSQL_DSN", "root:root@tcp(localhost:3306)/placepulse?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:         env("REDIS_ADDR", "localhost:6379"),
		RedisPass:         env("REDIS_PASSWORD", ""),
		RedisDB:           atoi("REDIS_DB", 0),
		PlacesBase:        env("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		PlacesKey:         env("PLACES_API_KEY", ""),
		Workers:           atoi("INGEST_WORKERS", 4),
		MaxReviews:        atoi("INGEST_MAX_REVIEWS", 100),
		PlaceIDs:          splitIDs(env("INGEST_PLACE_IDS", "")),
		PageDelay:         time.Duration(atoi("FETCH_PAGE_DELAY_MS", 2000)) * time.Millisecond,
		ScraperTimeout:    time.Duration(atoi("SCRAPER_TIMEOUT_SECONDS", 30)) * time.Second,
		CacheTTL:          time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		PositiveThreshold: atof("SENTIMENT_THRESHOLD_POSITIVE", 0.05),
		NegativeThreshold: atof("SENTIMENT_THRESHOLD_NEGATIVE", -0.05),
		ScheduleEnabled:   env("SCHEDULE_ENABLED", "false") == "true",
		ScheduleInterval:  time.Duration(atoi("SCHEDULE_INTERVAL_HOURS", 24)) * time.Hour,
		ExportDir:         env("EXPORT_DIR", "data/exports"),
	}
	if c.PlacesKey == "" {
		log.Warn().Msg("PLACES_API_KEY is empty; review fetches will fall back to scraping")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitIDs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
