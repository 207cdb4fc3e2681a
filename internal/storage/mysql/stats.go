package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"placepulse/internal/domain"
)

const topKeywordCount = 10

// GetStats serves the cached aggregate blob when one exists; otherwise it
// recomputes every aggregate, stores the result keyed by place ID, and
// returns it. The cache row lives until the next review write for the place.
func (r *Repo) GetStats(ctx context.Context, placeID string) (domain.Stats, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, getStatsCacheSQL, placeID).Scan(&raw)
	switch {
	case err == nil:
		var st domain.Stats
		if jerr := json.Unmarshal(raw, &st); jerr == nil {
			return st, nil
		}
		// unreadable blob: fall through and recompute
		log.Warn().Str("place_id", placeID).Msg("stats cache blob unreadable, recomputing")
	case err != sql.ErrNoRows:
		if ctx.Err() != nil {
			return domain.Stats{}, ctx.Err()
		}
		log.Error().Err(err).Str("place_id", placeID).Msg("stats cache read failed")
		return emptyStats(placeID), nil
	}

	st, err := r.computeStats(ctx, placeID)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Stats{}, ctx.Err()
		}
		log.Error().Err(err).Str("place_id", placeID).Msg("stats computation failed")
		return emptyStats(placeID), nil
	}

	if blob, err := json.Marshal(st); err == nil {
		if _, err := r.db.ExecContext(ctx, putStatsCacheSQL, placeID, string(blob), st.ComputedAt); err != nil {
			log.Error().Err(err).Str("place_id", placeID).Msg("stats cache write failed")
		}
	}
	return st, nil
}

func emptyStats(placeID string) domain.Stats {
	return domain.Stats{
		PlaceID:         placeID,
		RatingCounts:    map[int]int{},
		SentimentCounts: map[string]int{},
		MonthlyCounts:   map[string]int{},
	}
}

func (r *Repo) computeStats(ctx context.Context, placeID string) (domain.Stats, error) {
	st := emptyStats(placeID)
	st.ComputedAt = time.Now().Unix()

	if err := r.db.QueryRowContext(ctx, statsTotalsSQL, placeID).
		Scan(&st.TotalReviews, &st.AverageRating); err != nil {
		return domain.Stats{}, err
	}

	if err := r.fillHistogram(ctx, statsRatingHistSQL, placeID, func(key string, n int) {
		star, err := strconv.Atoi(key)
		if err != nil {
			return
		}
		st.RatingCounts[star] = n
	}); err != nil {
		return domain.Stats{}, err
	}

	if err := r.fillHistogram(ctx, statsSentimentHistSQL, placeID, func(key string, n int) {
		// unlabeled rows coalesce into "neutral" alongside real neutrals
		st.SentimentCounts[key] += n
	}); err != nil {
		return domain.Stats{}, err
	}

	if err := r.fillHistogram(ctx, statsMonthlySQL, placeID, func(key string, n int) {
		st.MonthlyCounts[key] = n
	}); err != nil {
		return domain.Stats{}, err
	}

	kws, err := r.topKeywords(ctx, placeID, topKeywordCount)
	if err != nil {
		return domain.Stats{}, err
	}
	st.TopKeywords = kws

	return st, nil
}

// fillHistogram runs a (key, count) GROUP BY query and feeds each row to add.
func (r *Repo) fillHistogram(ctx context.Context, query, placeID string, add func(key string, n int)) error {
	rows, err := r.db.QueryContext(ctx, query, placeID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		add(key, n)
	}
	return rows.Err()
}

// topKeywords merges every review's keyword list into one frequency ranking.
func (r *Repo) topKeywords(ctx context.Context, placeID string, topN int) ([]domain.KeywordCount, error) {
	rows, err := r.db.QueryContext(ctx, statsKeywordsSQL, placeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var kws []string
		if err := json.Unmarshal(raw, &kws); err != nil {
			continue
		}
		for _, k := range kws {
			counts[k]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.KeywordCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.KeywordCount{Keyword: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Keyword < out[j].Keyword
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}
