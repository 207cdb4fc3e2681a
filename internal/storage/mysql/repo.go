package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"placepulse/internal/domain"
)

// Repo is the one owner of businesses, reviews and the stats cache.
//
// Per the storage contract, unexpected database failures on review and stats
// operations are logged and converted to zero values rather than propagated;
// an empty result is therefore ambiguous between "no data" and "storage
// failure". Context cancellation is the exception and is always returned.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertBusiness(ctx context.Context, b domain.Business) error {
	_, err := r.db.ExecContext(ctx, upsertBusinessSQL,
		b.PlaceID,
		b.Name,
		b.Address,
		b.Phone,
		b.Website,
		b.Rating,
		b.TotalRatings,
		b.LastUpdated,
	)
	if err != nil {
		log.Error().Err(err).Str("place_id", b.PlaceID).Msg("upsert business failed")
	}
	return err
}

// UpsertReviews applies the whole batch in one transaction: each review is
// inserted or overwritten in place, records without a source ID are skipped
// without erroring, and the stats cache row for placeID is deleted in the
// same transaction whenever the batch is non-empty. A crash mid-batch rolls
// everything back.
func (r *Repo) UpsertReviews(ctx context.Context, placeID string, rs []domain.Review) (int, error) {
	if len(rs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		log.Error().Err(err).Str("place_id", placeID).Msg("begin upsert tx failed")
		return 0, nil
	}
	defer tx.Rollback()

	count := 0
	for _, rv := range rs {
		if strings.TrimSpace(rv.SourceID) == "" {
			continue // no natural key, nothing to upsert against
		}

		var label any
		var score any
		var sentJSON, kwJSON any
		if rv.Sentiment != nil {
			label = rv.Sentiment.Label
			score = rv.Sentiment.Compound
			b, _ := json.Marshal(rv.Sentiment)
			sentJSON = string(b)
			kb, _ := json.Marshal(rv.Keywords)
			kwJSON = string(kb)
		}

		if _, err := tx.ExecContext(ctx, upsertReviewSQL,
			rv.SourceID,
			placeID,
			rv.Author,
			rv.Rating,
			rv.Text,
			rv.PostedAt,
			rv.Language,
			rv.AvatarURL,
			label,
			score,
			sentJSON,
			kwJSON,
		); err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			// one bad record must not sink its neighbours
			log.Error().Err(err).Str("place_id", placeID).Str("source_id", rv.SourceID).Msg("upsert review failed")
			continue
		}
		count++
	}

	// Enrichment thresholds may have changed since the cache was built, so
	// invalidation is unconditional for non-empty batches even when no row
	// values changed.
	if _, err := tx.ExecContext(ctx, invalidateStatsSQL, placeID); err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		log.Error().Err(err).Str("place_id", placeID).Msg("stats cache invalidation failed")
		return 0, nil
	}

	if err := tx.Commit(); err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		log.Error().Err(err).Str("place_id", placeID).Msg("commit upsert tx failed")
		return 0, nil
	}
	return count, nil
}

func (r *Repo) GetBusiness(ctx context.Context, placeID string) (domain.Business, error) {
	var b domain.Business
	err := r.db.QueryRowContext(ctx, getBusinessSQL, placeID).Scan(
		&b.PlaceID, &b.Name, &b.Address, &b.Phone, &b.Website,
		&b.Rating, &b.TotalRatings, &b.LastUpdated,
	)
	if err == sql.ErrNoRows {
		return domain.Business{}, domain.ErrNotFound
	}
	if err != nil {
		if ctx.Err() != nil {
			return domain.Business{}, ctx.Err()
		}
		log.Error().Err(err).Str("place_id", placeID).Msg("get business failed")
		return domain.Business{}, domain.ErrNotFound
	}
	return b, nil
}

// ListReviews returns reviews for a place, newest post first. Filters are
// optional equalities and combine conjunctively.
func (r *Repo) ListReviews(ctx context.Context, placeID string, f domain.ReviewFilter, limit, offset int) ([]domain.Review, error) {
	q := listReviewsPrefix
	args := []any{placeID}
	if f.Rating != nil {
		q += " AND rating = ?"
		args = append(args, *f.Rating)
	}
	if f.Sentiment != nil {
		q += " AND sentiment_label = ?"
		args = append(args, *f.Sentiment)
	}
	q += " ORDER BY posted_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error().Err(err).Str("place_id", placeID).Msg("list reviews failed")
		return nil, nil
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			log.Error().Err(err).Str("place_id", placeID).Msg("scan review failed")
			return nil, nil
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Str("place_id", placeID).Msg("list reviews iteration failed")
		return nil, nil
	}
	return out, nil
}

func scanReview(rows *sql.Rows) (domain.Review, error) {
	var rv domain.Review
	var (
		author, lang, avatar sql.NullString
		label                sql.NullString
		score                sql.NullFloat64
		sentRaw, kwRaw       []byte
	)
	if err := rows.Scan(
		&rv.SourceID,
		&rv.PlaceID,
		&author,
		&rv.Rating,
		&rv.Text,
		&rv.PostedAt,
		&lang,
		&avatar,
		&label,
		&score,
		&sentRaw,
		&kwRaw,
	); err != nil {
		return domain.Review{}, err
	}
	rv.Author = author.String
	rv.Language = lang.String
	rv.AvatarURL = avatar.String

	if len(sentRaw) > 0 {
		var sr domain.SentimentResult
		if err := json.Unmarshal(sentRaw, &sr); err == nil {
			rv.Sentiment = &sr
		}
	}
	if len(kwRaw) > 0 {
		_ = json.Unmarshal(kwRaw, &rv.Keywords)
	}
	return rv, nil
}
