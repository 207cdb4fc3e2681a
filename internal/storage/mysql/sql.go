package mysql

const upsertBusinessSQL = `
INSERT INTO businesses
  (place_id, name, address, phone, website, rating, total_ratings, last_updated)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name          = VALUES(name),
  address       = VALUES(address),
  phone         = VALUES(phone),
  website       = VALUES(website),
  rating        = VALUES(rating),
  total_ratings = VALUES(total_ratings),
  last_updated  = VALUES(last_updated)
`

// Note: `text` is reserved; keep it quoted everywhere.
// Every mutable field is overwritten on conflict: re-fetches are
// last-write-wins per (source_id, place_id) row.
const upsertReviewSQL = "INSERT INTO reviews\n" +
	"  (source_id, place_id, author, rating, `text`, posted_at, lang, avatar_url,\n" +
	"   sentiment_label, sentiment_score, sentiment_json, keywords_json)\n" +
	"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)\n" +
	"ON DUPLICATE KEY UPDATE\n" +
	"  author          = VALUES(author),\n" +
	"  rating          = VALUES(rating),\n" +
	"  `text`          = VALUES(`text`),\n" +
	"  posted_at       = VALUES(posted_at),\n" +
	"  lang            = VALUES(lang),\n" +
	"  avatar_url      = VALUES(avatar_url),\n" +
	"  sentiment_label = VALUES(sentiment_label),\n" +
	"  sentiment_score = VALUES(sentiment_score),\n" +
	"  sentiment_json  = VALUES(sentiment_json),\n" +
	"  keywords_json   = VALUES(keywords_json)\n"

const invalidateStatsSQL = `DELETE FROM stats_cache WHERE place_id = ?`

const getBusinessSQL = `
SELECT place_id, name, address, phone, website, rating, total_ratings, last_updated
FROM businesses
WHERE place_id = ?
`

const listReviewsPrefix = "SELECT source_id, place_id, author, rating, `text`, posted_at, lang, avatar_url,\n" +
	"       sentiment_label, sentiment_score, sentiment_json, keywords_json\n" +
	"FROM reviews\nWHERE place_id = ?"

const getStatsCacheSQL = `SELECT stats_json FROM stats_cache WHERE place_id = ?`

const putStatsCacheSQL = `
INSERT INTO stats_cache (place_id, stats_json, computed_at)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  stats_json  = VALUES(stats_json),
  computed_at = VALUES(computed_at)
`

// -----------------------------------------------------------------------------
// AGGREGATION QUERIES (stats cache misses)
// -----------------------------------------------------------------------------

const statsTotalsSQL = `
SELECT COUNT(*), COALESCE(AVG(rating), 0)
FROM reviews
WHERE place_id = ?
`

const statsRatingHistSQL = `
SELECT rating, COUNT(*)
FROM reviews
WHERE place_id = ?
GROUP BY rating
`

const statsSentimentHistSQL = `
SELECT COALESCE(sentiment_label, 'neutral'), COUNT(*)
FROM reviews
WHERE place_id = ?
GROUP BY COALESCE(sentiment_label, 'neutral')
`

const statsMonthlySQL = `
SELECT DATE_FORMAT(FROM_UNIXTIME(posted_at), '%Y-%m') AS month, COUNT(*)
FROM reviews
WHERE place_id = ? AND posted_at > 0
GROUP BY month
`

const statsKeywordsSQL = `
SELECT keywords_json
FROM reviews
WHERE place_id = ? AND keywords_json IS NOT NULL
`
