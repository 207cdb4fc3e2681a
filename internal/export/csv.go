// Package export writes review and statistics reports as CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"placepulse/internal/domain"
)

// Writer renders CSV reports into dir, one file per place and report kind.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer { return &Writer{dir: dir} }

// WriteReviews writes one row per review. Returns the path of the file it
// created.
func (w *Writer) WriteReviews(placeID string, rs []domain.Review) (string, error) {
	path := filepath.Join(w.dir, fmt.Sprintf("reviews_%s.csv", sanitize(placeID)))
	f, err := w.create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	header := []string{
		"source_id", "author", "rating", "posted_at", "language",
		"sentiment", "compound", "subjectivity", "keywords", "text",
	}
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range rs {
		label, compound, subjectivity := "", "", ""
		if r.Sentiment != nil {
			label = r.Sentiment.Label
			compound = strconv.FormatFloat(r.Sentiment.Compound, 'f', 4, 64)
			subjectivity = strconv.FormatFloat(r.Sentiment.Subjectivity, 'f', 4, 64)
		}
		row := []string{
			r.SourceID,
			r.Author,
			strconv.Itoa(r.Rating),
			time.Unix(r.PostedAt, 0).UTC().Format(time.RFC3339),
			r.Language,
			label,
			compound,
			subjectivity,
			strings.Join(r.Keywords, "|"),
			r.Text,
		}
		if err := cw.Write(row); err != nil {
			log.Error().Err(err).Str("source_id", r.SourceID).Msg("csv row write failed")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	log.Info().Str("path", path).Int("rows", len(rs)).Msg("review report written")
	return path, nil
}

// WriteStats flattens one Stats aggregate into metric/key/value rows so the
// histograms and the keyword list fit a single flat file.
func (w *Writer) WriteStats(st domain.Stats) (string, error) {
	path := filepath.Join(w.dir, fmt.Sprintf("stats_%s.csv", sanitize(st.PlaceID)))
	f, err := w.create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if err := cw.Write([]string{"metric", "key", "value"}); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}

	rows := [][]string{
		{"total_reviews", "", strconv.Itoa(st.TotalReviews)},
		{"average_rating", "", strconv.FormatFloat(st.AverageRating, 'f', 2, 64)},
		{"computed_at", "", time.Unix(st.ComputedAt, 0).UTC().Format(time.RFC3339)},
	}
	for _, rating := range sortedIntKeys(st.RatingCounts) {
		rows = append(rows, []string{"rating_count", strconv.Itoa(rating), strconv.Itoa(st.RatingCounts[rating])})
	}
	for _, label := range sortedKeys(st.SentimentCounts) {
		rows = append(rows, []string{"sentiment_count", label, strconv.Itoa(st.SentimentCounts[label])})
	}
	for _, month := range sortedKeys(st.MonthlyCounts) {
		rows = append(rows, []string{"monthly_count", month, strconv.Itoa(st.MonthlyCounts[month])})
	}
	for _, kw := range st.TopKeywords {
		rows = append(rows, []string{"top_keyword", kw.Keyword, strconv.Itoa(kw.Count)})
	}

	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	log.Info().Str("path", path).Str("place_id", st.PlaceID).Msg("stats report written")
	return path, nil
}

func (w *Writer) create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create export file: %w", err)
	}
	return f, nil
}

// sanitize keeps place IDs safe as filename fragments.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedIntKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
