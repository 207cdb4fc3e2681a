package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"placepulse/internal/domain"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestWriteReviews(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	rs := []domain.Review{
		{
			RawReview: domain.RawReview{SourceID: "r1", Author: "Ann", Rating: 5, Text: "great, \"really\" great", PostedAt: 1700000000, Language: "en"},
			PlaceID:   "P1",
			Sentiment: &domain.SentimentResult{Label: "positive", Compound: 0.8, Subjectivity: 0.6},
			Keywords:  []string{"great", "service"},
		},
		{
			RawReview: domain.RawReview{SourceID: "r2", Author: "Bob", Rating: 2, Text: "meh", PostedAt: 1700000100, Language: "en"},
			PlaceID:   "P1",
		},
	}

	path, err := w.WriteReviews("P1", rs)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "reviews_P1.csv" {
		t.Fatalf("path = %q", path)
	}

	rows := readAll(t, path)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[1][0] != "r1" || rows[1][5] != "positive" || rows[1][8] != "great|service" {
		t.Fatalf("row 1 = %v", rows[1])
	}
	// missing sentiment renders as empty cells, not zeros
	if rows[2][5] != "" || rows[2][6] != "" {
		t.Fatalf("row 2 = %v", rows[2])
	}
}

func TestWriteReviews_SanitizesPlaceID(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	path, err := w.WriteReviews("ChIJ/../etc", nil)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("file escaped export dir: %q", path)
	}
	if filepath.Base(path) != "reviews_ChIJ_____etc.csv" {
		t.Fatalf("base = %q", filepath.Base(path))
	}
}

func TestWriteStats(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	st := domain.Stats{
		PlaceID:         "P1",
		TotalReviews:    4,
		AverageRating:   3.75,
		RatingCounts:    map[int]int{5: 2, 1: 2},
		SentimentCounts: map[string]int{"positive": 2, "negative": 2},
		MonthlyCounts:   map[string]int{"2023-11": 4},
		TopKeywords:     []domain.KeywordCount{{Keyword: "pizza", Count: 3}},
		ComputedAt:      1700000000,
	}

	path, err := w.WriteStats(st)
	if err != nil {
		t.Fatal(err)
	}

	rows := readAll(t, path)
	byMetric := map[string][][]string{}
	for _, row := range rows[1:] {
		byMetric[row[0]] = append(byMetric[row[0]], row)
	}
	if byMetric["total_reviews"][0][2] != "4" {
		t.Fatalf("total = %v", byMetric["total_reviews"])
	}
	if byMetric["average_rating"][0][2] != "3.75" {
		t.Fatalf("avg = %v", byMetric["average_rating"])
	}
	// histogram rows come out key-sorted for stable diffs
	if got := byMetric["rating_count"]; len(got) != 2 || got[0][1] != "1" || got[1][1] != "5" {
		t.Fatalf("rating rows = %v", got)
	}
	if got := byMetric["top_keyword"]; len(got) != 1 || got[0][1] != "pizza" || got[0][2] != "3" {
		t.Fatalf("keyword rows = %v", got)
	}
}
