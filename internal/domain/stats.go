package domain

// KeywordCount is one entry of a keyword frequency ranking.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// Stats are the derived aggregates for one place. They are computed lazily
// on read and cached until the next review write for that place.
type Stats struct {
	PlaceID         string         `json:"place_id"`
	TotalReviews    int            `json:"total_reviews"`
	AverageRating   float64        `json:"average_rating"`
	RatingCounts    map[int]int    `json:"rating_counts"`    // star value -> count
	SentimentCounts map[string]int `json:"sentiment_counts"` // label -> count
	MonthlyCounts   map[string]int `json:"monthly_counts"`   // "2006-01" -> count
	TopKeywords     []KeywordCount `json:"top_keywords"`
	ComputedAt      int64          `json:"computed_at"` // epoch seconds
}
