package domain

// RawReview is the normalized output of either acquisition path, before
// enrichment. Language defaults to "en" and Rating to 0 when the upstream
// value is unrecoverable.
type RawReview struct {
	SourceID  string `json:"source_id"`
	Author    string `json:"author"`
	Rating    int    `json:"rating"`
	Text      string `json:"text"`
	PostedAt  int64  `json:"posted_at"` // epoch seconds
	Language  string `json:"language"`
	AvatarURL string `json:"avatar_url"`
}

// SentimentResult holds the full output of one sentiment analysis pass.
// Positive, Neutral and Negative are proportions summing to 1.
type SentimentResult struct {
	Label        string  `json:"label"` // positive|neutral|negative
	Compound     float64 `json:"compound"`
	Positive     float64 `json:"positive"`
	Neutral      float64 `json:"neutral"`
	Negative     float64 `json:"negative"`
	Subjectivity float64 `json:"subjectivity"`
}

// Review is a raw review plus its enrichment. Sentiment and Keywords are
// set together or not at all; enrichment is atomic per review.
type Review struct {
	RawReview
	PlaceID   string           `json:"place_id"`
	Sentiment *SentimentResult `json:"sentiment,omitempty"`
	Keywords  []string         `json:"keywords,omitempty"`
}

// ReviewFilter narrows review listings. Nil fields are ignored; set fields
// combine conjunctively.
type ReviewFilter struct {
	Rating    *int
	Sentiment *string
}
