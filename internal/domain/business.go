package domain

// Business is the profile of one place, keyed by its external place ID.
// It is written wholesale on every successful metadata fetch.
type Business struct {
	PlaceID      string  `json:"place_id"`
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	Phone        string  `json:"phone"`
	Website      string  `json:"website"`
	Rating       float64 `json:"rating"`
	TotalRatings int     `json:"total_ratings"`
	LastUpdated  int64   `json:"last_updated"` // epoch seconds
}
