package booking

import "time"

const (
	MinRatingScore = 1
	MaxRatingScore = 5
)

// Rating is the client's post-completion feedback.
type Rating struct {
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
