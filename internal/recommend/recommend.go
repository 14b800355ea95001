package recommend

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("recommendation not found")

// ErrBadFeedback is returned for a feedback value other than up, down
// or clear.
var ErrBadFeedback = errors.New("feedback must be up, down or clear")

// Feedback values stored on a recommendation.
const (
	FeedbackUp   = "up"
	FeedbackDown = "down"
	FeedbackNone = ""
)

// Recommendation is one "read more by this author" suggestion, derived
// from an unread catalog entry.
type Recommendation struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	EntryID    string    `json:"entry_id"`
	Title      string    `json:"title"`
	ISBN       string    `json:"isbn,omitempty"`
	SeriesName string    `json:"series_name,omitempty"`
	Score      float64   `json:"score"`
	Reason     string    `json:"reason"`
	Fiction    bool      `json:"fiction"`
	NonEnglish bool      `json:"non_english"`
	Feedback   string    `json:"feedback,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Query filters recommendation listings.
type Query struct {
	AuthorID          string
	Feedback          string
	FictionOnly       bool
	IncludeNonEnglish bool
	IncludeDownvoted  bool
	Limit             int
	Offset            int
}

// SeriesState values for reading progress.
const (
	SeriesComplete   = "complete"
	SeriesPartial    = "partial"
	SeriesNotStarted = "not_started"
)

// SeriesProgress summarizes how far through one series the reader is.
type SeriesProgress struct {
	AuthorID   string `json:"author_id"`
	SeriesName string `json:"series_name"`
	Total      int    `json:"total"`
	Read       int    `json:"read"`
	State      string `json:"state"`
	NextUnread string `json:"next_unread,omitempty"`
}
