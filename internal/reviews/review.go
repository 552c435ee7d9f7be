// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

/*
Package reviews manages customer feedback for catalogue products.

It covers star ratings with moderation and helpfulness votes, plus an
AI-generated per-product review summary that is cached and refreshed lazily
when it goes stale.

Core Responsibility:

  - Feedback: One review per (product, user); verified-purchase detection
    from delivered orders.
  - Aggregates: Keeps the product's rating average and count in sync.
  - Summaries: Condenses approved reviews into a short text with a
    sentiment score derived from the average rating.
*/
package reviews

import (
	"fmt"
	"time"
)

// # Summary Tuning

const (
	// SummaryRefreshWindow bounds how long a cached summary is served
	// before the review set is re-checked.
	SummaryRefreshWindow = 24 * time.Hour

	// SummaryMaxReviews caps how many recent reviews feed the summarizer.
	SummaryMaxReviews = 50
)

// SentimentScore maps a 1-5 average rating onto a -1..1 sentiment scale.
func SentimentScore(averageRating float64) float64 {
	score := (averageRating - 3) / 2
	if score < -1 {
		return -1
	}
	if score > 1 {
		return 1
	}
	return score
}

// # Core Entities

// Review is one customer's feedback on a product.
type Review struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	UserID    int64  `json:"-"`
	Username  string `json:"username"` // Denormalized for display
	Rating    int    `json:"rating"`   // 1 to 5 stars
	Title     string `json:"title"`
	Comment   string `json:"comment"`

	IsApproved         bool `json:"-"`
	IsVerifiedPurchase bool `json:"is_verified_purchase"`
	HelpfulCount       int  `json:"helpful_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the cached AI condensation of a product's approved reviews.
type Summary struct {
	ProductID      int64   `json:"product_id"`
	Text           string  `json:"summary"`
	TotalReviews   int     `json:"total_reviews"`
	AverageRating  float64 `json:"average_rating"`
	SentimentScore float64 `json:"sentiment_score"`

	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
}

// Stale reports whether the cached summary should be regenerated against
// the current review count.
func (s *Summary) Stale(currentCount int, now time.Time) bool {
	return s.TotalReviews != currentCount || now.Sub(s.LastUpdated) > SummaryRefreshWindow
}

// RatingStats is an aggregate over a product's approved reviews.
type RatingStats struct {
	Count   int
	Average float64
}

// EmptySummary is served when a product has no approved reviews yet.
func EmptySummary(productID int64) *Summary {
	return &Summary{
		ProductID: productID,
		Text:      "No reviews available for this product yet.",
	}
}

// FallbackSummaryText renders the non-AI summary used when no language
// model is configured or the call fails.
func FallbackSummaryText(count int, averageRating float64) string {
	text := fmt.Sprintf(
		"This product has %d customer reviews with an average rating of %.1f stars. ",
		count, averageRating,
	)
	switch {
	case averageRating >= 4:
		text += "Customers are generally very satisfied with this product."
	case averageRating >= 3:
		text += "Customers have mixed feelings about this product."
	default:
		text += "Some customers have expressed concerns about this product."
	}
	return text
}

// # Field Identifiers

const (
	FieldRating  = "rating"
	FieldTitle   = "title"
	FieldComment = "comment"
)
