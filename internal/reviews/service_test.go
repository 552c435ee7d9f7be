// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package reviews_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motoworld/api/internal/catalog"
	"github.com/motoworld/api/internal/platform/apperr"
	"github.com/motoworld/api/internal/reviews"
	"github.com/motoworld/api/pkg/pagination"
)

// # Test Doubles

type fakeProductFinder struct {
	products map[int64]*catalog.Product
}

func (finder *fakeProductFinder) FindByID(_ context.Context, id int64) (*catalog.Product, error) {
	product, ok := finder.products[id]
	if !ok {
		return nil, apperr.NotFound("Product")
	}
	return product, nil
}

type fakeReviewRepository struct {
	mutex         sync.Mutex
	reviews       []*reviews.Review
	delivered     map[int64]map[int64]bool // userID -> productID
	votes         map[int64]map[int64]bool // reviewID -> userID
	nextID        int64
	recentCalls   int
	statsOverride *reviews.RatingStats
}

func newFakeReviewRepository() *fakeReviewRepository {
	return &fakeReviewRepository{
		delivered: map[int64]map[int64]bool{},
		votes:     map[int64]map[int64]bool{},
		nextID:    1,
	}
}

func (repository *fakeReviewRepository) ListApproved(_ context.Context, productID int64, params pagination.Params) ([]*reviews.Review, int, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	var matched []*reviews.Review
	for _, review := range repository.reviews {
		if review.ProductID == productID && review.IsApproved {
			matched = append(matched, review)
		}
	}

	total := len(matched)
	offset := params.Offset()
	if offset > total {
		offset = total
	}
	end := offset + params.PageSize
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (repository *fakeReviewRepository) Recent(_ context.Context, productID int64, limit int) ([]*reviews.Review, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	repository.recentCalls++

	var matched []*reviews.Review
	for _, review := range repository.reviews {
		if review.ProductID == productID && review.IsApproved && len(matched) < limit {
			matched = append(matched, review)
		}
	}
	return matched, nil
}

func (repository *fakeReviewRepository) Create(_ context.Context, review *reviews.Review) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	for _, existing := range repository.reviews {
		if existing.ProductID == review.ProductID && existing.UserID == review.UserID {
			return apperr.Conflict("You have already reviewed this product")
		}
	}

	review.ID = repository.nextID
	repository.nextID++
	review.CreatedAt = time.Now()
	review.UpdatedAt = review.CreatedAt
	repository.reviews = append(repository.reviews, review)
	return nil
}

func (repository *fakeReviewRepository) MarkHelpful(_ context.Context, reviewID, userID int64) (*reviews.Review, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	for _, review := range repository.reviews {
		if review.ID != reviewID {
			continue
		}
		if repository.votes[reviewID][userID] {
			return nil, apperr.Conflict("You have already marked this review as helpful")
		}
		if repository.votes[reviewID] == nil {
			repository.votes[reviewID] = map[int64]bool{}
		}
		repository.votes[reviewID][userID] = true
		review.HelpfulCount++
		return review, nil
	}
	return nil, apperr.NotFound("Review")
}

func (repository *fakeReviewRepository) Stats(_ context.Context, productID int64) (reviews.RatingStats, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	if repository.statsOverride != nil {
		return *repository.statsOverride, nil
	}

	var stats reviews.RatingStats
	sum := 0
	for _, review := range repository.reviews {
		if review.ProductID == productID && review.IsApproved {
			stats.Count++
			sum += review.Rating
		}
	}
	if stats.Count > 0 {
		stats.Average = float64(sum) / float64(stats.Count)
	}
	return stats, nil
}

func (repository *fakeReviewRepository) HasDeliveredOrder(_ context.Context, userID, productID int64) (bool, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	return repository.delivered[userID][productID], nil
}

type fakeSummaryRepository struct {
	mutex       sync.Mutex
	summaries   map[int64]*reviews.Summary
	upsertCalls int
	deleteCalls int
}

func newFakeSummaryRepository() *fakeSummaryRepository {
	return &fakeSummaryRepository{summaries: map[int64]*reviews.Summary{}}
}

func (repository *fakeSummaryRepository) Find(_ context.Context, productID int64) (*reviews.Summary, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	summary, ok := repository.summaries[productID]
	if !ok {
		return nil, apperr.NotFound("Review summary")
	}
	clone := *summary
	return &clone, nil
}

func (repository *fakeSummaryRepository) Upsert(_ context.Context, summary *reviews.Summary) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	repository.upsertCalls++
	summary.LastUpdated = time.Now()
	if existing, ok := repository.summaries[summary.ProductID]; ok {
		summary.CreatedAt = existing.CreatedAt
	} else {
		summary.CreatedAt = summary.LastUpdated
	}
	clone := *summary
	repository.summaries[summary.ProductID] = &clone
	return nil
}

func (repository *fakeSummaryRepository) Delete(_ context.Context, productID int64) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	repository.deleteCalls++
	delete(repository.summaries, productID)
	return nil
}

type fakeSummarizer struct {
	mutex sync.Mutex
	text  string
	err   error
	calls int
}

func (summarizer *fakeSummarizer) Summarize(_ context.Context, _ string, _ []*reviews.Review) (string, error) {
	summarizer.mutex.Lock()
	defer summarizer.mutex.Unlock()
	summarizer.calls++
	return summarizer.text, summarizer.err
}

// # Fixtures

type testWorld struct {
	reviewRepo  *fakeReviewRepository
	summaryRepo *fakeSummaryRepository
	summarizer  *fakeSummarizer
	service     *reviews.Service
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()

	world := &testWorld{
		reviewRepo:  newFakeReviewRepository(),
		summaryRepo: newFakeSummaryRepository(),
		summarizer:  &fakeSummarizer{text: "Riders praise the fit and finish."},
	}

	finder := &fakeProductFinder{products: map[int64]*catalog.Product{
		10: {ID: 10, Name: "Shoei RF-1400 Helmet", Status: catalog.StatusActive},
	}}

	world.service = reviews.NewService(
		world.reviewRepo,
		world.summaryRepo,
		finder,
		world.summarizer,
		slog.Default(),
	)
	return world
}

func seedReview(t *testing.T, world *testWorld, userID int64, rating int) *reviews.Review {
	t.Helper()

	review, err := world.service.CreateReview(context.Background(), userID, "rider", 10, reviews.CreateReviewInput{
		Rating:  rating,
		Title:   "Solid lid",
		Comment: "Quiet at highway speeds and the ventilation works.",
	})
	require.NoError(t, err)
	return review
}

// # Service Tests

func TestService_CreateReview(t *testing.T) {
	t.Run("persists_approved_review", func(t *testing.T) {
		world := newTestWorld(t)

		review, err := world.service.CreateReview(context.Background(), 1, "dana", 10, reviews.CreateReviewInput{
			Rating:  5,
			Title:   "Best helmet I've owned",
			Comment: "Three seasons in and zero complaints.",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(10), review.ProductID)
		assert.Equal(t, "dana", review.Username)
		assert.True(t, review.IsApproved)
		assert.False(t, review.IsVerifiedPurchase)
	})

	t.Run("flags_verified_purchase", func(t *testing.T) {
		world := newTestWorld(t)
		world.reviewRepo.delivered[1] = map[int64]bool{10: true}

		review, err := world.service.CreateReview(context.Background(), 1, "dana", 10, reviews.CreateReviewInput{
			Rating:  4,
			Title:   "Good value",
			Comment: "Arrived fast, fits true to size.",
		})

		require.NoError(t, err)
		assert.True(t, review.IsVerifiedPurchase)
	})

	t.Run("rejects_out_of_range_rating", func(t *testing.T) {
		world := newTestWorld(t)

		for _, rating := range []int{0, 6} {
			_, err := world.service.CreateReview(context.Background(), 1, "dana", 10, reviews.CreateReviewInput{
				Rating:  rating,
				Title:   "Meh",
				Comment: "Rating out of bounds.",
			})
			require.Error(t, err)
			assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
		}
	})

	t.Run("rejects_missing_title_and_comment", func(t *testing.T) {
		world := newTestWorld(t)

		_, err := world.service.CreateReview(context.Background(), 1, "dana", 10, reviews.CreateReviewInput{
			Rating: 3,
		})

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("rejects_duplicate_review", func(t *testing.T) {
		world := newTestWorld(t)
		seedReview(t, world, 1, 5)

		_, err := world.service.CreateReview(context.Background(), 1, "rider", 10, reviews.CreateReviewInput{
			Rating:  2,
			Title:   "Changed my mind",
			Comment: "Trying to review twice.",
		})

		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	})

	t.Run("unknown_product", func(t *testing.T) {
		world := newTestWorld(t)

		_, err := world.service.CreateReview(context.Background(), 1, "dana", 999, reviews.CreateReviewInput{
			Rating:  5,
			Title:   "Ghost product",
			Comment: "Should not reach the repository.",
		})

		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})
}

func TestService_ListReviews(t *testing.T) {
	world := newTestWorld(t)
	seedReview(t, world, 1, 5)
	seedReview(t, world, 2, 3)

	page, total, err := world.service.ListReviews(context.Background(), 10, pagination.Params{Page: 1, PageSize: 10})

	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, page, 2)

	t.Run("unknown_product", func(t *testing.T) {
		_, _, err := world.service.ListReviews(context.Background(), 999, pagination.Params{Page: 1, PageSize: 10})
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})
}

func TestService_MarkHelpful(t *testing.T) {
	world := newTestWorld(t)
	seeded := seedReview(t, world, 1, 5)

	review, err := world.service.MarkHelpful(context.Background(), seeded.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, review.HelpfulCount)

	t.Run("rejects_repeat_vote", func(t *testing.T) {
		_, err := world.service.MarkHelpful(context.Background(), seeded.ID, 2)
		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	})

	t.Run("unknown_review", func(t *testing.T) {
		_, err := world.service.MarkHelpful(context.Background(), 999, 2)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})
}

func TestService_Summary(t *testing.T) {
	t.Run("empty_product_gets_canned_summary", func(t *testing.T) {
		world := newTestWorld(t)

		summary, err := world.service.Summary(context.Background(), 10)

		require.NoError(t, err)
		assert.Equal(t, "No reviews available for this product yet.", summary.Text)
		assert.Zero(t, summary.TotalReviews)
		assert.Zero(t, world.summaryRepo.upsertCalls)
		assert.Zero(t, world.summarizer.calls)
	})

	t.Run("generates_and_caches", func(t *testing.T) {
		world := newTestWorld(t)
		seedReview(t, world, 1, 5)
		seedReview(t, world, 2, 4)

		summary, err := world.service.Summary(context.Background(), 10)

		require.NoError(t, err)
		assert.Equal(t, "Riders praise the fit and finish.", summary.Text)
		assert.Equal(t, 2, summary.TotalReviews)
		assert.InDelta(t, 4.5, summary.AverageRating, 0.001)
		assert.InDelta(t, 0.75, summary.SentimentScore, 0.001)
		assert.Equal(t, 1, world.summaryRepo.upsertCalls)

		// Second read within the refresh window serves the cache
		_, err = world.service.Summary(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, 1, world.summarizer.calls)
	})

	t.Run("regenerates_when_count_changes", func(t *testing.T) {
		world := newTestWorld(t)
		seedReview(t, world, 1, 5)

		_, err := world.service.Summary(context.Background(), 10)
		require.NoError(t, err)

		seedReview(t, world, 2, 2)

		summary, err := world.service.Summary(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.TotalReviews)
		assert.Equal(t, 2, world.summarizer.calls)
	})

	t.Run("regenerates_when_cache_ages_out", func(t *testing.T) {
		world := newTestWorld(t)
		seedReview(t, world, 1, 4)

		_, err := world.service.Summary(context.Background(), 10)
		require.NoError(t, err)

		world.summaryRepo.mutex.Lock()
		world.summaryRepo.summaries[10].LastUpdated = time.Now().Add(-25 * time.Hour)
		world.summaryRepo.mutex.Unlock()

		_, err = world.service.Summary(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, 2, world.summarizer.calls)
	})

	t.Run("falls_back_when_summarizer_fails", func(t *testing.T) {
		world := newTestWorld(t)
		world.summarizer.err = errors.New("upstream timeout")
		seedReview(t, world, 1, 5)
		seedReview(t, world, 2, 5)

		summary, err := world.service.Summary(context.Background(), 10)

		require.NoError(t, err)
		assert.Contains(t, summary.Text, "2 customer reviews")
		assert.Contains(t, summary.Text, "generally very satisfied")
		assert.Equal(t, 1, world.summaryRepo.upsertCalls)
	})

	t.Run("drops_cache_when_reviews_disappear", func(t *testing.T) {
		world := newTestWorld(t)
		seedReview(t, world, 1, 4)

		_, err := world.service.Summary(context.Background(), 10)
		require.NoError(t, err)

		world.reviewRepo.statsOverride = &reviews.RatingStats{}

		summary, err := world.service.Summary(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, "No reviews available for this product yet.", summary.Text)
		assert.Equal(t, 1, world.summaryRepo.deleteCalls)
	})

	t.Run("unknown_product", func(t *testing.T) {
		world := newTestWorld(t)

		_, err := world.service.Summary(context.Background(), 999)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})
}

func TestSentimentScore(t *testing.T) {
	assert.InDelta(t, 1.0, reviews.SentimentScore(5), 0.001)
	assert.InDelta(t, 0.0, reviews.SentimentScore(3), 0.001)
	assert.InDelta(t, -1.0, reviews.SentimentScore(1), 0.001)
	assert.InDelta(t, -1.0, reviews.SentimentScore(0), 0.001)
}
