// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package reviews

import (
	"context"
	"log/slog"
	"time"

	"github.com/motoworld/api/internal/catalog"
	"github.com/motoworld/api/internal/platform/apperr"
	"github.com/motoworld/api/internal/platform/validate"
	"github.com/motoworld/api/pkg/pagination"
)

// ProductFinder is the narrow slice of the catalogue the review domain
// needs: resolving a product for validation and summary prompts.
type ProductFinder interface {
	FindByID(context context.Context, id int64) (*catalog.Product, error)
}

// Service implements the review domain's business logic.
type Service struct {
	reviewRepo  ReviewRepository
	summaryRepo SummaryRepository
	products    ProductFinder
	summarizer  Summarizer
	logger      *slog.Logger
}

// NewService wires the review service with its dependencies.
func NewService(
	reviewRepo ReviewRepository,
	summaryRepo SummaryRepository,
	products ProductFinder,
	summarizer Summarizer,
	logger *slog.Logger,
) *Service {
	return &Service{
		reviewRepo:  reviewRepo,
		summaryRepo: summaryRepo,
		products:    products,
		summarizer:  summarizer,
		logger:      logger,
	}
}

/*
ListReviews returns a page of approved reviews for a product.

Parameters:
  - context: context.Context
  - productID: int64
  - params: pagination.Params

Returns:
  - []*Review: Approved reviews, newest first (never nil)
  - int: Total approved review count
  - error: apperr.NotFound for unknown products
*/
func (service *Service) ListReviews(context context.Context, productID int64, params pagination.Params) ([]*Review, int, error) {
	if _, err := service.products.FindByID(context, productID); err != nil {
		return nil, 0, err
	}

	reviewsPage, totalCount, err := service.reviewRepo.ListApproved(context, productID, params)
	if err != nil {
		return nil, 0, err
	}

	if reviewsPage == nil {
		reviewsPage = []*Review{}
	}

	return reviewsPage, totalCount, nil
}

// CreateReviewInput carries the client-supplied fields of a new review.
type CreateReviewInput struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

/*
CreateReview validates and persists a review for a product.

Each user may review a product once. The review is marked as a verified
purchase when the user has a delivered order containing the product.

Parameters:
  - context: context.Context
  - userID: int64
  - username: string
  - productID: int64
  - input: CreateReviewInput

Returns:
  - *Review: The persisted review
  - error: Validation, conflict, or persistence failures
*/
func (service *Service) CreateReview(context context.Context, userID int64, username string, productID int64, input CreateReviewInput) (*Review, error) {
	if _, err := service.products.FindByID(context, productID); err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Range(FieldRating, input.Rating, 1, 5)
	validator.Required(FieldTitle, input.Title).MaxLen(FieldTitle, input.Title, 200)
	validator.Required(FieldComment, input.Comment).MaxLen(FieldComment, input.Comment, 5000)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	verified, err := service.reviewRepo.HasDeliveredOrder(context, userID, productID)
	if err != nil {
		return nil, err
	}

	review := &Review{
		ProductID:          productID,
		UserID:             userID,
		Username:           username,
		Rating:             input.Rating,
		Title:              input.Title,
		Comment:            input.Comment,
		IsApproved:         true,
		IsVerifiedPurchase: verified,
	}

	if err := service.reviewRepo.Create(context, review); err != nil {
		return nil, err
	}

	service.logger.Info("review_created",
		slog.Int64("review_id", review.ID),
		slog.Int64("product_id", productID),
		slog.Int64("user_id", userID),
		slog.Int("rating", review.Rating),
		slog.Bool("verified_purchase", review.IsVerifiedPurchase),
	)

	return review, nil
}

/*
MarkHelpful records a helpfulness vote on a review.

Parameters:
  - context: context.Context
  - reviewID: int64
  - userID: int64

Returns:
  - *Review: The review with its refreshed helpful count
  - error: apperr.NotFound for unknown reviews, apperr.Conflict on a
    repeat vote
*/
func (service *Service) MarkHelpful(context context.Context, reviewID, userID int64) (*Review, error) {
	return service.reviewRepo.MarkHelpful(context, reviewID, userID)
}

/*
Summary returns the AI-generated review summary for a product,
regenerating it when stale.

A cached summary is reused while its review count matches the live
count and it is younger than [SummaryRefreshWindow]. Products without
reviews get a canned empty summary and any cached row is dropped.

Parameters:
  - context: context.Context
  - productID: int64

Returns:
  - *Summary: Current summary for the product
  - error: apperr.NotFound for unknown products
*/
func (service *Service) Summary(context context.Context, productID int64) (*Summary, error) {
	product, err := service.products.FindByID(context, productID)
	if err != nil {
		return nil, err
	}

	stats, err := service.reviewRepo.Stats(context, productID)
	if err != nil {
		return nil, err
	}

	cached, err := service.summaryRepo.Find(context, productID)
	if err == nil && !cached.Stale(stats.Count, time.Now()) {
		return cached, nil
	}
	if err != nil {
		if appError := apperr.As(err); appError == nil || appError.Code != "NOT_FOUND" {
			return nil, err
		}
	}

	if stats.Count == 0 {
		if cached != nil {
			if err := service.summaryRepo.Delete(context, productID); err != nil {
				return nil, err
			}
		}
		return EmptySummary(productID), nil
	}

	return service.regenerate(context, product, stats)
}

// regenerate builds a fresh summary from the most recent reviews and
// caches it. Summarizer failures fall back to a templated text so the
// endpoint stays available without the AI provider.
func (service *Service) regenerate(context context.Context, product *catalog.Product, stats RatingStats) (*Summary, error) {
	recent, err := service.reviewRepo.Recent(context, product.ID, SummaryMaxReviews)
	if err != nil {
		return nil, err
	}

	text, err := service.summarizer.Summarize(context, product.Name, recent)
	if err != nil {
		service.logger.Warn("review_summary_fallback",
			slog.Int64("product_id", product.ID),
			slog.String("error", err.Error()),
		)
		text = FallbackSummaryText(stats.Count, stats.Average)
	}

	summary := &Summary{
		ProductID:      product.ID,
		Text:           text,
		TotalReviews:   stats.Count,
		AverageRating:  stats.Average,
		SentimentScore: SentimentScore(stats.Average),
	}

	if err := service.summaryRepo.Upsert(context, summary); err != nil {
		return nil, err
	}

	service.logger.Info("review_summary_generated",
		slog.Int64("product_id", product.ID),
		slog.Int("total_reviews", stats.Count),
	)

	return summary, nil
}
