// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

/*
PostgreSQL implementation for the review domain's data access.

Review creation and helpfulness votes run in transactions so the
denormalized counters (product rating aggregates, helpful counts) can
never drift from the underlying rows.
*/
package reviews

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/motoworld/api/internal/platform/apperr"
	"github.com/motoworld/api/internal/platform/dberr"
	"github.com/motoworld/api/pkg/pagination"
)

// # Review Repository

// reviewRepository implements the [ReviewRepository] interface using pgx.
type reviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository constructs a PostgreSQL backed review store.
func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &reviewRepository{pool: pool}
}

const reviewColumns = `
	r.id, r.productid, r.userid, u.username, r.rating, r.title, r.comment,
	r.isapproved, r.isverifiedpurchase, r.helpfulcount, r.createdat, r.updatedat`

// scanReview reads one hydrated review row.
func scanReview(row pgx.Row, extra ...any) (*Review, error) {
	review := &Review{}
	dest := []any{
		&review.ID,
		&review.ProductID,
		&review.UserID,
		&review.Username,
		&review.Rating,
		&review.Title,
		&review.Comment,
		&review.IsApproved,
		&review.IsVerifiedPurchase,
		&review.HelpfulCount,
		&review.CreatedAt,
		&review.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return review, nil
}

/*
ListApproved returns a page of approved reviews, newest first.

Parameters:
  - context: context.Context
  - productID: int64
  - params: pagination.Params

Returns:
  - []*Review: Page of reviews with usernames hydrated
  - int: Total approved review count for the product
  - error: Database execution errors
*/
func (repository *reviewRepository) ListApproved(context context.Context, productID int64, params pagination.Params) ([]*Review, int, error) {
	query := `
		SELECT ` + reviewColumns + `,
			COUNT(*) OVER() AS total_count
		FROM reviews.review r
		JOIN users.account u ON u.id = r.userid
		WHERE r.productid = $1 AND r.isapproved = TRUE
		ORDER BY r.createdat DESC, r.id DESC
		LIMIT $2 OFFSET $3`

	rows, err := repository.pool.Query(context, query, productID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviewsPage []*Review
	var totalCount int

	for rows.Next() {
		review, err := scanReview(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan review: %w", err)
		}
		reviewsPage = append(reviewsPage, review)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres: failed reading review rows: %w", err)
	}

	return reviewsPage, totalCount, nil
}

/*
Recent returns up to limit approved reviews, newest first.

Parameters:
  - context: context.Context
  - productID: int64
  - limit: int

Returns:
  - []*Review: Recent approved reviews
  - error: Database execution errors
*/
func (repository *reviewRepository) Recent(context context.Context, productID int64, limit int) ([]*Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews.review r
		JOIN users.account u ON u.id = r.userid
		WHERE r.productid = $1 AND r.isapproved = TRUE
		ORDER BY r.createdat DESC, r.id DESC
		LIMIT $2`

	rows, err := repository.pool.Query(context, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list recent reviews: %w", err)
	}
	defer rows.Close()

	var reviewSet []*Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan review: %w", err)
		}
		reviewSet = append(reviewSet, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed reading recent review rows: %w", err)
	}

	return reviewSet, nil
}

/*
Create inserts a review and refreshes the product's rating aggregates in
the same transaction.

Parameters:
  - context: context.Context
  - review: *Review

Returns:
  - error: apperr.Conflict on a duplicate (product, user) pair,
    or persistence failures
*/
func (repository *reviewRepository) Create(context context.Context, review *Review) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	const insert = `
		INSERT INTO reviews.review (
			productid, userid, rating, title, comment, isapproved, isverifiedpurchase
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, createdat, updatedat`

	err = transaction.QueryRow(context, insert,
		review.ProductID,
		review.UserID,
		review.Rating,
		review.Title,
		review.Comment,
		review.IsApproved,
		review.IsVerifiedPurchase,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		if dberr.IsUniqueViolation(err, "") {
			return apperr.Conflict("You have already reviewed this product")
		}
		return fmt.Errorf("postgres: failed to create review: %w", err)
	}

	// Keep the catalogue's denormalized rating metrics in sync
	const refreshAggregates = `
		UPDATE catalog.product
		SET ratingavg = COALESCE((
				SELECT AVG(rating) FROM reviews.review
				WHERE productid = $1 AND isapproved = TRUE
			), 0),
			ratingcount = (
				SELECT COUNT(*) FROM reviews.review
				WHERE productid = $1 AND isapproved = TRUE
			)
		WHERE id = $1`

	if _, err := transaction.Exec(context, refreshAggregates, review.ProductID); err != nil {
		return fmt.Errorf("postgres: failed to refresh rating aggregates: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit review transaction: %w", err)
	}

	return nil
}

/*
MarkHelpful records a user's helpfulness vote and bumps the review's
counter atomically.

Parameters:
  - context: context.Context
  - reviewID: int64
  - userID: int64

Returns:
  - *Review: The review with the refreshed counter
  - error: apperr.NotFound for unknown reviews, apperr.Conflict when
    the user voted before
*/
func (repository *reviewRepository) MarkHelpful(context context.Context, reviewID, userID int64) (*Review, error) {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	query := `
		SELECT ` + reviewColumns + `
		FROM reviews.review r
		JOIN users.account u ON u.id = r.userid
		WHERE r.id = $1`

	review, err := scanReview(transaction.QueryRow(context, query, reviewID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Review")
		}
		return nil, fmt.Errorf("postgres: failed to load review: %w", err)
	}

	const insertVote = `
		INSERT INTO reviews.reviewhelpful (reviewid, userid)
		VALUES ($1, $2)`

	if _, err := transaction.Exec(context, insertVote, reviewID, userID); err != nil {
		if dberr.IsUniqueViolation(err, "") {
			return nil, apperr.Conflict("You have already marked this review as helpful")
		}
		return nil, fmt.Errorf("postgres: failed to record helpful vote: %w", err)
	}

	const bump = `
		UPDATE reviews.review
		SET helpfulcount = helpfulcount + 1, updatedat = NOW()
		WHERE id = $1
		RETURNING helpfulcount, updatedat`

	if err := transaction.QueryRow(context, bump, reviewID).Scan(&review.HelpfulCount, &review.UpdatedAt); err != nil {
		return nil, fmt.Errorf("postgres: failed to bump helpful count: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return nil, fmt.Errorf("postgres: failed to commit vote transaction: %w", err)
	}

	return review, nil
}

/*
Stats aggregates the approved reviews of a product.

Parameters:
  - context: context.Context
  - productID: int64

Returns:
  - RatingStats: Count and average (zero values when unreviewed)
  - error: Database execution errors
*/
func (repository *reviewRepository) Stats(context context.Context, productID int64) (RatingStats, error) {
	const query = `
		SELECT COUNT(*), COALESCE(AVG(rating), 0)
		FROM reviews.review
		WHERE productid = $1 AND isapproved = TRUE`

	var stats RatingStats
	if err := repository.pool.QueryRow(context, query, productID).Scan(&stats.Count, &stats.Average); err != nil {
		return RatingStats{}, fmt.Errorf("postgres: failed to aggregate reviews: %w", err)
	}

	return stats, nil
}

/*
HasDeliveredOrder reports whether the user received the product in a
delivered order.

Parameters:
  - context: context.Context
  - userID: int64
  - productID: int64

Returns:
  - bool: true when a delivered order contains the product
  - error: Database execution errors
*/
func (repository *reviewRepository) HasDeliveredOrder(context context.Context, userID, productID int64) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1
			FROM orders.customerorder o
			JOIN orders.orderitem i ON i.orderid = o.id
			WHERE o.userid = $1 AND i.productid = $2 AND o.status = 'delivered'
		)`

	var exists bool
	if err := repository.pool.QueryRow(context, query, userID, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres: failed to check delivered orders: %w", err)
	}

	return exists, nil
}

// # Summary Repository

// summaryRepository implements the [SummaryRepository] interface using pgx.
type summaryRepository struct {
	pool *pgxpool.Pool
}

// NewSummaryRepository constructs a PostgreSQL backed summary store.
func NewSummaryRepository(pool *pgxpool.Pool) SummaryRepository {
	return &summaryRepository{pool: pool}
}

/*
Find returns the cached summary row for a product.

Parameters:
  - context: context.Context
  - productID: int64

Returns:
  - *Summary: The cached row
  - error: apperr.NotFound when never generated
*/
func (repository *summaryRepository) Find(context context.Context, productID int64) (*Summary, error) {
	const query = `
		SELECT productid, summary, totalreviews, averagerating, sentimentscore,
			lastupdated, createdat
		FROM reviews.reviewsummary
		WHERE productid = $1`

	summary := &Summary{}
	err := repository.pool.QueryRow(context, query, productID).Scan(
		&summary.ProductID,
		&summary.Text,
		&summary.TotalReviews,
		&summary.AverageRating,
		&summary.SentimentScore,
		&summary.LastUpdated,
		&summary.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Review summary")
		}
		return nil, fmt.Errorf("postgres: failed to find review summary: %w", err)
	}

	return summary, nil
}

/*
Upsert creates or replaces the summary row for a product.

Parameters:
  - context: context.Context
  - summary: *Summary

Returns:
  - error: Persistence failures
*/
func (repository *summaryRepository) Upsert(context context.Context, summary *Summary) error {
	const query = `
		INSERT INTO reviews.reviewsummary (
			productid, summary, totalreviews, averagerating, sentimentscore
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (productid) DO UPDATE SET
			summary = EXCLUDED.summary,
			totalreviews = EXCLUDED.totalreviews,
			averagerating = EXCLUDED.averagerating,
			sentimentscore = EXCLUDED.sentimentscore,
			lastupdated = NOW()
		RETURNING lastupdated, createdat`

	err := repository.pool.QueryRow(context, query,
		summary.ProductID,
		summary.Text,
		summary.TotalReviews,
		summary.AverageRating,
		summary.SentimentScore,
	).Scan(&summary.LastUpdated, &summary.CreatedAt)

	if err != nil {
		return fmt.Errorf("postgres: failed to upsert review summary: %w", err)
	}

	return nil
}

/*
Delete removes the summary row.

Parameters:
  - context: context.Context
  - productID: int64

Returns:
  - error: Persistence failures
*/
func (repository *summaryRepository) Delete(context context.Context, productID int64) error {
	const query = "DELETE FROM reviews.reviewsummary WHERE productid = $1"

	if _, err := repository.pool.Exec(context, query, productID); err != nil {
		return fmt.Errorf("postgres: failed to delete review summary: %w", err)
	}

	return nil
}
