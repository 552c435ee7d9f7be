// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package reviews

import (
	"context"

	"github.com/motoworld/api/pkg/pagination"
)

// # Repository Contracts

// ReviewRepository defines the persistence contract for reviews and votes.
type ReviewRepository interface {

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
	ListApproved(context context.Context, productID int64, params pagination.Params) ([]*Review, int, error)

	/*
		Recent returns up to limit approved reviews, newest first, for
		feeding the summarizer.

		Parameters:
		  - context: context.Context
		  - productID: int64
		  - limit: int

		Returns:
		  - []*Review: Recent approved reviews
		  - error: Database execution errors
	*/
	Recent(context context.Context, productID int64, limit int) ([]*Review, error)

	/*
		Create inserts a review and refreshes the product's rating
		aggregates in the same transaction.

		Parameters:
		  - context: context.Context
		  - review: *Review

		Returns:
		  - error: apperr.Conflict when the user already reviewed the
		    product, or persistence failures
	*/
	Create(context context.Context, review *Review) error

	/*
		MarkHelpful records a user's helpfulness vote and bumps the
		review's counter atomically.

		Parameters:
		  - context: context.Context
		  - reviewID: int64
		  - userID: int64

		Returns:
		  - *Review: The review with the refreshed counter
		  - error: apperr.NotFound for unknown reviews, apperr.Conflict
		    when the user voted before
	*/
	MarkHelpful(context context.Context, reviewID, userID int64) (*Review, error)

	/*
		Stats aggregates the approved reviews of a product.

		Parameters:
		  - context: context.Context
		  - productID: int64

		Returns:
		  - RatingStats: Count and average (zero values when unreviewed)
		  - error: Database execution errors
	*/
	Stats(context context.Context, productID int64) (RatingStats, error)

	/*
		HasDeliveredOrder reports whether the user received the product
		in a delivered order (drives the verified-purchase flag).

		Parameters:
		  - context: context.Context
		  - userID: int64
		  - productID: int64

		Returns:
		  - bool: true when a delivered order contains the product
		  - error: Database execution errors
	*/
	HasDeliveredOrder(context context.Context, userID, productID int64) (bool, error)
}

// SummaryRepository defines the persistence contract for cached summaries.
type SummaryRepository interface {

	/*
		Find returns the cached summary row for a product.

		Parameters:
		  - context: context.Context
		  - productID: int64

		Returns:
		  - *Summary: The cached row
		  - error: apperr.NotFound when never generated
	*/
	Find(context context.Context, productID int64) (*Summary, error)

	/*
		Upsert creates or replaces the summary row for a product.

		Parameters:
		  - context: context.Context
		  - summary: *Summary

		Returns:
		  - error: Persistence failures
	*/
	Upsert(context context.Context, summary *Summary) error

	/*
		Delete removes the summary row (used when the last review goes).

		Parameters:
		  - context: context.Context
		  - productID: int64

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, productID int64) error
}
