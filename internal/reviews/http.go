// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

/*
HTTP interface for product reviews and AI summaries.

Review listing and summaries are public; writing a review or voting on
one requires authentication.
*/
package reviews

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/motoworld/api/internal/platform/middleware"
	requestutil "github.com/motoworld/api/internal/platform/request"
	"github.com/motoworld/api/internal/platform/respond"
	"github.com/motoworld/api/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for reviews.
type Handler struct {
	service *Service
}

// NewHandler constructs a new reviews [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the review endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Public Reads
	router.Get("/products/{productID}/", handler.listReviews)
	router.Get("/products/{productID}/summary/", handler.getSummary)

	// ## Authenticated Writes
	router.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth)
		authed.Post("/products/{productID}/", handler.createReview)
		authed.Post("/{id}/helpful/", handler.markHelpful)
	})

	return router
}

// # Endpoint Handlers

/*
GET /api/reviews/products/{productID}/.

Response:
  - 200: Paginated list envelope of approved reviews, newest first
  - 404: ErrNotFound: Unknown product
*/
func (handler *Handler) listReviews(writer http.ResponseWriter, request *http.Request) {
	productID, err := requestutil.IntParam(request, "productID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)

	reviewsPage, total, err := handler.service.ListReviews(request.Context(), productID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Results(writer, reviewsPage, total, pagination.NewLinks(request, params, total))
}

/*
POST /api/reviews/products/{productID}/.

Response:
  - 201: Review: The persisted review
  - 400: Validation: Rating outside 1-5 or missing title/comment
  - 409: ErrConflict: Caller already reviewed this product
*/
func (handler *Handler) createReview(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	productID, err := requestutil.IntParam(request, "productID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateReviewInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	review, err := handler.service.CreateReview(
		request.Context(),
		claims.UserID,
		claims.Username,
		productID,
		input,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, review)
}

/*
POST /api/reviews/{id}/helpful/.

Response:
  - 200: Review: The review with its refreshed helpful count
  - 404: ErrNotFound: Unknown review
  - 409: ErrConflict: Caller already voted on this review
*/
func (handler *Handler) markHelpful(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	reviewID, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	review, err := handler.service.MarkHelpful(request.Context(), reviewID, userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, review)
}

/*
GET /api/reviews/products/{productID}/summary/.

Description: Serves the cached AI summary, regenerating when the review
count changed or the cache aged out.

Response:
  - 200: Summary: Current summary for the product
  - 404: ErrNotFound: Unknown product
*/
func (handler *Handler) getSummary(writer http.ResponseWriter, request *http.Request) {
	productID, err := requestutil.IntParam(request, "productID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	summary, err := handler.service.Summary(request.Context(), productID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, summary)
}
