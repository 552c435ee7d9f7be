// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

// Package pagination provides shared types and helpers for API list endpoints.
//
// # Overview
//
// It standardizes how page-based navigation is requested via query parameters
// and how the navigational links are delivered in the list envelope. The
// envelope follows the legacy storefront contract: a total count plus
// absolute "next"/"previous" URLs (null when absent). Clients derive their
// pagination affordance solely from the presence of those links.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultPageSize is the number of items per page if not specified.
	DefaultPageSize = 20
	// MaxPageSize is the upper bound for items per page to prevent system abuse.
	MaxPageSize = 100
	// DefaultPage is the starting page (1-indexed).
	DefaultPage = 1
)

// Params holds the parsed page and page size from a request's query string.
type Params struct {
	Page     int
	PageSize int
}

// Offset returns the SQL OFFSET value derived from [Page] and [PageSize].
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Links holds the navigational URLs for a page of results.
//
// A nil pointer renders as JSON null, which callers interpret as "no such
// page". Total page counts are never exposed; the links are the only
// affordance.
type Links struct {
	Next     *string
	Previous *string
}

// NewLinks builds the next/previous URLs for the given request and result set.
//
// The URLs preserve every query parameter of the original request and only
// rewrite the "page" parameter, so active filters survive navigation.
func NewLinks(r *http.Request, p Params, total int) Links {
	var links Links

	if p.Page*p.PageSize < total {
		links.Next = pageURL(r, p.Page+1)
	}
	if p.Page > 1 {
		links.Previous = pageURL(r, p.Page-1)
	}

	return links
}

// pageURL clones the request URL with the page parameter replaced.
func pageURL(r *http.Request, page int) *string {
	u := *r.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	s := u.String()
	return &s
}

// FromRequest parses "page" and "page_size" query parameters from an HTTP request.
//
// # Clamping
//
// Invalid, negative, or excessive values are automatically clamped to
// [DefaultPage], [DefaultPageSize], or [MaxPageSize].
func FromRequest(r *http.Request) Params {
	page := parseIntParam(r, "page", DefaultPage)
	size := parseIntParam(r, "page_size", DefaultPageSize)

	if page < 1 {
		page = DefaultPage
	}

	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	return Params{Page: page, PageSize: size}
}

// parseIntParam parses a single integer query parameter with a fallback default.
func parseIntParam(r *http.Request, key string, defaultVal int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}

	return n
}
