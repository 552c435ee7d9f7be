// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motoworld/api/pkg/pagination"
)

/*
TestFromRequest verifies query parsing and clamping behavior.
*/
func TestFromRequest(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		wantPage     int
		wantPageSize int
	}{
		{"defaults", "/api/products/", 1, 20},
		{"explicit", "/api/products/?page=3&page_size=50", 3, 50},
		{"negative_page", "/api/products/?page=-1", 1, 20},
		{"zero_size", "/api/products/?page_size=0", 1, 20},
		{"excessive_size", "/api/products/?page_size=5000", 1, 100},
		{"garbage", "/api/products/?page=abc&page_size=xyz", 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			p := pagination.FromRequest(r)

			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPageSize, p.PageSize)
		})
	}
}

/*
TestParams_Offset checks the page → SQL offset conversion.
*/
func TestParams_Offset(t *testing.T) {
	assert.Equal(t, 0, pagination.Params{Page: 1, PageSize: 20}.Offset())
	assert.Equal(t, 20, pagination.Params{Page: 2, PageSize: 20}.Offset())
	assert.Equal(t, 0, pagination.Params{Page: 0, PageSize: 20}.Offset())
}

/*
TestNewLinks verifies that the navigation links are present exactly when a
neighboring page exists, and that filter parameters survive the rewrite.
*/
func TestNewLinks(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		page     int
		total    int
		wantNext bool
		wantPrev bool
	}{
		{"single_page", "/api/products/", 1, 5, false, false},
		{"first_of_many", "/api/products/", 1, 45, true, false},
		{"middle", "/api/products/?page=2", 2, 45, true, true},
		{"last", "/api/products/?page=3", 3, 45, false, true},
		{"exact_boundary", "/api/products/?page=2", 2, 40, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			links := pagination.NewLinks(r, pagination.Params{Page: tt.page, PageSize: 20}, tt.total)

			assert.Equal(t, tt.wantNext, links.Next != nil)
			assert.Equal(t, tt.wantPrev, links.Previous != nil)
		})
	}
}

/*
TestNewLinks_PreservesFilters ensures active filters are carried into the links.
*/
func TestNewLinks_PreservesFilters(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/products/?page=2&category=4&price_max=100", nil)
	links := pagination.NewLinks(r, pagination.Params{Page: 2, PageSize: 20}, 100)

	require.NotNil(t, links.Next)
	require.NotNil(t, links.Previous)

	assert.Contains(t, *links.Next, "page=3")
	assert.Contains(t, *links.Next, "category=4")
	assert.Contains(t, *links.Next, "price_max=100")
	assert.Contains(t, *links.Previous, "page=1")
}
