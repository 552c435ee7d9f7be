// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package catalog

import "time"

// Category classifies products into a browsable hierarchy (e.g. Motorcycles
// → Sport, Gear → Helmets). Depth is unbounded in the schema but the
// storefront renders two levels.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	ParentID    *int64 `json:"parent_id,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	SortOrder   int    `json:"sort_order"`
	IsActive    bool   `json:"is_active"`

	// ProductCount counts active products directly in this category.
	ProductCount int `json:"product_count"`

	// Children is populated only by the tree endpoint.
	Children []*Category `json:"children,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
