// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package auth

import "time"

// # Authentication Constraints

const (
	// AccessTokenTTL is the duration a JWT access token remains valid.
	// We keep it short (15m) to minimize the impact of a leaked token.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the duration a refresh token remains valid.
	// Long-lived (30 days) to provide a good user experience.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random secure token.
	RefreshTokenLength = 32

	// AmbientSessionTTL is the lifetime of the server-side "sessionid"
	// session. Two weeks, matching the legacy storefront behavior.
	AmbientSessionTTL = 14 * 24 * time.Hour

	// AmbientSessionTokenLength is the byte length of the opaque session token.
	AmbientSessionTokenLength = 32
)
