// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package auth

import (
	"context"
	"time"

	"github.com/motoworld/api/internal/platform/sec"
	"github.com/motoworld/api/pkg/pagination"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id int64) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		Create persists a brand-new user account and assigns its ID.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		Update persists changes to mutable profile fields.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, user *User) error

	/*
		UpdatePassword replaces only the user's password hash.

		Parameters:
		  - context: context.Context
		  - userID: int64
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, userID int64, newHash string) error

	/*
		List returns a page of accounts ordered by registration date.

		Parameters:
		  - context: context.Context
		  - params: pagination.Params

		Returns:
		  - []*User: Page of accounts
		  - int: Total account count (for the list envelope)
		  - error: Database retrieval failures
	*/
	List(context context.Context, params pagination.Params) ([]*User, int, error)

	/*
		Stats returns aggregate account counters for the admin dashboard.

		Parameters:
		  - context: context.Context

		Returns:
		  - *Stats: Aggregated counters
		  - error: Database retrieval failures
	*/
	Stats(context context.Context) (*Stats, error)
}

// # Refresh Session Data Access

// SessionRepository defines the data access contract for refresh-token sessions.
type SessionRepository interface {

	/*
		Create persists a new tracking session for an authenticated login.

		Parameters:
		  - context: context.Context
		  - session: *Session

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, session *Session) error

	/*
		FindByTokenHash returns the active session matching the given token hash.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - *Session: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByTokenHash(context context.Context, tokenHash string) (*Session, error)

	/*
		Revoke marks a specific session as permanently invalidated.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - error: Persistence failures
	*/
	Revoke(context context.Context, sessionID string) error

	/*
		RevokeAll revokes every active session belonging to the userID.

		Parameters:
		  - context: context.Context
		  - userID: int64

		Returns:
		  - error: Persistence failures
	*/
	RevokeAll(context context.Context, userID int64) error

	/*
		DeleteExpired physically removes sessions whose ExpiresAt is in the past.

		Parameters:
		  - context: context.Context

		Returns:
		  - error: Persistence failures
	*/
	DeleteExpired(context context.Context) error
}

// # Ambient Session Data Access

// AmbientSessionRepository defines the contract for the volatile server-side
// sessions that back the "sessionid" cookie.
type AmbientSessionRepository interface {

	/*
		Set stores the claims for an opaque session token with a TTL.

		Parameters:
		  - context: context.Context
		  - token: string
		  - claims: *sec.AuthClaims
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, token string, claims *sec.AuthClaims, ttl time.Duration) error

	/*
		Get resolves an opaque session token into the stored claims.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - *sec.AuthClaims: Stored identity claims
		  - error: apperr.NotFound when absent or expired
	*/
	Get(context context.Context, token string) (*sec.AuthClaims, error)

	/*
		Delete removes a session token on logout.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, token string) error
}
