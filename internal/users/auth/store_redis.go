// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/motoworld/api/internal/platform/apperr"
	"github.com/motoworld/api/internal/platform/constants"
	"github.com/motoworld/api/internal/platform/sec"
)

// # Ambient Session Repository

// RedisAmbientSessionRepository implements AmbientSessionRepository using Redis.
//
// Sessions are volatile by design: losing Redis logs everyone out of their
// cookie sessions but never touches refresh tokens or accounts.
type RedisAmbientSessionRepository struct {
	client *redis.Client
}

// NewAmbientSessionRepository creates a new Redis-backed AmbientSessionRepository.
func NewAmbientSessionRepository(client *redis.Client) *RedisAmbientSessionRepository {
	return &RedisAmbientSessionRepository{client: client}
}

// sessionClaims is the Redis serialization of the identity claims.
type sessionClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"unm"`
	Role     string `json:"rol"`
}

/*
Set stores the claims for an opaque session token with a TTL.

Parameters:
  - context: context.Context
  - token: string
  - claims: *sec.AuthClaims
  - ttl: time.Duration

Returns:
  - error: Serialization or execution errors
*/
func (repository *RedisAmbientSessionRepository) Set(context context.Context, token string, claims *sec.AuthClaims, ttl time.Duration) error {

	// Use constants for key prefix
	key := constants.RedisPrefixSession + token

	// Serialize the minimal identity payload
	payload, err := json.Marshal(sessionClaims{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	})
	if err != nil {
		return fmt.Errorf("redis_session_marshal_failed: %w", err)
	}

	// Set the session with TTL
	if err := repository.client.Set(context, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_set_failed: %w", err)
	}

	// Return nil on success
	return nil
}

/*
Get resolves an opaque session token into the stored claims.

Description: Returns apperr.NotFound if the session is absent or expired.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *sec.AuthClaims: Stored identity claims
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisAmbientSessionRepository) Get(context context.Context, token string) (*sec.AuthClaims, error) {

	// Use constants for key prefix
	key := constants.RedisPrefixSession + token

	// Get the session from Redis
	payload, err := repository.client.Get(context, key).Bytes()

	// Handle errors
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Session is invalid or expired")
		}
		return nil, fmt.Errorf("redis_session_get_failed: %w", err)
	}

	// Deserialize the identity payload
	var stored sessionClaims
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("redis_session_unmarshal_failed: %w", err)
	}

	return &sec.AuthClaims{
		UserID:   stored.UserID,
		Username: stored.Username,
		Role:     stored.Role,
	}, nil
}

/*
Delete removes the session token from Redis.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisAmbientSessionRepository) Delete(context context.Context, token string) error {

	// Use constants for key prefix
	key := constants.RedisPrefixSession + token

	// Delete the session from Redis
	if err := repository.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}

	// Return nil on success
	return nil
}
