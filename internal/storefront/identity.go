// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package storefront

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

// # Identity

// Identity is the resolved current user. A nil *Identity is the guest
// state, which is ordinary and never an error.
type Identity struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Role        string `json:"role"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// DisplayName prefers the real name and falls back to the username.
func (identity *Identity) DisplayName() string {
	name := strings.TrimSpace(identity.FirstName + " " + identity.LastName)
	if name != "" {
		return name
	}
	return identity.Username
}

// wellFormed guards against stale or truncated cache entries.
func (identity *Identity) wellFormed() bool {
	return identity != nil && identity.Username != ""
}

// # Session

/*
Session owns identity resolution and logout.

Resolution order (first success wins, no retries across steps):

 1. Cached identity from local storage — returned without any network
    call, favouring responsiveness over freshness.
 2. Bearer-token profile fetch, when a token is held. A failure here
    neither clears the token nor raises; it falls through.
 3. Cookie-only profile fetch over the ambient server session.

Every successful resolution re-caches the identity for step 1 of the
next load.
*/
type Session struct {
	client   *Client
	storage  Storage
	logger   *slog.Logger
	identity *Identity
}

// NewSession wires a [Session] over a client and its storage.
func NewSession(client *Client, storage Storage, logger *slog.Logger) *Session {
	return &Session{
		client:  client,
		storage: storage,
		logger:  logger,
	}
}

// Current returns the last resolved identity, nil for guests.
func (session *Session) Current() *Identity {
	return session.identity
}

/*
ResolveIdentity establishes the current identity. Idempotent; intended
to run once per page load.

Parameters:
  - context: context.Context

Returns:
  - *Identity: The resolved identity, or nil for the guest state
*/
func (session *Session) ResolveIdentity(context context.Context) *Identity {
	// Step 1: local cache, zero network
	if cached, ok := getEither(session.storage, KeyCurrentUser, KeyUser); ok {
		identity := &Identity{}
		if err := json.Unmarshal([]byte(cached), identity); err == nil && identity.wellFormed() {
			session.identity = identity
			return identity
		}
		session.logger.Debug("identity_cache_malformed")
	}

	// Step 2: bearer token, kept even when rejected
	if _, ok := session.client.AccessToken(); ok {
		identity, err := session.client.Profile(context, true)
		if err == nil {
			session.remember(identity)
			return identity
		}
		session.logger.Debug("bearer_profile_failed", slog.String("error", err.Error()))
	}

	// Step 3: ambient session cookie
	identity, err := session.client.Profile(context, false)
	if err != nil {
		session.logger.Debug("cookie_profile_failed", slog.String("error", err.Error()))
		session.identity = nil
		return nil
	}

	session.remember(identity)
	return identity
}

// remember caches a resolved identity for the next load.
func (session *Session) remember(identity *Identity) {
	session.identity = identity

	encoded, err := json.Marshal(identity)
	if err != nil {
		return
	}
	if err := setBoth(session.storage, KeyCurrentUser, KeyUser, string(encoded)); err != nil {
		session.logger.Warn("identity_cache_write_failed", slog.String("error", err.Error()))
	}
}

/*
Login authenticates and adopts the returned identity.

Parameters:
  - context: context.Context
  - username: string
  - password: string

Returns:
  - *Identity: The authenticated identity
  - error: *APIError on rejected credentials
*/
func (session *Session) Login(context context.Context, username, password string) (*Identity, error) {
	identity, err := session.client.Login(context, username, password)
	if err != nil {
		return nil, err
	}

	session.identity = identity
	return identity, nil
}

/*
Logout clears every locally persisted key, then invalidates the server
session.

The local clear happens first and unconditionally: relying on the
server round-trip alone would leave stale tokens visible if the network
is slow or down.
*/
func (session *Session) Logout(context context.Context) {
	for _, key := range allKeys {
		if err := session.storage.Delete(key); err != nil {
			session.logger.Warn("logout_clear_failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
	session.identity = nil

	if err := session.client.Logout(context); err != nil {
		session.logger.Warn("server_logout_failed", slog.String("error", err.Error()))
	}
}
