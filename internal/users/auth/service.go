// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

/*
Package auth implements the core identity and access management (IAM) system.

It handles everything from user registration and secure password hashing to
session lifecycle management via JWT, refresh tokens (Postgres) and ambient
storefront sessions (Redis).

Architecture:

  - Service: Orchestrates business logic (Register, Login, Sessions).
  - Repository: Abstracted interfaces for Postgres (Users, Refresh Sessions)
    and Redis (Ambient Sessions).
  - Security: Leverages Bcrypt and RSA-signed JWTs.

The package ensures that identity data remains consistent and secure throughout
the shop's lifecycle.
*/
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/motoworld/api/internal/platform/apperr"
	"github.com/motoworld/api/internal/platform/sec"
	"github.com/motoworld/api/pkg/pagination"
	"github.com/motoworld/api/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for generating security tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT string for the given user.
	//
	// # Parameters
	//   - userID: The ID of the account.
	//   - username: The username of the account.
	//   - role: The role of the account.
	//   - timeToLive: The duration before the token expires.
	//
	// # Returns
	//   - A signed JWT string, or an err if signing fails.
	GenerateAccessToken(userID int64, username, role string, timeToLive time.Duration) (string, error)
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed carefully.
type Service struct {
	userRepository    UserRepository
	sessionRepository SessionRepository
	ambientSessions   AmbientSessionRepository
	tokenProvider     TokenProvider
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	ambientRepo AmbientSessionRepository,
	tokenProv TokenProvider,
) *Service {
	return &Service{
		userRepository:    userRepo,
		sessionRepository: sessionRepo,
		ambientSessions:   ambientRepo,
		tokenProvider:     tokenProv,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	UserAgent string
	IPAddress string
}

// TokenPair carries the two JWT-era credentials returned on registration.
type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Deep-enrollment of a new member; issues an initial token pair so
the storefront can sign the user in immediately after registration.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - *TokenPair: Initial refresh/access credentials
  - err: Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, *TokenPair, error) {

	// Verify email uniqueness. Return a client-safe Conflict err.
	_, err := service.userRepository.FindByEmail(context, input.Email)
	if err == nil {
		return nil, nil, apperr.Conflict("Email is already registered")
	}

	// Verify username uniqueness. Return a client-safe Conflict err.
	_, err = service.userRepository.FindByUsername(context, input.Username)
	if err == nil {
		return nil, nil, apperr.Conflict("Username is already taken")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. The ID is assigned by the database.
	user := &User{
		Username:     input.Username,
		Email:        strings.ToLower(input.Email),
		PasswordHash: hashedPassword,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Role:         sec.RoleCustomer,
		IsActive:     true,
	}

	// Persist the user to the database
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	// Issue the initial token pair so the client can proceed authenticated
	tokens, err := service.issueTokenPair(context, user, input.UserAgent, input.IPAddress)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// issueTokenPair creates an access token plus a tracked refresh token session.
func (service *Service) issueTokenPair(context context.Context, user *User, userAgent, ipAddress string) (*TokenPair, error) {

	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Username, string(user.Role), AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	// Create and persist the tracking session
	session := &Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(refreshToken),
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: time.Now().Add(RefreshTokenTTL),
		IsRevoked: false,
	}

	if err := service.sessionRepository.Create(context, session); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	return &TokenPair{Refresh: refreshToken, Access: accessToken}, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username  string
	Password  string
	UserAgent string
	IPAddress string
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken      string
	RefreshToken     string
	SessionToken     string
	SessionExpiresAt time.Time
	User             *User
}

/*
Login validates user credentials and issues security tokens.

Description: Verifies identity, performs constant-time password comparison,
issues a refresh/access pair AND establishes an ambient server-side session
so both the token-based and cookie-based storefront paths work after a
single login.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session identifiers
  - err: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {
	var user *User
	var err error
	// Flexible login: look up by Username or Email
	user, err = service.userRepository.FindByUsername(context, input.Username)
	if err != nil {
		user, err = service.userRepository.FindByEmail(context, strings.ToLower(input.Username))
	}

	// If (err != nil) the user does not exist. Generic message to prevent enumeration.
	if err != nil {
		return nil, apperr.Unauthorized("Invalid username or password")
	}

	// Verify password hash using constant-time comparison in bcrypt to prevent timing attacks
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid username or password")
	}

	// Issue the refresh/access pair with a tracked session row
	tokens, err := service.issueTokenPair(context, user, input.UserAgent, input.IPAddress)
	if err != nil {
		return nil, err
	}

	// Establish the ambient cookie session in Redis
	sessionToken, err := sec.GenerateSecureToken(AmbientSessionTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_session_token_failed: %w", err)
	}

	claims := &sec.AuthClaims{UserID: user.ID, Username: user.Username, Role: string(user.Role)}
	if err := service.ambientSessions.Set(context, sessionToken, claims, AmbientSessionTTL); err != nil {
		return nil, fmt.Errorf("auth_service_ambient_session_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:      tokens.Access,
		RefreshToken:     tokens.Refresh,
		SessionToken:     sessionToken,
		SessionExpiresAt: time.Now().Add(AmbientSessionTTL),
		User:             user,
	}, nil
}

// # Session Management

/*
RefreshAccess exchanges a valid refresh token for a new access token.

Description: Verifies the tracked refresh session and mints a fresh access
token. The refresh token itself stays valid until its expiry; the storefront
clients hold on to the same refresh credential across renewals.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - string: New signed access token
  - err: Unauthorized or storage failures
*/
func (service *Service) RefreshAccess(context context.Context, refreshToken string) (string, error) {

	// Hash the incoming refresh token to look it up
	tokenHash := sec.HashToken(refreshToken)
	session, err := service.sessionRepository.FindByTokenHash(context, tokenHash)

	// If (err != nil) the token is either expired, already revoked, or completely invalid.
	if err != nil {
		return "", apperr.Unauthorized("Invalid or expired refresh token")
	}

	// Fetch the user associated with this session
	user, err := service.userRepository.FindByID(context, session.UserID)
	if err != nil {
		return "", apperr.Unauthorized("User not found or deactivated")
	}

	// Generate a fresh Access Token
	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Username, string(user.Role), AccessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("auth_service_refresh_access_token_failed: %w", err)
	}

	return accessToken, nil
}

/*
VerifySession resolves an ambient session token into identity claims.

Description: Backs the "sessionid" cookie path in the authentication
middleware.

Parameters:
  - context: context.Context
  - sessionToken: string

Returns:
  - *sec.AuthClaims: Stored identity claims
  - err: NotFound when absent or expired
*/
func (service *Service) VerifySession(context context.Context, sessionToken string) (*sec.AuthClaims, error) {
	return service.ambientSessions.Get(context, sessionToken)
}

/*
LogoutSession terminates an ambient cookie session.

Description: Idempotent; a missing session is treated as already logged out.

Parameters:
  - context: context.Context
  - sessionToken: string

Returns:
  - err: Deletion failures
*/
func (service *Service) LogoutSession(context context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	if err := service.ambientSessions.Delete(context, sessionToken); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

// # Profile Management

/*
Profile returns the identity object for the given account.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - *User: Hydrated account
  - err: NotFound or storage failures
*/
func (service *Service) Profile(context context.Context, userID int64) (*User, error) {
	return service.userRepository.FindByID(context, userID)
}

// UpdateProfileInput carries the mutable profile fields. Nil pointers mean
// "leave unchanged" so a PATCH can send any subset.
type UpdateProfileInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Phone     *string
	Address   *string
}

/*
UpdateProfile applies a partial update to the user's profile fields.

Parameters:
  - context: context.Context
  - userID: int64
  - input: UpdateProfileInput

Returns:
  - *User: Updated account
  - err: NotFound, Conflict (email taken) or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID int64, input UpdateProfileInput) (*User, error) {

	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		user.Email = strings.ToLower(*input.Email)
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Address != nil {
		user.Address = *input.Address
	}

	if err := service.userRepository.Update(context, user); err != nil {
		return nil, err
	}

	return user, nil
}

/*
ChangePassword allows an authenticated user to update their credentials.

Description: Verifies the current password, then revokes every refresh
session so other devices must log in again.

Parameters:
  - context: context.Context
  - userID: int64
  - currentPassword: string
  - newPassword: string

Returns:
  - err: Unauthorized or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID int64, currentPassword, newPassword string) error {

	// Fetch user by ID
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	// Verify the current password before allowing change
	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	// Hash the brand new password
	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	// Update the database with the new hash
	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	// Security Side Effect: Revoke refresh sessions to force re-login on other devices
	_ = service.sessionRepository.RevokeAll(context, userID)

	return nil
}

// # Availability Checks

/*
CheckUsername reports whether a username is free to register.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - bool: true when the username is available
  - err: Unexpected storage failures
*/
func (service *Service) CheckUsername(context context.Context, username string) (bool, error) {
	_, err := service.userRepository.FindByUsername(context, username)
	if err == nil {
		return false, nil
	}
	if appError := apperr.As(err); appError != nil && appError.Code == "NOT_FOUND" {
		return true, nil
	}
	return false, err
}

/*
CheckEmail reports whether an email is free to register.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - bool: true when the email is available
  - err: Unexpected storage failures
*/
func (service *Service) CheckEmail(context context.Context, email string) (bool, error) {
	_, err := service.userRepository.FindByEmail(context, strings.ToLower(email))
	if err == nil {
		return false, nil
	}
	if appError := apperr.As(err); appError != nil && appError.Code == "NOT_FOUND" {
		return true, nil
	}
	return false, err
}

// # Administration

/*
ListUsers returns a page of accounts for the admin panel.

Parameters:
  - context: context.Context
  - params: pagination.Params

Returns:
  - []*User: Page of accounts
  - int: Total account count
  - err: Storage failures
*/
func (service *Service) ListUsers(context context.Context, params pagination.Params) ([]*User, int, error) {
	return service.userRepository.List(context, params)
}

/*
UserStats returns aggregate account counters.

Parameters:
  - context: context.Context

Returns:
  - *Stats: Aggregated counters
  - err: Storage failures
*/
func (service *Service) UserStats(context context.Context) (*Stats, error) {
	return service.userRepository.Stats(context)
}
