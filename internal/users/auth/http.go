// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

/*
Package auth provides the HTTP delivery layer for user identity management.

It implements the gateway for the authentication lifecycle—from account creation
to session management across both credential paths (JWT bearer tokens and the
ambient "sessionid" cookie).

# Architecture

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: Standard RESTful JSON interface with the legacy trailing-slash paths.
  - Security: Handles JWT orchestration and session cookie injection.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/
package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/motoworld/api/internal/platform/constants"
	"github.com/motoworld/api/internal/platform/middleware"
	requestutil "github.com/motoworld/api/internal/platform/request"
	"github.com/motoworld/api/internal/platform/respond"
	"github.com/motoworld/api/internal/platform/sec"
	"github.com/motoworld/api/internal/platform/validate"
	"github.com/motoworld/api/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages everything related to the user lifecycle entry points
// (Registration, Login, Profile, Admin listings).
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register/       : Creates a new account.
//   - POST /login/          : Authenticates, returns JWTs AND sets the session cookie.
//   - POST /token/refresh/  : Exchanges a refresh token for a new access token.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register/", handler.register)
	router.Post("/login/", handler.login)
	router.Post("/token/refresh/", handler.refresh)
	router.Post("/check-username/", handler.checkUsername)
	router.Post("/check-email/", handler.checkEmail)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/profile/", handler.profile)
		r.Patch("/profile/", handler.updateProfile)
		r.Post("/change-password/", handler.changePassword)
	})

	// Admin endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Get("/users/", handler.listUsers)
		r.Get("/stats/", handler.stats)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type updateProfileRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type checkUsernameRequest struct {
	Username string `json:"username"`
}

type checkEmailRequest struct {
	Email string `json:"email"`
}

/*
Register handles the creation of a new user account.

POST /api/auth/register/

Description: Validates input, checks for identity conflicts, persists the
profile and issues the initial token pair.

Request:
  - Body: registerRequest (Username, Email, Password, ...)

Response:
  - 201: {user, tokens:{refresh, access}}
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Username or Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, 3).
		Username(FieldUsername, input.Username).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Custom(FieldPassword, input.PasswordConfirm != "" && input.PasswordConfirm != input.Password, "Password fields do not match")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, tokens, err := handler.authService.Register(request.Context(), RegisterInput{
		Username:  input.Username,
		Email:     input.Email,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
		UserAgent: request.UserAgent(),
		IPAddress: middleware.RealIP(request),
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]any{
		FieldUser: user.Profile(),
		"tokens":  tokens,
	})
}

/*
Login authenticates a user and establishes both session paths.

POST /api/auth/login/

Description: Verifies credentials, returns the JWT pair in the body and ALSO
sets the HttpOnly "sessionid" cookie backing server-rendered navigation. The
two credential paths are deliberately established by the single call.

Request:
  - Body: loginRequest (Username, Password)

Response:
  - 200: {access, refresh, user}
  - 401: ErrUnauthorized: Invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Username:  input.Username,
		Password:  input.Password,
		UserAgent: request.UserAgent(),
		IPAddress: middleware.RealIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setSessionCookie(writer, session.SessionToken, session.SessionExpiresAt)

	respond.OK(writer, map[string]any{
		"access":  session.AccessToken,
		"refresh": session.RefreshToken,
		FieldUser: session.User.Profile(),
	})
}

/*
Refresh issues a new access token from a refresh token.

POST /api/auth/token/refresh/

Description: Validates the refresh token sent in the request body and mints a
fresh access token. The refresh token is carried in the body rather than a
cookie so the token-based storefront path stays cookie-free.

Request:
  - Body: refreshRequest (Refresh)

Response:
  - 200: {access}
  - 401: ErrUnauthorized: Missing or invalid refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Refresh == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefresh, "This field is required"))
		return
	}

	accessToken, err := handler.authService.RefreshAccess(request.Context(), input.Refresh)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		"access": accessToken,
	})
}

/*
Profile returns the authenticated user's identity object.

GET /api/auth/profile/

Description: Resolves the caller's identity from either credential path
(bearer token or session cookie) and returns the full profile.

Response:
  - 200: Profile: Identity object
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Profile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user.Profile())
}

/*
UpdateProfile applies a partial update to the caller's profile.

PATCH /api/auth/profile/

Request:
  - Body: updateProfileRequest (any subset of email, first_name, last_name, phone, address)

Response:
  - 200: Profile: Updated identity object
  - 400: ErrInvalidJSON: Validation failure
  - 409: ErrConflict: Email already registered
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.Email != nil {
		validator.Required(FieldEmail, *input.Email).Email(FieldEmail, *input.Email)
	}
	if input.FirstName != nil {
		validator.MaxLen(FieldFirstName, *input.FirstName, 150)
	}
	if input.LastName != nil {
		validator.MaxLen(FieldLastName, *input.LastName, 150)
	}
	if input.Phone != nil {
		validator.MaxLen(FieldPhone, *input.Phone, 32)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
		Address:   input.Address,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user.Profile())
}

/*
ChangePassword updates the authenticated user's password.

POST /api/auth/change-password/

Description: Verifies the current password before applying a new one; all
refresh sessions are revoked as a side effect.

Request:
  - Body: changePasswordRequest (CurrentPassword, NewPassword)

Response:
  - 200: Success: Password changed
  - 401: ErrUnauthorized: Current password incorrect
  - 400: ErrInvalidJSON: Weak password or validation failure
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, 8)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.authService.ChangePassword(
		request.Context(),
		userID,
		input.CurrentPassword,
		input.NewPassword,
	)

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password changed successfully",
	})
}

/*
CheckUsername reports whether a username is available.

POST /api/auth/check-username/

Request:
  - Body: checkUsernameRequest (Username)

Response:
  - 200: {username, is_available}
*/
func (handler *Handler) checkUsername(writer http.ResponseWriter, request *http.Request) {
	var input checkUsernameRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Username == "" {
		respond.Error(writer, request, validate.RequiredError(FieldUsername, "This field is required"))
		return
	}

	available, err := handler.authService.CheckUsername(request.Context(), input.Username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldUsername:  input.Username,
		"is_available": available,
	})
}

/*
CheckEmail reports whether an email is available.

POST /api/auth/check-email/

Request:
  - Body: checkEmailRequest (Email)

Response:
  - 200: {email, is_available}
*/
func (handler *Handler) checkEmail(writer http.ResponseWriter, request *http.Request) {
	var input checkEmailRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	available, err := handler.authService.CheckEmail(request.Context(), input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldEmail:     input.Email,
		"is_available": available,
	})
}

/*
ListUsers returns a page of all accounts.

GET /api/auth/users/?page=N

Description: Admin-only listing in the standard list envelope.

Response:
  - 200: ListEnvelope of Profile
  - 403: ErrForbidden: Insufficient permissions
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, total, err := handler.authService.ListUsers(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profiles := make([]*Profile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, user.Profile())
	}

	respond.Results(writer, profiles, total, pagination.NewLinks(request, params, total))
}

/*
Stats returns aggregate account counters.

GET /api/auth/stats/

Response:
  - 200: Stats
  - 403: ErrForbidden: Insufficient permissions
*/
func (handler *Handler) stats(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.authService.UserStats(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, stats)
}

/*
LogoutRedirect terminates the ambient cookie session and redirects home.

GET /logout/

Description: Mounted at the site root rather than under /api/auth because the
legacy storefront issues a full-page navigation to /logout/. Revokes the Redis
session, expires the cookie, and 302-redirects to /.
*/
func (handler *Handler) LogoutRedirect(writer http.ResponseWriter, request *http.Request) {
	if cookie, err := request.Cookie(constants.SessionCookieName); err == nil && cookie.Value != "" {
		_ = handler.authService.LogoutSession(request.Context(), cookie.Value)
	}

	clearSessionCookie(writer)
	http.Redirect(writer, request, "/", http.StatusFound)
}

// setSessionCookie injects the HttpOnly ambient session cookie.
func setSessionCookie(writer http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     constants.SessionCookiePath,
		Expires:  expiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the ambient session cookie on the client.
func clearSessionCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
