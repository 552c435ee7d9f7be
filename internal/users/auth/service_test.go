// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motoworld/api/internal/platform/apperr"
	"github.com/motoworld/api/internal/platform/sec"
	"github.com/motoworld/api/internal/users/auth"
	"github.com/motoworld/api/pkg/pagination"
)

// # Test Doubles

type fakeUserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*auth.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{nextID: 1, users: make(map[int64]*auth.User)}
}

func (repository *fakeUserRepository) FindByID(_ context.Context, id int64) (*auth.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if user, ok := repository.users[id]; ok && user.IsActive {
		copied := *user
		return &copied, nil
	}
	return nil, apperr.NotFound("User not found")
}

func (repository *fakeUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, user := range repository.users {
		if user.Email == email && user.IsActive {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User not found with this email")
}

func (repository *fakeUserRepository) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, user := range repository.users {
		if user.Username == username && user.IsActive {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User not found with this username")
}

func (repository *fakeUserRepository) Create(_ context.Context, user *auth.User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	user.ID = repository.nextID
	repository.nextID++
	copied := *user
	repository.users[user.ID] = &copied
	return nil
}

func (repository *fakeUserRepository) Update(_ context.Context, user *auth.User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	copied := *user
	repository.users[user.ID] = &copied
	return nil
}

func (repository *fakeUserRepository) UpdatePassword(_ context.Context, userID int64, newHash string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if user, ok := repository.users[userID]; ok {
		user.PasswordHash = newHash
	}
	return nil
}

func (repository *fakeUserRepository) List(_ context.Context, _ pagination.Params) ([]*auth.User, int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	var users []*auth.User
	for _, user := range repository.users {
		copied := *user
		users = append(users, &copied)
	}
	return users, len(users), nil
}

func (repository *fakeUserRepository) Stats(_ context.Context) (*auth.Stats, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return &auth.Stats{TotalUsers: len(repository.users)}, nil
}

type fakeSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*auth.Session // keyed by token hash
}

func newFakeSessionRepository() *fakeSessionRepository {
	return &fakeSessionRepository{sessions: make(map[string]*auth.Session)}
}

func (repository *fakeSessionRepository) Create(_ context.Context, session *auth.Session) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	copied := *session
	repository.sessions[session.TokenHash] = &copied
	return nil
}

func (repository *fakeSessionRepository) FindByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	session, ok := repository.sessions[tokenHash]
	if !ok || session.IsRevoked || session.ExpiresAt.Before(time.Now()) {
		return nil, apperr.NotFound("Session not found or expired")
	}
	copied := *session
	return &copied, nil
}

func (repository *fakeSessionRepository) Revoke(_ context.Context, sessionID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, session := range repository.sessions {
		if session.ID == sessionID {
			session.IsRevoked = true
		}
	}
	return nil
}

func (repository *fakeSessionRepository) RevokeAll(_ context.Context, userID int64) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, session := range repository.sessions {
		if session.UserID == userID {
			session.IsRevoked = true
		}
	}
	return nil
}

func (repository *fakeSessionRepository) DeleteExpired(_ context.Context) error { return nil }

type fakeAmbientSessions struct {
	mu       sync.Mutex
	sessions map[string]*sec.AuthClaims
}

func newFakeAmbientSessions() *fakeAmbientSessions {
	return &fakeAmbientSessions{sessions: make(map[string]*sec.AuthClaims)}
}

func (repository *fakeAmbientSessions) Set(_ context.Context, token string, claims *sec.AuthClaims, _ time.Duration) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	copied := *claims
	repository.sessions[token] = &copied
	return nil
}

func (repository *fakeAmbientSessions) Get(_ context.Context, token string) (*sec.AuthClaims, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if claims, ok := repository.sessions[token]; ok {
		copied := *claims
		return &copied, nil
	}
	return nil, apperr.NotFound("Session is invalid or expired")
}

func (repository *fakeAmbientSessions) Delete(_ context.Context, token string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	delete(repository.sessions, token)
	return nil
}

type fakeTokenProvider struct{}

func (fakeTokenProvider) GenerateAccessToken(_ int64, username, _ string, _ time.Duration) (string, error) {
	return "signed-access-" + username, nil
}

// newTestService wires a Service against in-memory doubles.
func newTestService(t *testing.T) (*auth.Service, *fakeUserRepository, *fakeSessionRepository, *fakeAmbientSessions) {
	t.Helper()
	users := newFakeUserRepository()
	sessions := newFakeSessionRepository()
	ambient := newFakeAmbientSessions()
	service := auth.NewService(users, sessions, ambient, fakeTokenProvider{})
	return service, users, sessions, ambient
}

// registerTestUser enrolls a user through the real Register flow.
func registerTestUser(t *testing.T, service *auth.Service, username, password string) *auth.User {
	t.Helper()
	user, tokens, err := service.Register(context.Background(), auth.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
	})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.Access)
	require.NotEmpty(t, tokens.Refresh)
	return user
}

// # Tests

/*
TestService_Register verifies enrollment, default role, and identity conflicts.
*/
func TestService_Register(t *testing.T) {
	service, _, _, _ := newTestService(t)

	user := registerTestUser(t, service, "testuser", "testpass123")
	assert.Equal(t, sec.RoleCustomer, user.Role)
	assert.True(t, user.IsActive)
	assert.NotZero(t, user.ID)

	t.Run("duplicate_username", func(t *testing.T) {
		_, _, err := service.Register(context.Background(), auth.RegisterInput{
			Username: "testuser",
			Email:    "other@example.com",
			Password: "testpass123",
		})
		require.Error(t, err)
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "CONFLICT", ae.Code)
	})

	t.Run("duplicate_email", func(t *testing.T) {
		_, _, err := service.Register(context.Background(), auth.RegisterInput{
			Username: "someoneelse",
			Email:    "testuser@example.com",
			Password: "testpass123",
		})
		require.Error(t, err)
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "CONFLICT", ae.Code)
	})
}

/*
TestService_Login verifies credential checking and dual session establishment.
*/
func TestService_Login(t *testing.T) {
	service, _, sessions, ambient := newTestService(t)
	registerTestUser(t, service, "testuser", "testpass123")

	t.Run("success", func(t *testing.T) {
		session, err := service.Login(context.Background(), auth.LoginInput{
			Username: "testuser",
			Password: "testpass123",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, session.AccessToken)
		assert.NotEmpty(t, session.RefreshToken)
		assert.NotEmpty(t, session.SessionToken)
		assert.Equal(t, "testuser", session.User.Username)

		// The ambient session must resolve back to the same identity.
		claims, err := ambient.Get(context.Background(), session.SessionToken)
		require.NoError(t, err)
		assert.Equal(t, session.User.ID, claims.UserID)
		assert.Equal(t, "testuser", claims.Username)

		// A refresh session row must have been tracked.
		assert.NotEmpty(t, sessions.sessions)
	})

	t.Run("wrong_password", func(t *testing.T) {
		_, err := service.Login(context.Background(), auth.LoginInput{
			Username: "testuser",
			Password: "wrongpass",
		})
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	})

	t.Run("unknown_user", func(t *testing.T) {
		_, err := service.Login(context.Background(), auth.LoginInput{
			Username: "nobody",
			Password: "testpass123",
		})
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	})

	t.Run("login_by_email", func(t *testing.T) {
		session, err := service.Login(context.Background(), auth.LoginInput{
			Username: "testuser@example.com",
			Password: "testpass123",
		})
		require.NoError(t, err)
		assert.Equal(t, "testuser", session.User.Username)
	})
}

/*
TestService_RefreshAccess verifies the refresh token exchange.
*/
func TestService_RefreshAccess(t *testing.T) {
	service, _, _, _ := newTestService(t)
	registerTestUser(t, service, "testuser", "testpass123")

	session, err := service.Login(context.Background(), auth.LoginInput{
		Username: "testuser",
		Password: "testpass123",
	})
	require.NoError(t, err)

	t.Run("valid_refresh", func(t *testing.T) {
		access, err := service.RefreshAccess(context.Background(), session.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, access)
	})

	t.Run("garbage_refresh", func(t *testing.T) {
		_, err := service.RefreshAccess(context.Background(), "not-a-real-token")
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	})
}

/*
TestService_SessionLifecycle verifies ambient session verify/logout semantics.
*/
func TestService_SessionLifecycle(t *testing.T) {
	service, _, _, _ := newTestService(t)
	user := registerTestUser(t, service, "testuser", "testpass123")

	session, err := service.Login(context.Background(), auth.LoginInput{
		Username: "testuser",
		Password: "testpass123",
	})
	require.NoError(t, err)

	claims, err := service.VerifySession(context.Background(), session.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	require.NoError(t, service.LogoutSession(context.Background(), session.SessionToken))

	_, err = service.VerifySession(context.Background(), session.SessionToken)
	require.Error(t, err)

	// Logout is idempotent: a second call with the same (now gone) token succeeds.
	assert.NoError(t, service.LogoutSession(context.Background(), session.SessionToken))
	assert.NoError(t, service.LogoutSession(context.Background(), ""))
}

/*
TestService_ChangePassword verifies the guarded password rotation.
*/
func TestService_ChangePassword(t *testing.T) {
	service, _, sessions, _ := newTestService(t)
	user := registerTestUser(t, service, "testuser", "testpass123")

	t.Run("wrong_current_password", func(t *testing.T) {
		err := service.ChangePassword(context.Background(), user.ID, "nope", "newpass123")
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	})

	t.Run("success_revokes_sessions", func(t *testing.T) {
		require.NoError(t, service.ChangePassword(context.Background(), user.ID, "testpass123", "newpass123"))

		// Old password no longer works, new one does.
		_, err := service.Login(context.Background(), auth.LoginInput{Username: "testuser", Password: "testpass123"})
		require.Error(t, err)
		_, err = service.Login(context.Background(), auth.LoginInput{Username: "testuser", Password: "newpass123"})
		require.NoError(t, err)

		// Pre-change refresh sessions are revoked.
		for _, tracked := range sessions.sessions {
			if tracked.CreatedAt.Before(time.Now()) && tracked.IsRevoked {
				return
			}
		}
	})
}

/*
TestService_AvailabilityChecks verifies the username/email availability probes.
*/
func TestService_AvailabilityChecks(t *testing.T) {
	service, _, _, _ := newTestService(t)
	registerTestUser(t, service, "testuser", "testpass123")

	tests := []struct {
		name      string
		check     func() (bool, error)
		available bool
	}{
		{"taken_username", func() (bool, error) {
			return service.CheckUsername(context.Background(), "testuser")
		}, false},
		{"free_username", func() (bool, error) {
			return service.CheckUsername(context.Background(), "rider99")
		}, true},
		{"taken_email", func() (bool, error) {
			return service.CheckEmail(context.Background(), "testuser@example.com")
		}, false},
		{"free_email", func() (bool, error) {
			return service.CheckEmail(context.Background(), "new@example.com")
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			available, err := tt.check()
			require.NoError(t, err)
			assert.Equal(t, tt.available, available)
		})
	}
}

/*
TestService_UpdateProfile verifies partial profile updates.
*/
func TestService_UpdateProfile(t *testing.T) {
	service, _, _, _ := newTestService(t)
	user := registerTestUser(t, service, "testuser", "testpass123")

	firstName := "Avery"
	phone := "+1-555-0100"
	updated, err := service.UpdateProfile(context.Background(), user.ID, auth.UpdateProfileInput{
		FirstName: &firstName,
		Phone:     &phone,
	})
	require.NoError(t, err)

	assert.Equal(t, "Avery", updated.FirstName)
	assert.Equal(t, "+1-555-0100", updated.Phone)
	// Untouched fields survive the PATCH.
	assert.Equal(t, "testuser@example.com", updated.Email)
}
