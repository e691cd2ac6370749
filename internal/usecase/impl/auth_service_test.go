package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"gestor/config"
	"gestor/internal/domain/entity"
	domainerrors "gestor/internal/domain/errors"
	"gestor/internal/domain/repository"
	"gestor/internal/domain/service"
	mockRepo "gestor/internal/mocks/repository"
	mockService "gestor/internal/mocks/service"
	"gestor/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth = &config.AuthConfig{
		AccessTokenTTL:        15 * time.Minute,
		RefreshTokenTTL:       7 * 24 * time.Hour,
		RefreshTokenRetention: 30 * 24 * time.Hour,
	}

	return cfg
}

func activeStaffUser() *entity.User {
	return &entity.User{
		ID:                uuid.New(),
		TenantID:          uuid.New(),
		Name:              "Maria Souza",
		Email:             "maria@example.com",
		Roles:             entity.Roles{entity.RoleGerente},
		MaxPrivilegeLevel: entity.RoleGerente.PrivilegeLevel(),
		Active:            true,
		PasswordHash:      "stored-password-hash",
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, testAuthConfig(), logger)

	ctx := context.Background()
	user := activeStaffUser()
	issued := &service.IssuedRefreshToken{
		Token:     "refresh-envelope",
		TokenHash: "refresh-hash",
		FamilyID:  uuid.New(),
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	accessExpiry := time.Now().Add(15 * time.Minute)

	hasher.EXPECT().Check("correct horse", user.PasswordHash).Return(true)
	fingerprint.EXPECT().Digest("device-1").Return("device-1-hash")
	tokenService.EXPECT().IssueRefreshToken(uuid.Nil).Return(issued, nil)
	tokenService.EXPECT().IssueAccessToken(user.ID, user.TenantID, "device-1").Return("access-token", accessExpiry, nil)

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockUserRepo.EXPECT().FindByIdentifier(ctx, "maria@example.com").Return(user, nil)

			return fn(mockFactory)
		})

	// The chain-head insert and last-login stamp run under the verified
	// identity's bound security context.
	scManager.EXPECT().
		ExecuteAs(ctx, user.SecurityContext(), mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, _ entity.SecurityContext, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

			mockRefreshRepo.EXPECT().
				CreateRefreshToken(ctx, mock.AnythingOfType("*entity.RefreshToken")).
				Run(func(ctx context.Context, token *entity.RefreshToken) {
					assert.Equal(t, user.ID, token.UserID)
					assert.Equal(t, issued.FamilyID, token.FamilyID)
					assert.Equal(t, issued.TokenHash, token.TokenHash)
					assert.Equal(t, "device-1-hash", token.DeviceHash)
					assert.False(t, token.Revoked)
				}).
				Return(nil)
			mockUserRepo.EXPECT().TouchLastLogin(ctx, user.ID).Return(nil)

			return fn(mockFactory)
		})

	out, err := authSvc.Login(ctx, usecase.LoginInput{
		Identifier: "maria@example.com",
		Password:   "correct horse",
		DeviceID:   "device-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "access-token", out.AccessToken)
	assert.Equal(t, "refresh-envelope", out.RefreshToken)
	assert.Equal(t, issued.ExpiresAt, out.RefreshExpiresAt)
	assert.Equal(t, user, out.User)
}

func TestAuthService_Login_UnknownIdentifier(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, testAuthConfig(), logger)

	ctx := context.Background()

	// The burn check keeps unknown identifiers as slow as real ones.
	hasher.EXPECT().Check("whatever", "burn-digest").Return(false)

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockUserRepo.EXPECT().FindByIdentifier(ctx, "ghost@example.com").Return(nil, repository.ErrUserNotFound)

			return fn(mockFactory)
		})

	out, err := authSvc.Login(ctx, usecase.LoginInput{
		Identifier: "ghost@example.com",
		Password:   "whatever",
		DeviceID:   "device-1",
	})

	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	assert.Nil(t, out)
	scManager.AssertNotCalled(t, "ExecuteAs", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, testAuthConfig(), logger)

	ctx := context.Background()
	user := activeStaffUser()
	user.Active = false

	hasher.EXPECT().Check("correct horse", "burn-digest").Return(false)

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockUserRepo.EXPECT().FindByIdentifier(ctx, user.Email).Return(user, nil)

			return fn(mockFactory)
		})

	_, err := authSvc.Login(ctx, usecase.LoginInput{
		Identifier: user.Email,
		Password:   "correct horse",
		DeviceID:   "device-1",
	})

	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_Login_ClientOnlyRoles(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, testAuthConfig(), logger)

	ctx := context.Background()
	user := activeStaffUser()
	user.Roles = entity.Roles{entity.RoleCliente}
	user.MaxPrivilegeLevel = 0

	hasher.EXPECT().Check("correct horse", "burn-digest").Return(false)

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockUserRepo.EXPECT().FindByIdentifier(ctx, user.Email).Return(user, nil)

			return fn(mockFactory)
		})

	_, err := authSvc.Login(ctx, usecase.LoginInput{
		Identifier: user.Email,
		Password:   "correct horse",
		DeviceID:   "device-1",
	})

	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, testAuthConfig(), logger)

	ctx := context.Background()
	user := activeStaffUser()

	hasher.EXPECT().Check("bad guess", user.PasswordHash).Return(false)

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockUserRepo.EXPECT().FindByIdentifier(ctx, user.Email).Return(user, nil)

			return fn(mockFactory)
		})

	_, err := authSvc.Login(ctx, usecase.LoginInput{
		Identifier: user.Email,
		Password:   "bad guess",
		DeviceID:   "device-1",
	})

	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	scManager.AssertNotCalled(t, "ExecuteAs", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Login_RetiresPresentedSession(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, testAuthConfig(), logger)

	ctx := context.Background()
	user := activeStaffUser()
	oldFamilyID := uuid.New()
	issued := &service.IssuedRefreshToken{
		Token:     "refresh-envelope",
		TokenHash: "refresh-hash",
		FamilyID:  uuid.New(),
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}

	tokenService.EXPECT().
		DecodeRefreshToken("stale-envelope").
		Return(&service.RefreshTokenClaims{TokenHash: "stale-hash", FamilyID: oldFamilyID}, nil)

	// First transaction retires the old family, second performs the login.
	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)
			mockRefreshRepo.EXPECT().RevokeFamily(ctx, oldFamilyID).Return(nil)

			return fn(mockFactory)
		}).
		Once()

	hasher.EXPECT().Check("correct horse", user.PasswordHash).Return(true)
	fingerprint.EXPECT().Digest("device-1").Return("device-1-hash")
	tokenService.EXPECT().IssueRefreshToken(uuid.Nil).Return(issued, nil)
	tokenService.EXPECT().IssueAccessToken(user.ID, user.TenantID, "device-1").Return("access-token", time.Now().Add(15*time.Minute), nil)

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockUserRepo.EXPECT().FindByIdentifier(ctx, user.Email).Return(user, nil)

			return fn(mockFactory)
		}).
		Once()

	scManager.EXPECT().
		ExecuteAs(ctx, user.SecurityContext(), mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, _ entity.SecurityContext, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

			mockRefreshRepo.EXPECT().CreateRefreshToken(ctx, mock.AnythingOfType("*entity.RefreshToken")).Return(nil)
			mockUserRepo.EXPECT().TouchLastLogin(ctx, user.ID).Return(nil)

			return fn(mockFactory)
		}).
		Once()

	out, err := authSvc.Login(ctx, usecase.LoginInput{
		Identifier:            user.Email,
		Password:              "correct horse",
		DeviceID:              "device-1",
		PresentedRefreshToken: "stale-envelope",
	})

	require.NoError(t, err)
	assert.Equal(t, "refresh-envelope", out.RefreshToken)
}

func TestAuthService_Refresh_Success(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, testAuthConfig(), logger)

	ctx := context.Background()
	user := activeStaffUser()
	familyID := uuid.New()
	node := &entity.RefreshToken{
		ID:         uuid.New(),
		UserID:     user.ID,
		FamilyID:   familyID,
		TokenHash:  "old-hash",
		DeviceHash: "device-1-hash",
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	issued := &service.IssuedRefreshToken{
		Token:     "next-envelope",
		TokenHash: "next-hash",
		FamilyID:  familyID,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}

	tokenService.EXPECT().
		DecodeRefreshToken("old-envelope").
		Return(&service.RefreshTokenClaims{TokenHash: "old-hash", FamilyID: familyID}, nil)
	fingerprint.EXPECT().Digest("device-1").Return("device-1-hash")
	tokenService.EXPECT().IssueRefreshToken(familyID).Return(issued, nil)
	tokenService.EXPECT().IssueAccessToken(user.ID, user.TenantID, "device-1").Return("new-access", time.Now().Add(15*time.Minute), nil)

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

			mockRefreshRepo.EXPECT().FindRefreshTokenByHash(ctx, "old-hash").Return(node, nil)
			mockUserRepo.EXPECT().FindByID(ctx, user.ID).Return(user, nil)
			mockRefreshRepo.EXPECT().
				RotateRefreshToken(ctx, node.ID, mock.AnythingOfType("*entity.RefreshToken")).
				Run(func(ctx context.Context, oldID uuid.UUID, next *entity.RefreshToken) {
					assert.Equal(t, familyID, next.FamilyID)
					assert.Equal(t, "next-hash", next.TokenHash)
					// The device binding travels unchanged down the chain.
					assert.Equal(t, node.DeviceHash, next.DeviceHash)
				}).
				Return(true, nil)

			return fn(mockFactory)
		})

	out, err := authSvc.Refresh(ctx, usecase.RefreshInput{RefreshToken: "old-envelope", DeviceID: "device-1"})

	require.NoError(t, err)
	assert.Equal(t, "new-access", out.AccessToken)
	assert.Equal(t, "next-envelope", out.RefreshToken)
	assert.Equal(t, user, out.User)
}

func TestAuthService_Refresh_UndecodableEnvelope(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, testAuthConfig(), logger)

	tokenService.EXPECT().DecodeRefreshToken("garbage").Return(nil, errors.New("bad signature"))

	out, err := authSvc.Refresh(context.Background(), usecase.RefreshInput{RefreshToken: "garbage", DeviceID: "device-1"})

	require.ErrorIs(t, err, domainerrors.ErrInvalidRefreshToken)
	assert.Nil(t, out)
	txManager.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestAuthService_Refresh_ReplayRevokesFamily(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, testAuthConfig(), logger)

	ctx := context.Background()
	familyID := uuid.New()
	node := &entity.RefreshToken{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		FamilyID:   familyID,
		TokenHash:  "consumed-hash",
		DeviceHash: "device-1-hash",
		ExpiresAt:  time.Now().Add(time.Hour),
		Revoked:    true,
	}

	tokenService.EXPECT().
		DecodeRefreshToken("consumed-envelope").
		Return(&service.RefreshTokenClaims{TokenHash: "consumed-hash", FamilyID: familyID}, nil)

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

			mockRefreshRepo.EXPECT().FindRefreshTokenByHash(ctx, "consumed-hash").Return(node, nil)

			return fn(mockFactory)
		}).
		Once()

	// The family is retired in a second transaction that commits even
	// though the first one failed.
	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)
			mockRefreshRepo.EXPECT().RevokeFamily(ctx, familyID).Return(nil)

			return fn(mockFactory)
		}).
		Once()

	out, err := authSvc.Refresh(ctx, usecase.RefreshInput{RefreshToken: "consumed-envelope", DeviceID: "device-1"})

	require.ErrorIs(t, err, domainerrors.ErrInvalidRefreshToken)
	assert.Nil(t, out)
}

func TestAuthService_Refresh_DeviceMismatchRevokesFamily(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, testAuthConfig(), logger)

	ctx := context.Background()
	familyID := uuid.New()
	node := &entity.RefreshToken{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		FamilyID:   familyID,
		TokenHash:  "old-hash",
		DeviceHash: "device-1-hash",
		ExpiresAt:  time.Now().Add(time.Hour),
	}

	tokenService.EXPECT().
		DecodeRefreshToken("old-envelope").
		Return(&service.RefreshTokenClaims{TokenHash: "old-hash", FamilyID: familyID}, nil)
	fingerprint.EXPECT().Digest("device-2").Return("device-2-hash")

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

			mockRefreshRepo.EXPECT().FindRefreshTokenByHash(ctx, "old-hash").Return(node, nil)

			return fn(mockFactory)
		}).
		Once()

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)
			mockRefreshRepo.EXPECT().RevokeFamily(ctx, familyID).Return(nil)

			return fn(mockFactory)
		}).
		Once()

	_, err := authSvc.Refresh(ctx, usecase.RefreshInput{RefreshToken: "old-envelope", DeviceID: "device-2"})

	require.ErrorIs(t, err, domainerrors.ErrInvalidRefreshToken)
}

func TestAuthService_Refresh_ExpiredDoesNotRevokeFamily(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, testAuthConfig(), logger)

	ctx := context.Background()
	familyID := uuid.New()
	node := &entity.RefreshToken{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		FamilyID:   familyID,
		TokenHash:  "old-hash",
		DeviceHash: "device-1-hash",
		ExpiresAt:  time.Now().Add(-time.Minute),
	}

	tokenService.EXPECT().
		DecodeRefreshToken("old-envelope").
		Return(&service.RefreshTokenClaims{TokenHash: "old-hash", FamilyID: familyID}, nil)

	// Expiry is a normal end of life, not a replay signal: exactly one
	// transaction runs and no revocation follows.
	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

			mockRefreshRepo.EXPECT().FindRefreshTokenByHash(ctx, "old-hash").Return(node, nil)

			return fn(mockFactory)
		}).
		Once()

	_, err := authSvc.Refresh(ctx, usecase.RefreshInput{RefreshToken: "old-envelope", DeviceID: "device-1"})

	require.ErrorIs(t, err, domainerrors.ErrInvalidRefreshToken)
	txManager.AssertNumberOfCalls(t, "Execute", 1)
}

func TestAuthService_Refresh_ConcurrentRotationLoserRevokesFamily(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, testAuthConfig(), logger)

	ctx := context.Background()
	user := activeStaffUser()
	familyID := uuid.New()
	node := &entity.RefreshToken{
		ID:         uuid.New(),
		UserID:     user.ID,
		FamilyID:   familyID,
		TokenHash:  "old-hash",
		DeviceHash: "device-1-hash",
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	issued := &service.IssuedRefreshToken{
		Token:     "next-envelope",
		TokenHash: "next-hash",
		FamilyID:  familyID,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}

	tokenService.EXPECT().
		DecodeRefreshToken("old-envelope").
		Return(&service.RefreshTokenClaims{TokenHash: "old-hash", FamilyID: familyID}, nil)
	fingerprint.EXPECT().Digest("device-1").Return("device-1-hash")
	tokenService.EXPECT().IssueRefreshToken(familyID).Return(issued, nil)

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

			mockRefreshRepo.EXPECT().FindRefreshTokenByHash(ctx, "old-hash").Return(node, nil)
			mockUserRepo.EXPECT().FindByID(ctx, user.ID).Return(user, nil)
			// The conditional consume finds zero rows: another request
			// rotated this node first.
			mockRefreshRepo.EXPECT().
				RotateRefreshToken(ctx, node.ID, mock.AnythingOfType("*entity.RefreshToken")).
				Return(false, nil)

			return fn(mockFactory)
		}).
		Once()

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)
			mockRefreshRepo.EXPECT().RevokeFamily(ctx, familyID).Return(nil)

			return fn(mockFactory)
		}).
		Once()

	_, err := authSvc.Refresh(ctx, usecase.RefreshInput{RefreshToken: "old-envelope", DeviceID: "device-1"})

	require.ErrorIs(t, err, domainerrors.ErrInvalidRefreshToken)
}

func TestAuthService_Logout_Success(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, testAuthConfig(), logger)

	ctx := context.Background()
	familyID := uuid.New()

	tokenService.EXPECT().
		DecodeRefreshToken("refresh-envelope").
		Return(&service.RefreshTokenClaims{TokenHash: "refresh-hash", FamilyID: familyID}, nil)

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)
			mockRefreshRepo.EXPECT().RevokeFamily(ctx, familyID).Return(nil)

			return fn(mockFactory)
		})

	err := authSvc.Logout(ctx, usecase.LogoutInput{RefreshToken: "refresh-envelope"})

	require.NoError(t, err)
}

func TestAuthService_Logout_UndecodableIsIdempotent(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, testAuthConfig(), logger)

	tokenService.EXPECT().DecodeRefreshToken("garbage").Return(nil, errors.New("bad signature"))

	err := authSvc.Logout(context.Background(), usecase.LogoutInput{RefreshToken: "garbage"})

	require.NoError(t, err)
	txManager.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestAuthService_Logout_StorageError(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, testAuthConfig(), logger)

	ctx := context.Background()
	familyID := uuid.New()

	tokenService.EXPECT().
		DecodeRefreshToken("refresh-envelope").
		Return(&service.RefreshTokenClaims{TokenHash: "refresh-hash", FamilyID: familyID}, nil)

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Return(errors.New("connection reset"))

	err := authSvc.Logout(ctx, usecase.LogoutInput{RefreshToken: "refresh-envelope"})

	require.Error(t, err)
}

func TestAuthService_CurrentUser_Missing(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, testAuthConfig(), logger)

	ctx := context.Background()
	userID := uuid.New()

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockUserRepo.EXPECT().FindByID(ctx, userID).Return(nil, repository.ErrUserNotFound)

			return fn(mockFactory)
		})

	user, err := authSvc.CurrentUser(ctx, userID)

	require.ErrorIs(t, err, domainerrors.ErrInvalidAccessToken)
	assert.Nil(t, user)
}

func TestAuthService_CleanupExpiredCredentials(t *testing.T) {
	txManager := mockRepo.NewMockTransactionManager(t)
	scManager := mockRepo.NewMockSecurityContextManager(t)
	hasher := mockService.NewMockPasswordHasher(t)
	tokenService := mockService.NewMockTokenService(t)
	fingerprint := mockService.NewMockFingerprintHasher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := testAuthConfig()
	hasher.EXPECT().Hash(mock.AnythingOfType("string")).Return("burn-digest", nil).Once()
	authSvc := NewAuthService(txManager, scManager, hasher, tokenService, fingerprint, cfg, logger)

	ctx := context.Background()

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)
			mockRefreshRepo.EXPECT().DeleteExpiredRefreshTokens(ctx, cfg.Auth.RefreshTokenRetention).Return(nil)

			return fn(mockFactory)
		})

	err := authSvc.CleanupExpiredCredentials(ctx)

	require.NoError(t, err)
}
