// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"log/slog"
	"time"

	"gestor/config"
	deliverycontext "gestor/internal/delivery/context"
	"gestor/internal/domain/entity"
	domainerrors "gestor/internal/domain/errors"
	"gestor/internal/domain/repository"
	"gestor/internal/domain/service"
	"gestor/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// authService implements the AuthUsecase interface. It owns the rotation
// chain state machine: every refresh credential belongs to a family, each
// family has exactly one active head, and the head moves forward exactly
// once per rotation.
type authService struct {
	txManager    repository.TransactionManager
	scManager    repository.SecurityContextManager
	hasher       service.PasswordHasher
	tokenService service.TokenService
	fingerprint  service.FingerprintHasher
	retention    time.Duration
	burnDigest   string
	logger       *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(
	txManager repository.TransactionManager,
	scManager repository.SecurityContextManager,
	hasher service.PasswordHasher,
	tokenService service.TokenService,
	fingerprint service.FingerprintHasher,
	cfg *config.Config,
	logger *slog.Logger,
) usecase.AuthUsecase {
	// Pre-computed digest compared against when the identifier is unknown,
	// so unknown identifiers cost the same as a password mismatch.
	burnDigest, err := hasher.Hash("login-timing-equalizer")
	if err != nil {
		burnDigest = ""
	}

	return &authService{
		txManager:    txManager,
		scManager:    scManager,
		hasher:       hasher,
		tokenService: tokenService,
		fingerprint:  fingerprint,
		retention:    cfg.Auth.RefreshTokenRetention,
		burnDigest:   burnDigest,
		logger:       logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Login authenticates an identifier/password pair and mints a credential
// pair on a fresh rotation family.
func (srv *authService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.TokenPairOutput, error) {
	srv.log(ctx).Debug("Starting login", slog.String("identifier", input.Identifier))

	// A login arriving with a refresh cookie replaces that session: retire
	// its family first so the old chain cannot linger active. Best effort;
	// a failure here must not block the login itself.
	if input.PresentedRefreshToken != "" {
		if claims, err := srv.tokenService.DecodeRefreshToken(input.PresentedRefreshToken); err == nil {
			srv.revokeFamily(ctx, claims.FamilyID)
		}
	}

	user, err := srv.verifyCredentials(ctx, input)
	if err != nil {
		srv.log(ctx).Warn("Login failed", slog.String("identifier", input.Identifier), slog.String("error", err.Error()))

		return nil, err
	}

	out, err := srv.openSession(ctx, user, input.DeviceID)
	if err != nil {
		srv.log(ctx).Warn("Login failed", slog.String("identifier", input.Identifier), slog.String("error", err.Error()))

		return nil, err
	}
	srv.log(ctx).Debug("Login succeeded", slog.Any("userID", user.ID))

	return out, nil
}

// verifyCredentials resolves the identifier and checks the password. Runs in
// a plain read transaction: no identity is established yet, so there is
// nothing to bind.
func (srv *authService) verifyCredentials(ctx context.Context, input usecase.LoginInput) (*entity.User, error) {
	var user *entity.User

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		found, err := repoFactory.UserRepo().FindByIdentifier(ctx, input.Identifier)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				srv.hasher.Check(input.Password, srv.burnDigest)

				return domainerrors.ErrInvalidCredentials.WrapMessage("unknown identifier")
			}

			return errors.Wrap(err, "failed to find user by identifier")
		}

		// Inactive identities and client-only role sets fail the same way
		// as a bad password; the caller learns nothing about the account.
		if !found.CanAuthenticate() {
			srv.hasher.Check(input.Password, srv.burnDigest)

			return domainerrors.ErrInvalidCredentials.WrapMessage("identity cannot authenticate")
		}

		if !srv.hasher.Check(input.Password, found.PasswordHash) {
			return domainerrors.ErrInvalidCredentials.WrapMessage("password mismatch")
		}

		user = found

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// openSession mints a fresh rotation family for the just-verified identity.
// The head insert and the last-login stamp run under that identity's bound
// security context, in the same transaction the binding is established in.
func (srv *authService) openSession(ctx context.Context, user *entity.User, deviceID string) (*usecase.TokenPairOutput, error) {
	issued, err := srv.tokenService.IssueRefreshToken(uuid.Nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue refresh token")
	}

	head := &entity.RefreshToken{
		ID:         uuid.New(),
		UserID:     user.ID,
		FamilyID:   issued.FamilyID,
		TokenHash:  issued.TokenHash,
		DeviceHash: srv.fingerprint.Digest(deviceID),
		ExpiresAt:  issued.ExpiresAt,
	}

	err = srv.scManager.ExecuteAs(ctx, user.SecurityContext(), func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.RefreshTokenRepo().CreateRefreshToken(ctx, head); err != nil {
			return errors.Wrap(err, "failed to persist refresh token")
		}

		if err := repoFactory.UserRepo().TouchLastLogin(ctx, user.ID); err != nil {
			return errors.Wrap(err, "failed to stamp last login")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	accessToken, accessExpiresAt, err := srv.tokenService.IssueAccessToken(user.ID, user.TenantID, deviceID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue access token")
	}

	return &usecase.TokenPairOutput{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     issued.Token,
		RefreshExpiresAt: issued.ExpiresAt,
		User:             user,
	}, nil
}

// Refresh rotates the presented refresh credential. The presented node must
// be the active head of its family; anything else is treated as replay and
// retires the whole family.
func (srv *authService) Refresh(ctx context.Context, input usecase.RefreshInput) (*usecase.TokenPairOutput, error) {
	claims, err := srv.tokenService.DecodeRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, domainerrors.ErrInvalidRefreshToken.WrapMessage("undecodable envelope")
	}

	// One clock reading per operation; every expiry decision below uses it.
	now := time.Now()

	var out *usecase.TokenPairOutput
	var tainted uuid.UUID

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		refreshRepo := repoFactory.RefreshTokenRepo()

		node, err := refreshRepo.FindRefreshTokenByHash(ctx, claims.TokenHash)
		if err != nil {
			if errors.Is(err, repository.ErrRefreshTokenNotFound) {
				return domainerrors.ErrInvalidRefreshToken.WrapMessage("unknown credential")
			}

			return errors.Wrap(err, "failed to find refresh token")
		}

		if node.FamilyID != claims.FamilyID {
			tainted = node.FamilyID

			return domainerrors.ErrInvalidRefreshToken.WrapMessage("family mismatch")
		}

		if node.Revoked {
			// Replay of a consumed or revoked credential.
			tainted = node.FamilyID

			return domainerrors.ErrInvalidRefreshToken.WrapMessage("credential already consumed")
		}

		if node.IsExpired(now) {
			return domainerrors.ErrInvalidRefreshToken.WrapMessage("credential expired")
		}

		if node.DeviceHash != srv.fingerprint.Digest(input.DeviceID) {
			tainted = node.FamilyID

			return domainerrors.ErrInvalidRefreshToken.WrapMessage("device mismatch")
		}

		user, err := userRepo.FindByID(ctx, node.UserID)
		if err != nil {
			tainted = node.FamilyID

			return domainerrors.ErrInvalidRefreshToken.WrapMessage("identity missing")
		}
		if !user.CanAuthenticate() {
			tainted = node.FamilyID

			return domainerrors.ErrInvalidRefreshToken.WrapMessage("identity cannot authenticate")
		}

		issued, err := srv.tokenService.IssueRefreshToken(node.FamilyID)
		if err != nil {
			return errors.Wrap(err, "failed to issue refresh token")
		}

		next := &entity.RefreshToken{
			ID:         uuid.New(),
			UserID:     node.UserID,
			FamilyID:   node.FamilyID,
			TokenHash:  issued.TokenHash,
			DeviceHash: node.DeviceHash,
			ExpiresAt:  issued.ExpiresAt,
		}

		rotated, err := refreshRepo.RotateRefreshToken(ctx, node.ID, next)
		if err != nil {
			return errors.Wrap(err, "failed to rotate refresh token")
		}
		if !rotated {
			// A concurrent rotation consumed the node first. Whichever
			// request lost holds a credential that was just replayed.
			tainted = node.FamilyID

			return domainerrors.ErrInvalidRefreshToken.WrapMessage("credential reuse detected")
		}

		accessToken, accessExpiresAt, err := srv.tokenService.IssueAccessToken(user.ID, user.TenantID, input.DeviceID)
		if err != nil {
			return errors.Wrap(err, "failed to issue access token")
		}

		out = &usecase.TokenPairOutput{
			AccessToken:      accessToken,
			AccessExpiresAt:  accessExpiresAt,
			RefreshToken:     issued.Token,
			RefreshExpiresAt: issued.ExpiresAt,
			User:             user,
		}

		return nil
	})

	// Family revocation happens outside the failing transaction: that
	// transaction rolls back, this one must commit.
	if tainted != uuid.Nil {
		srv.revokeFamily(ctx, tainted)
	}

	if err != nil {
		srv.log(ctx).Warn("Refresh failed", slog.String("error", err.Error()))

		return nil, err
	}

	return out, nil
}

// Logout revokes the presented credential's entire family. Idempotent: an
// undecodable or unknown credential still reports success, and the handler
// clears the cookies regardless.
func (srv *authService) Logout(ctx context.Context, input usecase.LogoutInput) error {
	claims, err := srv.tokenService.DecodeRefreshToken(input.RefreshToken)
	if err != nil {
		srv.log(ctx).Debug("Logout with undecodable credential")

		return nil
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.RefreshTokenRepo().RevokeFamily(ctx, claims.FamilyID)
	})
	if err != nil {
		srv.log(ctx).Error("Logout failed", slog.String("error", err.Error()))

		return errors.Wrap(err, "failed to revoke session family")
	}
	srv.log(ctx).Debug("Session family revoked", slog.Any("familyID", claims.FamilyID))

	return nil
}

// CurrentUser loads the identity bound to a verified access credential.
func (srv *authService) CurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	var user *entity.User

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		found, err := repoFactory.UserRepo().FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				// The credential outlived its identity.
				return domainerrors.ErrInvalidAccessToken.WrapMessage("identity missing")
			}

			return errors.Wrap(err, "failed to find user")
		}
		user = found

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// CleanupExpiredCredentials deletes refresh rows expired beyond the
// retention window.
func (srv *authService) CleanupExpiredCredentials(ctx context.Context) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.RefreshTokenRepo().DeleteExpiredRefreshTokens(ctx, srv.retention)
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete expired refresh tokens")
	}

	return nil
}

// revokeFamily retires a rotation family in its own transaction. Best
// effort: a storage failure is logged, not propagated, because the caller
// is already on a failure path of its own.
func (srv *authService) revokeFamily(ctx context.Context, familyID uuid.UUID) {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.RefreshTokenRepo().RevokeFamily(ctx, familyID)
	})
	if err != nil {
		srv.log(ctx).Error("Failed to revoke token family",
			slog.Any("familyID", familyID),
			slog.String("error", err.Error()),
		)

		return
	}
	srv.log(ctx).Warn("Token family revoked", slog.Any("familyID", familyID))
}
