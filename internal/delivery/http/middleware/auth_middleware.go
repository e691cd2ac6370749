package middleware

import (
	"strings"

	deliverycontext "gestor/internal/delivery/context"
	"gestor/internal/delivery/http/cookie"
	domainerrors "gestor/internal/domain/errors"
	"gestor/internal/domain/service"
	"gestor/internal/usecase"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware guards routes behind a verified access credential and a
// mandatory client device identity.
type AuthMiddleware struct {
	tokenSvc service.TokenService
	authUC   usecase.AuthUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService, authUC usecase.AuthUsecase) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, authUC: authUC}
}

// extractToken reads the access credential from the session cookie, falling
// back to an Authorization bearer header for non-browser clients.
func extractToken(c echo.Context) string {
	if token := cookie.Read(c, cookie.AccessTokenName); token != "" {
		return token
	}

	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if token := strings.TrimPrefix(authHeader, "Bearer "); token != authHeader {
		return token
	}

	return ""
}

// Authenticate validates the access credential and binds the caller's
// identity into the request context. The device header is mandatory; the
// credential's fingerprint claim is checked against it.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		deviceID := c.Request().Header.Get(deliverycontext.HeaderXDeviceID)
		if deviceID == "" {
			return domainerrors.ErrMissingDeviceID.WrapMessage("device header absent")
		}

		token := extractToken(c)
		if token == "" {
			return domainerrors.ErrInvalidAccessToken.WrapMessage("missing access credential")
		}

		claims, err := m.tokenSvc.VerifyAccessToken(token, deviceID)
		if err != nil {
			return err
		}

		// The credential is self-contained, the identity behind it is not:
		// it must still exist, be active, and live in the claimed tenant.
		user, err := m.authUC.CurrentUser(c.Request().Context(), claims.UserID)
		if err != nil {
			return err
		}
		if !user.CanAuthenticate() || user.TenantID != claims.TenantID {
			return domainerrors.ErrInvalidAccessToken.WrapMessage("identity no longer valid")
		}

		ctx := c.Request().Context()
		ctx = deliverycontext.WithIdentity(ctx, user.SecurityContext())
		ctx = deliverycontext.WithDeviceID(ctx, deviceID)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}
