package handler

import (
	"log/slog"
	"net/http"

	"gestor/config"
	deliverycontext "gestor/internal/delivery/context"
	"gestor/internal/delivery/http/cookie"
	"gestor/internal/delivery/http/response"
	domainerrors "gestor/internal/domain/errors"
	"gestor/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for session lifecycle handlers.
type AuthHandler struct {
	uc     usecase.AuthUsecase
	cfg    *config.Config
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase, cfg *config.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:     uc,
		cfg:    cfg,
		logger: logger,
	}
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// Login handles the staff login request. Credentials travel in the body;
// the minted pair leaves only as HttpOnly cookies.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	deviceID := c.Request().Header.Get(deliverycontext.HeaderXDeviceID)
	if deviceID == "" {
		return domainerrors.ErrMissingDeviceID.WrapMessage("device header absent")
	}

	output, err := h.uc.Login(c.Request().Context(), usecase.LoginInput{
		Identifier:            req.Identifier,
		Password:              req.Password,
		DeviceID:              deviceID,
		PresentedRefreshToken: cookie.Read(c, cookie.RefreshTokenName),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	cookie.Set(c, h.cfg, cookie.AccessTokenName, output.AccessToken, output.AccessExpiresAt)
	cookie.Set(c, h.cfg, cookie.RefreshTokenName, output.RefreshToken, output.RefreshExpiresAt)

	return response.Success(c, http.StatusOK, newUserView(output.User), "Login successful")
}

// Refresh rotates the refresh credential presented in the session cookie.
// Any rotation failure also clears the cookies: the credential pair the
// client holds is dead either way.
func (h *AuthHandler) Refresh(c echo.Context) error {
	deviceID := c.Request().Header.Get(deliverycontext.HeaderXDeviceID)
	if deviceID == "" {
		return domainerrors.ErrMissingDeviceID.WrapMessage("device header absent")
	}

	refreshToken := cookie.Read(c, cookie.RefreshTokenName)
	if refreshToken == "" {
		return domainerrors.ErrInvalidRefreshToken.WrapMessage("missing refresh cookie")
	}

	output, err := h.uc.Refresh(c.Request().Context(), usecase.RefreshInput{
		RefreshToken: refreshToken,
		DeviceID:     deviceID,
	})
	if err != nil {
		cookie.Clear(c, h.cfg)

		return errors.WithStack(err)
	}

	cookie.Set(c, h.cfg, cookie.AccessTokenName, output.AccessToken, output.AccessExpiresAt)
	cookie.Set(c, h.cfg, cookie.RefreshTokenName, output.RefreshToken, output.RefreshExpiresAt)

	return response.Success(c, http.StatusOK, newUserView(output.User), "Token refreshed successfully")
}

// Logout ends the session. The cookies are cleared unconditionally; an
// invalid or already-revoked credential still logs out successfully.
func (h *AuthHandler) Logout(c echo.Context) error {
	refreshToken := cookie.Read(c, cookie.RefreshTokenName)

	err := h.uc.Logout(c.Request().Context(), usecase.LogoutInput{
		RefreshToken: refreshToken,
	})

	cookie.Clear(c, h.cfg)

	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Logout successful")
}

// Me returns the identity bound to the verified access credential.
func (h *AuthHandler) Me(c echo.Context) error {
	sc, ok := deliverycontext.GetIdentity(c.Request().Context())
	if !ok {
		return domainerrors.ErrInvalidAccessToken.WrapMessage("no bound identity")
	}

	user, err := h.uc.CurrentUser(c.Request().Context(), sc.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newUserView(user), "")
}
