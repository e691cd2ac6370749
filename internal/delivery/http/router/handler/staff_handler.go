package handler

import (
	"log/slog"
	"net/http"

	deliverycontext "gestor/internal/delivery/context"
	"gestor/internal/delivery/http/response"
	domainerrors "gestor/internal/domain/errors"
	"gestor/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// StaffHandler holds dependencies for staff management handlers.
type StaffHandler struct {
	uc     usecase.StaffUsecase
	logger *slog.Logger
}

// NewStaffHandler is the constructor for StaffHandler, injected by Fx.
func NewStaffHandler(uc usecase.StaffUsecase, logger *slog.Logger) *StaffHandler {
	return &StaffHandler{
		uc:     uc,
		logger: logger,
	}
}

type createStaffRequest struct {
	Name           string   `json:"name" validate:"required"`
	Nickname       string   `json:"nickname"`
	Email          string   `json:"email" validate:"required,email"`
	Password       string   `json:"password" validate:"required"`
	QuickAccessPin string   `json:"quickAccessPin"`
	Roles          []string `json:"roles" validate:"required,min=1"`
}

type updateStaffRequest struct {
	Name           *string   `json:"name"`
	Nickname       *string   `json:"nickname"`
	Email          *string   `json:"email" validate:"omitempty,email"`
	Password       *string   `json:"password"`
	QuickAccessPin *string   `json:"quickAccessPin"`
	Roles          *[]string `json:"roles"`
	Active         *bool     `json:"active"`
}

// CreateStaff handles staff account provisioning.
func (h *StaffHandler) CreateStaff(c echo.Context) error {
	actor, ok := deliverycontext.GetIdentity(c.Request().Context())
	if !ok {
		return domainerrors.ErrInvalidAccessToken.WrapMessage("no bound identity")
	}

	var req createStaffRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid staff input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.CreateStaff(c.Request().Context(), usecase.CreateStaffInput{
		Actor:          actor,
		Name:           req.Name,
		Nickname:       req.Nickname,
		Email:          req.Email,
		Password:       req.Password,
		QuickAccessPin: req.QuickAccessPin,
		Roles:          req.Roles,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, newUserView(output.User), "Staff account created")
}

// UpdateStaff handles partial staff account updates.
func (h *StaffHandler) UpdateStaff(c echo.Context) error {
	actor, ok := deliverycontext.GetIdentity(c.Request().Context())
	if !ok {
		return domainerrors.ErrInvalidAccessToken.WrapMessage("no bound identity")
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domainerrors.ErrValidationFailed.WrapMessage("malformed staff id")
	}

	var req updateStaffRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid staff input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.UpdateStaff(c.Request().Context(), usecase.UpdateStaffInput{
		Actor:          actor,
		TargetID:       targetID,
		Name:           req.Name,
		Nickname:       req.Nickname,
		Email:          req.Email,
		Password:       req.Password,
		QuickAccessPin: req.QuickAccessPin,
		Roles:          req.Roles,
		Active:         req.Active,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newUserView(output.User), "Staff account updated")
}

// GetStaff handles staff account lookup.
func (h *StaffHandler) GetStaff(c echo.Context) error {
	actor, ok := deliverycontext.GetIdentity(c.Request().Context())
	if !ok {
		return domainerrors.ErrInvalidAccessToken.WrapMessage("no bound identity")
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domainerrors.ErrValidationFailed.WrapMessage("malformed staff id")
	}

	output, err := h.uc.GetStaff(c.Request().Context(), actor, targetID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newUserView(output.User), "")
}
