package impl

import (
	"context"
	"log/slog"

	deliverycontext "gestor/internal/delivery/context"
	"gestor/internal/domain/entity"
	domainerrors "gestor/internal/domain/errors"
	"gestor/internal/domain/repository"
	"gestor/internal/domain/service"
	"gestor/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// staffService implements the StaffUsecase interface. All storage access
// runs through the security context manager, so the database sees every
// statement under the actor's bound identity.
type staffService struct {
	scManager repository.SecurityContextManager
	hasher    service.PasswordHasher
	logger    *slog.Logger
}

// NewStaffService is the constructor for staffService.
func NewStaffService(
	scManager repository.SecurityContextManager,
	hasher service.PasswordHasher,
	logger *slog.Logger,
) usecase.StaffUsecase {
	return &staffService{
		scManager: scManager,
		hasher:    hasher,
		logger:    logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *staffService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// selfEditable reports whether a non-management self-edit touches only the
// fields a staff member may change on their own account.
func selfEditable(input usecase.UpdateStaffInput) bool {
	return input.Email == nil && input.Roles == nil && input.Active == nil
}

// parseRoles validates the requested role names. Unknown names are a
// validation failure, not something to silently drop: a typo in a role
// grant must not produce an account with fewer capabilities than intended.
func parseRoles(names []string) (entity.Roles, error) {
	roles := make(entity.Roles, 0, len(names))
	for _, name := range names {
		role := entity.Role(name)
		if !role.IsValid() {
			return nil, domainerrors.ErrValidationFailed.WrapMessage("unknown role: " + name)
		}
		roles = append(roles, role)
	}

	return roles, nil
}

// CreateStaff provisions a staff account in the actor's tenant.
func (srv *staffService) CreateStaff(ctx context.Context, input usecase.CreateStaffInput) (*usecase.StaffOutput, error) {
	srv.log(ctx).Debug("Creating staff account", slog.Any("actorID", input.Actor.UserID))

	roles, err := parseRoles(input.Roles)
	if err != nil {
		return nil, err
	}

	// The new account always lands in the actor's tenant; the request
	// cannot choose a tenant.
	if decision := service.AuthorizeManagement(input.Actor, roles, input.Actor.TenantID); !decision.Allowed {
		srv.log(ctx).Warn("Staff creation denied",
			slog.Any("actorID", input.Actor.UserID),
			slog.String("reason", string(decision.Reason)),
		)

		return nil, domainerrors.ErrForbidden.WrapMessage(string(decision.Reason))
	}

	passwordHash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	var pinHash string
	if input.QuickAccessPin != "" {
		pinHash, err = srv.hasher.Hash(input.QuickAccessPin)
		if err != nil {
			return nil, errors.Wrap(err, "failed to hash quick access pin")
		}
	}

	actorID := input.Actor.UserID
	newUser := &entity.User{
		ID:                 uuid.New(),
		TenantID:           input.Actor.TenantID,
		Name:               input.Name,
		Nickname:           input.Nickname,
		Email:              input.Email,
		Roles:              roles,
		MaxPrivilegeLevel:  roles.MaxPrivilege(),
		Active:             true,
		PasswordHash:       passwordHash,
		QuickAccessPinHash: pinHash,
		CreatedBy:          &actorID,
	}

	err = srv.scManager.ExecuteAs(ctx, input.Actor, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.UserRepo().Create(ctx, newUser); err != nil {
			if errors.Is(err, repository.ErrUserExists) {
				return domainerrors.ErrUserAlreadyExists.WrapMessage("staff creation failed")
			}

			return errors.Wrap(err, "failed to create user")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Staff creation failed", slog.String("error", err.Error()))

		return nil, err
	}
	srv.log(ctx).Info("Staff account created",
		slog.Any("userID", newUser.ID),
		slog.Any("actorID", input.Actor.UserID),
	)

	return &usecase.StaffOutput{User: newUser}, nil
}

// UpdateStaff applies a partial update to a staff account. Management-gated
// fields require privilege resolution; a non-management actor may only edit
// the self-editable fields of their own account.
func (srv *staffService) UpdateStaff(ctx context.Context, input usecase.UpdateStaffInput) (*usecase.StaffOutput, error) {
	srv.log(ctx).Debug("Updating staff account",
		slog.Any("actorID", input.Actor.UserID),
		slog.Any("targetID", input.TargetID),
	)

	isSelf := input.Actor.UserID == input.TargetID
	isManagement := input.Actor.Roles.HasManagementRole()
	if !isManagement {
		if !isSelf || !selfEditable(input) {
			srv.log(ctx).Warn("Staff update denied",
				slog.Any("actorID", input.Actor.UserID),
				slog.String("reason", string(service.DenyMissingManagementRole)),
			)

			return nil, domainerrors.ErrForbidden.WrapMessage("self-edit outside editable fields")
		}
	}

	var updated *entity.User

	err := srv.scManager.ExecuteAs(ctx, input.Actor, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		target, err := userRepo.FindByID(ctx, input.TargetID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound.WrapMessage("staff update failed")
			}

			return errors.Wrap(err, "failed to find user")
		}

		// Authorize against the roles the target will carry after the
		// update. Cross-tenant targets are denied here as well, on top of
		// the row-level policies. A non-management actor only reaches this
		// point on a self-edit of fields privilege resolution does not
		// govern, so the check applies to management actors alone.
		effectiveRoles := target.Roles
		if input.Roles != nil {
			effectiveRoles, err = parseRoles(*input.Roles)
			if err != nil {
				return err
			}
		}
		if isManagement {
			if decision := service.AuthorizeManagement(input.Actor, effectiveRoles, target.TenantID); !decision.Allowed {
				srv.log(ctx).Warn("Staff update denied",
					slog.Any("actorID", input.Actor.UserID),
					slog.String("reason", string(decision.Reason)),
				)

				return domainerrors.ErrForbidden.WrapMessage(string(decision.Reason))
			}
		}

		if input.Name != nil {
			target.Name = *input.Name
		}
		if input.Nickname != nil {
			target.Nickname = *input.Nickname
		}
		if input.Email != nil {
			target.Email = *input.Email
		}
		if input.Roles != nil {
			target.Roles = effectiveRoles
			target.MaxPrivilegeLevel = effectiveRoles.MaxPrivilege()
		}
		if input.Active != nil {
			// Deactivation is a flag flip; accounts are never hard-deleted.
			target.Active = *input.Active
		}
		if input.Password != nil {
			hash, err := srv.hasher.Hash(*input.Password)
			if err != nil {
				return errors.Wrap(err, "failed to hash password")
			}
			target.PasswordHash = hash
		}
		if input.QuickAccessPin != nil {
			hash, err := srv.hasher.Hash(*input.QuickAccessPin)
			if err != nil {
				return errors.Wrap(err, "failed to hash quick access pin")
			}
			target.QuickAccessPinHash = hash
		}

		if err := userRepo.Update(ctx, target); err != nil {
			if errors.Is(err, repository.ErrUserExists) {
				return domainerrors.ErrUserAlreadyExists.WrapMessage("staff update failed")
			}

			return errors.Wrap(err, "failed to update user")
		}
		updated = target

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Staff update failed", slog.String("error", err.Error()))

		return nil, err
	}
	srv.log(ctx).Info("Staff account updated",
		slog.Any("userID", updated.ID),
		slog.Any("actorID", input.Actor.UserID),
	)

	return &usecase.StaffOutput{User: updated}, nil
}

// GetStaff loads a staff account visible to the actor.
func (srv *staffService) GetStaff(ctx context.Context, actor entity.SecurityContext, targetID uuid.UUID) (*usecase.StaffOutput, error) {
	var user *entity.User

	err := srv.scManager.ExecuteAs(ctx, actor, func(repoFactory repository.RepositoryFactory) error {
		found, err := repoFactory.UserRepo().FindByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound.WrapMessage("staff lookup failed")
			}

			return errors.Wrap(err, "failed to find user")
		}
		// The row-level policies already hide other tenants; this check is
		// the application-level reading of the same rule.
		if found.TenantID != actor.TenantID {
			return domainerrors.ErrUserNotFound.WrapMessage("staff lookup failed")
		}
		user = found

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &usecase.StaffOutput{User: user}, nil
}
