package postgres

import (
	"context"

	"gestor/internal/domain/entity"
	"gestor/internal/domain/repository"
	"gestor/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements the domain.UserRepository interface.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// Create persists a new user.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrUserExists
		}

		return errors.WithStack(err)
	}

	// Update the entity with generated values
	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// FindByID retrieves a user by its stable identifier.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var userM model.UserModel

	err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toUserDomain(&userM), nil
}

// FindByIdentifier resolves a login identifier (email or nickname) to a user.
func (repo *userRepository) FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	var userM model.UserModel

	err := repo.db.WithContext(ctx).
		Where("email = ? OR nickname = ?", identifier, identifier).
		First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toUserDomain(&userM), nil
}

// Update persists mutated profile and role fields.
func (repo *userRepository) Update(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", userM.ID).
		Updates(map[string]any{
			"name":                  userM.Name,
			"nickname":              userM.Nickname,
			"email":                 userM.Email,
			"roles":                 userM.Roles,
			"max_privilege_level":   userM.MaxPrivilegeLevel,
			"active":                userM.Active,
			"password_hash":         userM.PasswordHash,
			"quick_access_pin_hash": userM.QuickAccessPinHash,
		})
	if result.Error != nil {
		if isUniqueConstraintViolation(result.Error) {
			return repository.ErrUserExists
		}

		return errors.WithStack(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// TouchLastLogin stamps last_login_at with the store clock.
func (repo *userRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", id).
		Update("last_login_at", gorm.Expr("NOW()")).Error
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// --- Mapper Functions ---

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:                 data.ID,
		TenantID:           data.TenantID,
		Name:               data.Name,
		Nickname:           data.Nickname,
		Email:              data.Email,
		Roles:              entity.RolesFromStrings(data.Roles),
		MaxPrivilegeLevel:  data.MaxPrivilegeLevel,
		Active:             data.Active,
		PasswordHash:       data.PasswordHash,
		QuickAccessPinHash: data.QuickAccessPinHash,
		LastLoginAt:        data.LastLoginAt,
		CreatedBy:          data.CreatedBy,
		CreatedAt:          data.CreatedAt,
		UpdatedAt:          data.UpdatedAt,
	}
}

// fromUserDomain converts a domain User entity to a GORM UserModel.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	return &model.UserModel{
		ID:                 data.ID,
		TenantID:           data.TenantID,
		Name:               data.Name,
		Nickname:           data.Nickname,
		Email:              data.Email,
		Roles:              data.Roles.ToStrings(),
		MaxPrivilegeLevel:  data.MaxPrivilegeLevel,
		Active:             data.Active,
		PasswordHash:       data.PasswordHash,
		QuickAccessPinHash: data.QuickAccessPinHash,
		LastLoginAt:        data.LastLoginAt,
		CreatedBy:          data.CreatedBy,
		CreatedAt:          data.CreatedAt,
		UpdatedAt:          data.UpdatedAt,
	}
}
