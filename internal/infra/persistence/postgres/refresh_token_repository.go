package postgres

import (
	"context"
	"time"

	"gestor/internal/domain/entity"
	"gestor/internal/domain/repository"
	"gestor/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// refreshTokenRepository implements the domain.RefreshTokenRepository interface.
type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository is the constructor for refreshTokenRepository.
func NewRefreshTokenRepository(db *gorm.DB) repository.RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// CreateRefreshToken persists a new rotation-chain node.
func (repo *refreshTokenRepository) CreateRefreshToken(ctx context.Context, token *entity.RefreshToken) error {
	tokenM := fromRefreshTokenDomain(token)

	if err := repo.db.WithContext(ctx).Create(tokenM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrRefreshTokenExists
		}

		return errors.WithStack(err)
	}

	// Update the entity with generated values
	token.ID = tokenM.ID
	token.CreatedAt = tokenM.CreatedAt

	return nil
}

// FindRefreshTokenByHash retrieves a chain node by its secret digest.
// Expiry is deliberately not folded in here; the caller compares expiry
// against its own clock reading.
func (repo *refreshTokenRepository) FindRefreshTokenByHash(ctx context.Context, tokenHash string) (*entity.RefreshToken, error) {
	var tokenM model.RefreshTokenModel

	err := repo.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		First(&tokenM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRefreshTokenNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toRefreshTokenDomain(&tokenM), nil
}

// RotateRefreshToken consumes the old node and inserts its replacement as
// one atomic unit. The conditional update only matches while the old node
// is still active, so among any number of concurrent rotations of the same
// node exactly one observes RowsAffected == 1. Zero rows affected is the
// reuse signal and is reported as (false, nil), never as an error.
func (repo *refreshTokenRepository) RotateRefreshToken(ctx context.Context, oldID uuid.UUID, newToken *entity.RefreshToken) (bool, error) {
	if newToken.ID == uuid.Nil {
		newToken.ID = uuid.New()
	}

	rotated := false
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.RefreshTokenModel{}).
			Where("id = ? AND revoked = ?", oldID, false).
			Updates(map[string]any{
				"revoked":     true,
				"replaced_by": newToken.ID,
			})
		if result.Error != nil {
			return errors.WithStack(result.Error)
		}
		if result.RowsAffected == 0 {
			// Already consumed; leave rotated false and commit nothing new.
			return nil
		}

		tokenM := fromRefreshTokenDomain(newToken)
		if err := tx.Create(tokenM).Error; err != nil {
			if isUniqueConstraintViolation(err) {
				return repository.ErrRefreshTokenExists
			}

			return errors.WithStack(err)
		}

		newToken.CreatedAt = tokenM.CreatedAt
		rotated = true

		return nil
	})
	if err != nil {
		return false, err
	}

	return rotated, nil
}

// RevokeFamily marks every still-active node of the family revoked.
// Idempotent: a family with no active nodes is left untouched.
func (repo *refreshTokenRepository) RevokeFamily(ctx context.Context, familyID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Model(&model.RefreshTokenModel{}).
		Where("family_id = ? AND revoked = ?", familyID, false).
		Update("revoked", true).Error
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// FindFamily returns every node of a rotation chain, newest first.
func (repo *refreshTokenRepository) FindFamily(ctx context.Context, familyID uuid.UUID) ([]*entity.RefreshToken, error) {
	var tokenModels []*model.RefreshTokenModel

	err := repo.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("created_at DESC").
		Find(&tokenModels).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}

	tokens := make([]*entity.RefreshToken, 0, len(tokenModels))
	for _, tokenM := range tokenModels {
		tokens = append(tokens, toRefreshTokenDomain(tokenM))
	}

	return tokens, nil
}

// DeleteExpiredRefreshTokens removes rows whose expiry passed longer ago
// than the retention window. Rows inside the window are kept so replay of
// a recently expired credential still hits its chain.
func (repo *refreshTokenRepository) DeleteExpiredRefreshTokens(ctx context.Context, retention time.Duration) error {
	cutoff := time.Now().Add(-retention)

	if err := repo.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&model.RefreshTokenModel{}).Error; err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// --- Mapper Functions ---

// toRefreshTokenDomain converts a GORM RefreshTokenModel to a domain RefreshToken entity.
func toRefreshTokenDomain(data *model.RefreshTokenModel) *entity.RefreshToken {
	if data == nil {
		return nil
	}

	return &entity.RefreshToken{
		ID:         data.ID,
		UserID:     data.UserID,
		FamilyID:   data.FamilyID,
		TokenHash:  data.TokenHash,
		DeviceHash: data.DeviceHash,
		ExpiresAt:  data.ExpiresAt,
		Revoked:    data.Revoked,
		ReplacedBy: data.ReplacedBy,
		CreatedAt:  data.CreatedAt,
	}
}

// fromRefreshTokenDomain converts a domain RefreshToken entity to a GORM RefreshTokenModel.
func fromRefreshTokenDomain(data *entity.RefreshToken) *model.RefreshTokenModel {
	if data == nil {
		return nil
	}

	return &model.RefreshTokenModel{
		ID:         data.ID,
		UserID:     data.UserID,
		FamilyID:   data.FamilyID,
		TokenHash:  data.TokenHash,
		DeviceHash: data.DeviceHash,
		ExpiresAt:  data.ExpiresAt,
		Revoked:    data.Revoked,
		ReplacedBy: data.ReplacedBy,
		CreatedAt:  data.CreatedAt,
	}
}
