package postgres

import (
	"context"
	"testing"
	"time"

	"gestor/internal/domain/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gestor/internal/domain/entity"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
		WithoutReturning:     true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock
}

func chainNode() *entity.RefreshToken {
	return &entity.RefreshToken{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		FamilyID:   uuid.New(),
		TokenHash:  "token-hash",
		DeviceHash: "device-hash",
		ExpiresAt:  time.Now().Add(time.Hour),
	}
}

func TestRefreshTokenRepository_CreateRefreshToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)

	node := chainNode()

	mock.ExpectExec(`INSERT INTO "refresh_tokens"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateRefreshToken(context.Background(), node)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_CreateRefreshToken_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)

	mock.ExpectExec(`INSERT INTO "refresh_tokens"`).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_refresh_tokens_token_hash" (SQLSTATE 23505)`))

	err := repo.CreateRefreshToken(context.Background(), chainNode())

	require.ErrorIs(t, err, repository.ErrRefreshTokenExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_FindRefreshTokenByHash(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)

	node := chainNode()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "family_id", "token_hash", "device_hash",
		"expires_at", "revoked", "replaced_by", "created_at",
	}).AddRow(
		node.ID.String(), node.UserID.String(), node.FamilyID.String(),
		node.TokenHash, node.DeviceHash, node.ExpiresAt, false, nil, time.Now(),
	)

	mock.ExpectQuery(`SELECT (.+) FROM "refresh_tokens" WHERE token_hash = \$1`).
		WithArgs(node.TokenHash, 1).
		WillReturnRows(rows)

	found, err := repo.FindRefreshTokenByHash(context.Background(), node.TokenHash)

	require.NoError(t, err)
	assert.Equal(t, node.ID, found.ID)
	assert.Equal(t, node.FamilyID, found.FamilyID)
	assert.False(t, found.Revoked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_FindRefreshTokenByHash_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM "refresh_tokens" WHERE token_hash = \$1`).
		WithArgs("missing-hash", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindRefreshTokenByHash(context.Background(), "missing-hash")

	require.ErrorIs(t, err, repository.ErrRefreshTokenNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_RotateRefreshToken_Success(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)

	oldID := uuid.New()
	next := chainNode()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "refresh_tokens" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "refresh_tokens"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rotated, err := repo.RotateRefreshToken(context.Background(), oldID, next)

	require.NoError(t, err)
	assert.True(t, rotated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_RotateRefreshToken_AlreadyConsumed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)

	oldID := uuid.New()
	next := chainNode()

	// The conditional consume matches no rows: the node was rotated or
	// revoked first. No replacement row is written and no error surfaces.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "refresh_tokens" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	rotated, err := repo.RotateRefreshToken(context.Background(), oldID, next)

	require.NoError(t, err)
	assert.False(t, rotated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_RotateRefreshToken_InsertFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "refresh_tokens" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "refresh_tokens"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	rotated, err := repo.RotateRefreshToken(context.Background(), uuid.New(), chainNode())

	require.Error(t, err)
	assert.False(t, rotated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_RotateRefreshToken_AssignsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)

	next := chainNode()
	next.ID = uuid.Nil

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "refresh_tokens" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "refresh_tokens"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// The replacement id participates in the consuming update, so it is
	// assigned before any SQL runs.
	rotated, err := repo.RotateRefreshToken(context.Background(), uuid.New(), next)

	require.NoError(t, err)
	assert.True(t, rotated)
	assert.NotEqual(t, uuid.Nil, next.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_RevokeFamily(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)

	familyID := uuid.New()

	mock.ExpectExec(`UPDATE "refresh_tokens" SET`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := repo.RevokeFamily(context.Background(), familyID)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_RevokeFamily_Idempotent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)

	mock.ExpectExec(`UPDATE "refresh_tokens" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RevokeFamily(context.Background(), uuid.New())

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_DeleteExpiredRefreshTokens(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)

	mock.ExpectExec(`DELETE FROM "refresh_tokens" WHERE expires_at <`).
		WillReturnResult(sqlmock.NewResult(0, 5))

	err := repo.DeleteExpiredRefreshTokens(context.Background(), 30*24*time.Hour)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
