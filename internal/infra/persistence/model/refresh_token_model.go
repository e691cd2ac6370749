package model

import (
	"time"

	"github.com/google/uuid"
)

// RefreshTokenModel mirrors the 'refresh_tokens' table. Only a SHA-256
// digest of the token secret is stored; the plaintext secret never
// touches the database.
type RefreshTokenModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	FamilyID   uuid.UUID `gorm:"type:uuid;not null;index"`
	TokenHash  string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	DeviceHash string    `gorm:"type:varchar(64);not null"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	Revoked    bool      `gorm:"not null;default:false"`
	ReplacedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt  time.Time
}

// TableName explicitly sets the table name for GORM.
func (RefreshTokenModel) TableName() string {
	return "refresh_tokens"
}
