// Package model contains the GORM models mirroring the PostgreSQL schema.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UserModel mirrors the 'users' table. Row-level security policies on this
// table read the session configuration written by the security context
// manager, so every statement is already tenant-filtered at the store.
type UserModel struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID           uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name               string         `gorm:"type:varchar(255);not null"`
	Nickname           string         `gorm:"type:varchar(100)"`
	Email              string         `gorm:"type:varchar(255);not null;uniqueIndex"`
	Roles              pq.StringArray `gorm:"type:user_role_enum[];not null"`
	MaxPrivilegeLevel  int            `gorm:"not null;default:0"`
	Active             bool           `gorm:"not null;default:true"`
	PasswordHash       string         `gorm:"type:varchar(255)"`
	QuickAccessPinHash string         `gorm:"type:varchar(255)"`
	LastLoginAt        *time.Time
	CreatedBy          *uuid.UUID `gorm:"type:uuid"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
