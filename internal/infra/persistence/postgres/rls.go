package postgres

import (
	"context"
	"strconv"
	"strings"

	"gestor/internal/domain/entity"
	domainerrors "gestor/internal/domain/errors"
	"gestor/internal/domain/repository"

	"gorm.io/gorm"
)

// runtimeRole is the restricted database role every request-scoped
// transaction runs under. The row-level security policies are attached to
// this role, not to the connection owner.
const runtimeRole = "app_runtime"

// gormSecurityContextManager implements the domain's SecurityContextManager
// interface. It reuses the transaction machinery of gormTransactionManager
// and additionally writes the caller's identity into transaction-local
// session configuration before the callback runs.
type gormSecurityContextManager struct {
	db *gorm.DB
}

// NewSecurityContextManager is the constructor for gormSecurityContextManager.
func NewSecurityContextManager(db *gorm.DB) repository.SecurityContextManager {
	return &gormSecurityContextManager{db: db}
}

// ExecuteAs runs fn inside one transaction whose session-local configuration
// carries sc. If any binding statement fails the transaction is rolled back
// and fn is never invoked, so no statement can run with a partially applied
// identity.
func (sm *gormSecurityContextManager) ExecuteAs(ctx context.Context, sc entity.SecurityContext, fn func(repoFactory repository.RepositoryFactory) error) error {
	return runInTransaction(ctx, sm.db, func(tx *gorm.DB) error {
		if err := bindSecurityContext(tx, sc); err != nil {
			return domainerrors.ErrSecurityContextFailure.WrapMessage(err.Error())
		}

		return nil
	}, fn)
}

// bindSecurityContext switches the transaction to the restricted runtime
// role and publishes the caller's identity through set_config. The third
// argument to set_config makes every entry transaction-local, mirroring
// SET LOCAL semantics, so a pooled connection never carries an identity
// past commit or rollback.
func bindSecurityContext(tx *gorm.DB, sc entity.SecurityContext) error {
	// Role names cannot be bound as parameters; runtimeRole is a constant.
	if err := tx.Exec("SET LOCAL ROLE " + runtimeRole).Error; err != nil {
		return err
	}

	settings := []struct {
		key   string
		value string
	}{
		{"app.current_user_id", sc.UserID.String()},
		{"app.current_user_tenant_id", sc.TenantID.String()},
		{"app.current_user_roles", strings.Join(sc.Roles.ToStrings(), ",")},
		{"app.current_user_max_privilege", strconv.Itoa(sc.MaxPrivilege)},
	}
	for _, s := range settings {
		if err := tx.Exec("SELECT set_config(?, ?, true)", s.key, s.value).Error; err != nil {
			return err
		}
	}

	return nil
}
