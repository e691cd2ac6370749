package repository

import (
	"context"

	"gestor/internal/domain/entity"
)

// TransactionManager defines the interface for managing database transactions.
// This allows the use case layer to handle transactions without depending on a specific DB driver like GORM.
type TransactionManager interface {
	// Execute runs a function within a database transaction.
	// If the function returns an error, the transaction is rolled back. Otherwise, it's committed.
	// All repository operations within the function will use the same database transaction.
	Execute(ctx context.Context, fn func(repoFactory RepositoryFactory) error) error
}

// SecurityContextManager binds a verified identity to a request-scoped
// data-access session. The bound configuration is written into the same
// transaction the callback runs in, so it can never be observed by another
// in-flight request and is discarded on commit or rollback. If the binding
// cannot be established the callback is never invoked and the request fails
// with a security context failure.
type SecurityContextManager interface {
	// ExecuteAs runs fn inside one transaction whose session-local
	// configuration carries sc for the row-level security policy engine.
	ExecuteAs(ctx context.Context, sc entity.SecurityContext, fn func(repoFactory RepositoryFactory) error) error
}

// RepositoryFactory provides a way to get repository instances that are bound to a specific transaction.
// This ensures all repository operations within a transaction use the same database connection.
type RepositoryFactory interface {
	// UserRepo returns a UserRepository instance bound to the current transaction.
	UserRepo() UserRepository

	// RefreshTokenRepo returns a RefreshTokenRepository instance bound to the current transaction.
	RefreshTokenRepo() RefreshTokenRepository
}
