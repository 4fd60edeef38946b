package txguard

import "errors"

// Infrastructure errors raised while acquiring, opening or resolving a transaction
var (
	ErrPoolExhausted    = errors.New("connection pool exhausted")
	ErrConnection       = errors.New("database connection error")
	ErrTransactionStart = errors.New("failed to begin transaction")
	ErrCommit           = errors.New("failed to commit transaction")

	// ErrResolved signals a guard used after commit or rollback
	ErrResolved = errors.New("transaction guard already resolved")
)

// IsInfrastructure reports whether err originates from the pool or transaction lifecycle
func IsInfrastructure(err error) bool {
	return errors.Is(err, ErrPoolExhausted) ||
		errors.Is(err, ErrConnection) ||
		errors.Is(err, ErrTransactionStart) ||
		errors.Is(err, ErrCommit)
}
