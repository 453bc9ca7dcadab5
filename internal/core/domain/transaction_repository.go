package domain

import "context"

// TransactionRepository is the abstraction for any kind of database intended
// to persist Transactions. The (address, hash) pair is the unit of mutual
// exclusion: implementations must guarantee uniqueness on it and serialize
// concurrent updates of the same pair, returning ErrTransactionConflict when
// contention is detected.
type TransactionRepository interface {
	// AddTransaction adds the provided transaction to the repository.
	// Returns ErrTransactionAlreadyExists if the (address, hash) pair is
	// already stored.
	AddTransaction(ctx context.Context, transaction *Transaction) error
	// GetTransaction returns the transaction identified by the
	// (address, hash) pair, or ErrTransactionNotFound.
	GetTransaction(ctx context.Context, addr, hash string) (*Transaction, error)
	// GetAllTransactionsForAddress returns all the transactions received on
	// the given address.
	GetAllTransactionsForAddress(ctx context.Context, addr string) ([]*Transaction, error)
	// UpdateTransaction allows to commit multiple changes to the same
	// transaction in a transactional way.
	UpdateTransaction(
		ctx context.Context,
		addr, hash string,
		updateFn func(t *Transaction) (*Transaction, error),
	) error
}
