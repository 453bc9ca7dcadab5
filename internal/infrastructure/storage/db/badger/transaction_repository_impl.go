package dbbadger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"

	"github.com/postmix/forwardd/internal/core/domain"
)

type transactionRepositoryImpl struct {
	store *badgerhold.Store
}

// NewTransactionRepositoryImpl returns a domain.TransactionRepository backed
// by the given badgerhold store. Records are keyed by the hash160 of the
// (address, hash) pair; the insert uniqueness of badgerhold enforces the
// single-row-per-pair invariant, while updates run in a single badger
// transaction so that contending writers surface ErrTransactionConflict
// instead of overwriting each other.
func NewTransactionRepositoryImpl(
	store *badgerhold.Store,
) domain.TransactionRepository {
	return &transactionRepositoryImpl{store}
}

func (r *transactionRepositoryImpl) AddTransaction(
	_ context.Context, transaction *domain.Transaction,
) error {
	if err := r.store.Insert(transaction.Key(), *transaction); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.ErrTransactionAlreadyExists
		}
		if errors.Is(err, badger.ErrConflict) {
			return domain.ErrTransactionConflict
		}
		return err
	}
	return nil
}

func (r *transactionRepositoryImpl) GetTransaction(
	_ context.Context, addr, hash string,
) (*domain.Transaction, error) {
	var transaction domain.Transaction
	key := domain.TransactionKey(addr, hash)
	if err := r.store.Get(key, &transaction); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepositoryImpl) GetAllTransactionsForAddress(
	_ context.Context, addr string,
) ([]*domain.Transaction, error) {
	var list []domain.Transaction
	query := badgerhold.Where("Address").Eq(addr)
	if err := r.store.Find(&list, query); err != nil {
		return nil, err
	}

	txs := make([]*domain.Transaction, 0, len(list))
	for i := range list {
		txs = append(txs, &list[i])
	}
	return txs, nil
}

func (r *transactionRepositoryImpl) UpdateTransaction(
	_ context.Context, addr, hash string,
	updateFn func(t *domain.Transaction) (*domain.Transaction, error),
) error {
	key := domain.TransactionKey(addr, hash)

	err := r.store.Badger().Update(func(txn *badger.Txn) error {
		var transaction domain.Transaction
		if err := r.store.TxGet(txn, key, &transaction); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return domain.ErrTransactionNotFound
			}
			return err
		}

		updated, err := updateFn(&transaction)
		if err != nil {
			return err
		}
		return r.store.TxUpdate(txn, key, *updated)
	})
	if errors.Is(err, badger.ErrConflict) {
		return domain.ErrTransactionConflict
	}
	return err
}
