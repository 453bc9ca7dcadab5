package inmemory

import (
	"context"
	"sync"

	"github.com/postmix/forwardd/internal/core/domain"
)

type transactionRepositoryImpl struct {
	transactions map[string]domain.Transaction
	lock         *sync.RWMutex
}

// NewTransactionRepositoryImpl returns an in-memory
// domain.TransactionRepository. The store lock is the serialization point
// for updates on the same (address, hash) pair.
func NewTransactionRepositoryImpl() domain.TransactionRepository {
	return &transactionRepositoryImpl{
		transactions: map[string]domain.Transaction{},
		lock:         &sync.RWMutex{},
	}
}

func (r *transactionRepositoryImpl) AddTransaction(
	_ context.Context, transaction *domain.Transaction,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	key := transaction.Key()
	if _, ok := r.transactions[key]; ok {
		return domain.ErrTransactionAlreadyExists
	}
	r.transactions[key] = *transaction
	return nil
}

func (r *transactionRepositoryImpl) GetTransaction(
	_ context.Context, addr, hash string,
) (*domain.Transaction, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	transaction, ok := r.transactions[domain.TransactionKey(addr, hash)]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return &transaction, nil
}

func (r *transactionRepositoryImpl) GetAllTransactionsForAddress(
	_ context.Context, addr string,
) ([]*domain.Transaction, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	txs := make([]*domain.Transaction, 0)
	for _, transaction := range r.transactions {
		if transaction.Address == addr {
			transaction := transaction
			txs = append(txs, &transaction)
		}
	}
	return txs, nil
}

func (r *transactionRepositoryImpl) UpdateTransaction(
	_ context.Context, addr, hash string,
	updateFn func(t *domain.Transaction) (*domain.Transaction, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	key := domain.TransactionKey(addr, hash)
	transaction, ok := r.transactions[key]
	if !ok {
		return domain.ErrTransactionNotFound
	}

	updated, err := updateFn(&transaction)
	if err != nil {
		return err
	}
	r.transactions[key] = *updated
	return nil
}
