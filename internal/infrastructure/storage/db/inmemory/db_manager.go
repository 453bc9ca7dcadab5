package inmemory

import (
	"github.com/postmix/forwardd/internal/core/domain"
	"github.com/postmix/forwardd/internal/core/ports"
)

// repoManager keeps every repository in process memory. It backs tests and
// ephemeral runs; nothing survives a restart.
type repoManager struct {
	addressRepository     domain.AddressRepository
	transactionRepository domain.TransactionRepository
}

// NewRepoManager returns an in-memory ports.RepoManager.
func NewRepoManager() ports.RepoManager {
	return &repoManager{
		addressRepository:     NewAddressRepositoryImpl(),
		transactionRepository: NewTransactionRepositoryImpl(),
	}
}

func (d *repoManager) AddressRepository() domain.AddressRepository {
	return d.addressRepository
}

func (d *repoManager) TransactionRepository() domain.TransactionRepository {
	return d.transactionRepository
}

func (d *repoManager) Close() {}
