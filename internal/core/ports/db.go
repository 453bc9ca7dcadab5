package ports

import "github.com/postmix/forwardd/internal/core/domain"

// RepoManager gives access to all the repositories of the persistent store.
type RepoManager interface {
	AddressRepository() domain.AddressRepository
	TransactionRepository() domain.TransactionRepository

	// Close should be used to gracefully close the connection with the store.
	Close()
}
