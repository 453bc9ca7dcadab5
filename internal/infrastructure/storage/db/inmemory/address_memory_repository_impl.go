package inmemory

import (
	"context"
	"sync"

	"github.com/postmix/forwardd/internal/core/domain"
)

type addressRepositoryImpl struct {
	addresses map[string]domain.Address
	lock      *sync.RWMutex
}

// NewAddressRepositoryImpl returns an in-memory domain.AddressRepository.
func NewAddressRepositoryImpl() domain.AddressRepository {
	return &addressRepositoryImpl{
		addresses: map[string]domain.Address{},
		lock:      &sync.RWMutex{},
	}
}

func (r *addressRepositoryImpl) AddAddress(
	_ context.Context, address *domain.Address,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.addresses[address.Address]; ok {
		return domain.ErrAddressAlreadyExists
	}
	r.addresses[address.Address] = *address
	return nil
}

func (r *addressRepositoryImpl) GetAddress(
	_ context.Context, addr string,
) (*domain.Address, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	address, ok := r.addresses[addr]
	if !ok {
		return nil, domain.ErrAddressNotFound
	}
	return &address, nil
}

func (r *addressRepositoryImpl) GetAllAddresses(
	_ context.Context,
) ([]*domain.Address, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	addresses := make([]*domain.Address, 0, len(r.addresses))
	for _, address := range r.addresses {
		address := address
		addresses = append(addresses, &address)
	}
	return addresses, nil
}
