package dbbadger

import (
	"context"
	"errors"

	"github.com/timshannon/badgerhold/v4"

	"github.com/postmix/forwardd/internal/core/domain"
)

type addressRepositoryImpl struct {
	store *badgerhold.Store
}

// NewAddressRepositoryImpl returns a domain.AddressRepository backed by the
// given badgerhold store, keyed by the deposit address string.
func NewAddressRepositoryImpl(store *badgerhold.Store) domain.AddressRepository {
	return &addressRepositoryImpl{store}
}

func (r *addressRepositoryImpl) AddAddress(
	_ context.Context, address *domain.Address,
) error {
	if err := r.store.Insert(address.Address, *address); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.ErrAddressAlreadyExists
		}
		return err
	}
	return nil
}

func (r *addressRepositoryImpl) GetAddress(
	_ context.Context, addr string,
) (*domain.Address, error) {
	var address domain.Address
	if err := r.store.Get(addr, &address); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrAddressNotFound
		}
		return nil, err
	}
	return &address, nil
}

func (r *addressRepositoryImpl) GetAllAddresses(
	_ context.Context,
) ([]*domain.Address, error) {
	var list []domain.Address
	if err := r.store.Find(&list, nil); err != nil {
		return nil, err
	}

	addresses := make([]*domain.Address, 0, len(list))
	for i := range list {
		addresses = append(addresses, &list[i])
	}
	return addresses, nil
}
