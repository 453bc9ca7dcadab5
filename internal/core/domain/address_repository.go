package domain

import "context"

// AddressRepository is the abstraction for any kind of database intended to
// persist forwarding Addresses.
type AddressRepository interface {
	// AddAddress adds the provided address to the repository. Returns
	// ErrAddressAlreadyExists if one with the same key is already stored.
	AddAddress(ctx context.Context, address *Address) error
	// GetAddress returns the address identified by its deposit address
	// string, or ErrAddressNotFound.
	GetAddress(ctx context.Context, addr string) (*Address, error)
	// GetAllAddresses returns all the addresses stored in the repository.
	GetAllAddresses(ctx context.Context) ([]*Address, error)
}
