package resolver

import (
	"context"
	"errors"

	"github.com/postmix/forwardd/internal/core/domain"
	"github.com/postmix/forwardd/internal/core/ports"
)

type ownerDirectory struct {
	repoManager ports.RepoManager
}

// NewAddressOwnerResolver returns a domain.AddressOwnerResolver backed by
// the local address registry: the merchant destination wallet identifies the
// owner of a forwarding address.
func NewAddressOwnerResolver(
	repoManager ports.RepoManager,
) domain.AddressOwnerResolver {
	return &ownerDirectory{repoManager: repoManager}
}

func (d *ownerDirectory) OwnerOfAddress(addr string) (string, error) {
	address, err := d.repoManager.AddressRepository().GetAddress(
		context.Background(), addr,
	)
	if err != nil {
		if errors.Is(err, domain.ErrAddressNotFound) {
			return "", domain.ErrUnknownAddress
		}
		return "", err
	}
	return address.ForwardingAddress, nil
}
