package application

import (
	"context"

	"github.com/postmix/forwardd/internal/core/domain"
	"github.com/postmix/forwardd/internal/core/ports"
)

// AddressStateAggregator computes point-in-time payment statistics of a
// forwarding address from locally reconciled transactions. It is a read-only
// view with no write path; the gateway's own figures remain reachable
// through the bitaps service and no attempt is made to reconcile the two.
type AddressStateAggregator interface {
	// Snapshot returns the aggregated state of the given address, or
	// domain.ErrAddressNotFound.
	Snapshot(ctx context.Context, addr string) (*AddressState, error)
}

type addressStateAggregator struct {
	repoManager ports.RepoManager
}

// NewAddressStateAggregator returns an AddressStateAggregator computing from
// the given repositories.
func NewAddressStateAggregator(
	repoManager ports.RepoManager,
) AddressStateAggregator {
	return &addressStateAggregator{repoManager: repoManager}
}

func (a *addressStateAggregator) Snapshot(
	ctx context.Context, addr string,
) (*AddressState, error) {
	address, err := a.repoManager.AddressRepository().GetAddress(ctx, addr)
	if err != nil {
		return nil, err
	}
	txs, err := a.repoManager.TransactionRepository().
		GetAllTransactionsForAddress(ctx, addr)
	if err != nil {
		return nil, err
	}

	state := &AddressState{
		Address:           address.Address,
		ForwardingAddress: address.ForwardingAddress,
		CallbackLink:      address.CallbackLink,
		Confirmations:     address.Confirmations,
		CurrencyId:        address.CurrencyId,
		CreatedAt:         address.CreatedAt,
	}
	for _, tx := range txs {
		switch {
		case tx.IsPending():
			state.PendingReceived += tx.Amount
			state.PendingPaid += netAmount(tx)
			state.PendingTransactionCount++
		case tx.IsConfirmed():
			state.Received += tx.Amount
			state.Paid += netAmount(tx)
			state.FeePaid += tx.MinerFee + tx.ServiceFee
		case tx.IsInvalid():
			state.InvalidTransactionCount++
		}
		state.TransactionCount++
	}
	return state, nil
}

// netAmount is the amount swept to the merchant once miner and service fees
// are withheld.
func netAmount(tx *domain.Transaction) uint64 {
	fees := tx.MinerFee + tx.ServiceFee
	if fees >= tx.Amount {
		return 0
	}
	return tx.Amount - fees
}
