package application

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/postmix/forwardd/internal/core/domain"
	"github.com/postmix/forwardd/internal/core/ports"
	"github.com/postmix/forwardd/pkg/bitaps"
)

// ForwardingService creates and retrieves forwarding addresses and keeps
// their transactions in sync with the upstream gateway.
type ForwardingService interface {
	// CreateAddress requests a new forwarding address from the gateway and
	// persists it. The required confirmation count must be 1 or higher and
	// is fixed at creation.
	CreateAddress(
		ctx context.Context, forwardingAddress string, confirmations uint32,
	) (*domain.Address, error)
	// GetAddress returns the stored address identified by its deposit
	// address string, or domain.ErrAddressNotFound.
	GetAddress(ctx context.Context, addr string) (*domain.Address, error)
	// ListAddresses returns all the stored forwarding addresses.
	ListAddresses(ctx context.Context) ([]*domain.Address, error)
	// SyncAddress lists the transactions of the address from the gateway
	// and reconciles them into local storage, returning the per-record
	// outcomes.
	SyncAddress(
		ctx context.Context, addr string, opts bitaps.ListOptions,
	) ([]ReconcileOutcome, error)
}

type forwardingService struct {
	gateway          bitaps.Service
	repoManager      ports.RepoManager
	reconciler       TransactionReconciler
	currencyResolver domain.CurrencyResolver
	currency         string
	callbackLink     string
}

// NewForwardingService returns a ForwardingService issuing addresses for the
// given active currency code and callback link.
func NewForwardingService(
	gateway bitaps.Service, repoManager ports.RepoManager,
	reconciler TransactionReconciler, currencyResolver domain.CurrencyResolver,
	currency, callbackLink string,
) ForwardingService {
	return &forwardingService{
		gateway:          gateway,
		repoManager:      repoManager,
		reconciler:       reconciler,
		currencyResolver: currencyResolver,
		currency:         currency,
		callbackLink:     callbackLink,
	}
}

func (s *forwardingService) CreateAddress(
	ctx context.Context, forwardingAddress string, confirmations uint32,
) (*domain.Address, error) {
	if len(forwardingAddress) <= 0 {
		return nil, ErrInvalidForwardingAddress
	}
	if confirmations < 1 {
		return nil, ErrInvalidConfirmations
	}

	// Resolve the active currency before touching the gateway so that a
	// misconfigured currency table never issues an upstream address.
	currencyId, err := s.currencyResolver.ResolveCurrency(s.currency)
	if err != nil {
		return nil, err
	}

	reply, err := s.gateway.CreateForwardingAddress(ctx, bitaps.CreateAddressRequest{
		ForwardingAddress: forwardingAddress,
		Confirmations:     confirmations,
		CallbackLink:      s.callbackLink,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, err)
	}

	address := &domain.Address{
		Address:           reply.Address,
		CurrencyId:        currencyId,
		PaymentCode:       reply.PaymentCode,
		CallbackLink:      reply.CallbackLink,
		ForwardingAddress: reply.ForwardingAddress,
		Confirmations:     confirmations,
		Invoice:           reply.Invoice,
		CreatedAt:         time.Now().Unix(),
	}
	if err := s.repoManager.AddressRepository().AddAddress(
		ctx, address,
	); err != nil {
		return nil, err
	}

	log.Infof(
		"created forwarding address %s sweeping to %s after %d confirmations",
		address.Address, address.ForwardingAddress, confirmations,
	)
	return address, nil
}

func (s *forwardingService) GetAddress(
	ctx context.Context, addr string,
) (*domain.Address, error) {
	return s.repoManager.AddressRepository().GetAddress(ctx, addr)
}

func (s *forwardingService) ListAddresses(
	ctx context.Context,
) ([]*domain.Address, error) {
	return s.repoManager.AddressRepository().GetAllAddresses(ctx)
}

func (s *forwardingService) SyncAddress(
	ctx context.Context, addr string, opts bitaps.ListOptions,
) ([]ReconcileOutcome, error) {
	address, err := s.repoManager.AddressRepository().GetAddress(ctx, addr)
	if err != nil {
		return nil, err
	}

	batch, err := s.gateway.ListTransactions(
		ctx, address.Address, bitaps.AccessHeaders(address.PaymentCode), opts,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, err)
	}

	return s.reconciler.Reconcile(ctx, address, batch), nil
}
