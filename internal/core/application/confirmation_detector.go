package application

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/postmix/forwardd/internal/core/domain"
	"github.com/postmix/forwardd/internal/core/ports"
)

// ConfirmationDetector decides whether a reconciled transaction must raise a
// TransactionConfirmed event and guarantees its at-most-once emission.
//
// Detect must be invoked within the same storage transaction that persists
// the status change: it couples the notification flag flip with the upsert,
// so that a crash between the two cannot re-arm the event. Emit is invoked
// only after that transaction committed; a delivery failure leaves the flag
// set and is deliberately not replayed.
type ConfirmationDetector interface {
	// Detect flips the transaction's notification flag when the transition
	// into the confirmed status happened with the current ingestion and no
	// notification was emitted before. Returns whether the caller must emit
	// the event once the enclosing upsert commits.
	Detect(t *domain.Transaction, transitionedToConfirmed bool) bool
	// Emit publishes the TransactionConfirmed event for the given
	// transaction.
	Emit(ctx context.Context, t domain.Transaction)
}

type confirmationDetector struct {
	pubsub        ports.SecurePubSub
	ownerResolver domain.AddressOwnerResolver
}

// NewConfirmationDetector returns a ConfirmationDetector publishing on the
// given pubsub service. The owner resolver enriches the event payload with
// the identifier of the user the payment belongs to.
func NewConfirmationDetector(
	pubsub ports.SecurePubSub, ownerResolver domain.AddressOwnerResolver,
) ConfirmationDetector {
	return &confirmationDetector{
		pubsub:        pubsub,
		ownerResolver: ownerResolver,
	}
}

func (d *confirmationDetector) Detect(
	t *domain.Transaction, transitionedToConfirmed bool,
) bool {
	if !transitionedToConfirmed {
		return false
	}
	return t.ConfirmNotification()
}

func (d *confirmationDetector) Emit(
	ctx context.Context, t domain.Transaction,
) {
	event := TransactionConfirmed{Transaction: t}

	userId, err := d.ownerResolver.OwnerOfAddress(t.Address)
	if err != nil {
		if !errors.Is(err, domain.ErrUnknownAddress) {
			log.WithError(err).Warnf(
				"failed to resolve owner of address %s", t.Address,
			)
		}
	} else {
		event.UserId = userId
	}

	if err := d.pubsub.Publish(
		ports.TopicTransactionConfirmed, string(event.Serialize()),
	); err != nil {
		// The notification flag is already committed, the emission is
		// at-most-once and a redelivered reconciliation must not re-emit.
		log.WithError(err).Warnf(
			"failed to deliver confirmation event for transaction %s", t.Hash,
		)
	}
}
