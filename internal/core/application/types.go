package application

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/postmix/forwardd/internal/core/domain"
)

// satoshis per coin expressed as a decimal exponent.
const coinExponent = -8

// AddressState is a point-in-time snapshot of the payment statistics of a
// forwarding address, computed from locally reconciled transactions. It is a
// read-side view with no independent lifecycle.
type AddressState struct {
	Address                 string
	ForwardingAddress       string
	CallbackLink            string
	Confirmations           uint32
	CurrencyId              int
	PendingReceived         uint64
	Received                uint64
	Paid                    uint64
	PendingPaid             uint64
	FeePaid                 uint64
	TransactionCount        int
	PendingTransactionCount int
	InvalidTransactionCount int
	CreatedAt               int64
}

// ReceivedAmount returns the gross confirmed total in coin denomination.
func (s *AddressState) ReceivedAmount() decimal.Decimal {
	return decimal.New(int64(s.Received), coinExponent)
}

// PaidAmount returns the net total swept to the merchant in coin
// denomination.
func (s *AddressState) PaidAmount() decimal.Decimal {
	return decimal.New(int64(s.Paid), coinExponent)
}

// PendingReceivedAmount returns the pending total in coin denomination.
func (s *AddressState) PendingReceivedAmount() decimal.Decimal {
	return decimal.New(int64(s.PendingReceived), coinExponent)
}

// FeePaidAmount returns the total of miner and service fees in coin
// denomination.
func (s *AddressState) FeePaidAmount() decimal.Decimal {
	return decimal.New(int64(s.FeePaid), coinExponent)
}

// TransactionConfirmed is the domain event raised when a transaction
// transitions into the confirmed status. It is emitted at most once per
// transaction.
type TransactionConfirmed struct {
	UserId      string             `json:"user_id,omitempty"`
	Transaction domain.Transaction `json:"transaction"`
}

// Serialize returns the event in its JSON format.
func (e TransactionConfirmed) Serialize() []byte {
	b, _ := json.Marshal(e)
	return b
}

// ReconcileOutcome is the per-record result of a reconciliation. A failed
// record never aborts the rest of the batch.
type ReconcileOutcome struct {
	Hash      string
	Created   bool
	Updated   bool
	Confirmed bool
	Err       error
}
