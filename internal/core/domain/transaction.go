package domain

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
)

// TransactionStatus is the upstream-reported status of a payment transaction.
type TransactionStatus int

const (
	// TransactionStatusPending identifies a transaction seen on the network
	// but not yet acknowledged by the required number of confirmations.
	TransactionStatusPending TransactionStatus = iota
	// TransactionStatusConfirmed identifies a transaction that reached the
	// confirmation threshold and has been (or is being) swept.
	TransactionStatusConfirmed
	// TransactionStatusInvalid identifies a transaction rejected by the
	// network, ie. double-spent or dropped from the mempool.
	TransactionStatusInvalid
)

var statusLabels = map[TransactionStatus]string{
	TransactionStatusPending:   "pending",
	TransactionStatusConfirmed: "confirmed",
	TransactionStatusInvalid:   "invalid",
}

func (s TransactionStatus) String() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return "unknown"
}

// ParseTransactionStatus converts an upstream status label to a typed status.
func ParseTransactionStatus(label string) (TransactionStatus, error) {
	for status, l := range statusLabels {
		if l == label {
			return status, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrUnknownTransactionStatus, label)
}

// Out is a single output line item of a transaction, owned by its parent
// Transaction and replaced wholesale whenever the upstream reports a
// differing output set.
type Out struct {
	Amount  uint64
	TxOut   uint32
	Address string
}

// Transaction is the data structure representing a payment received on a
// forwarding address. It is uniquely identified by the (Address, Hash) pair
// and is an append-only financial record, never deleted.
type Transaction struct {
	Address      string
	Hash         string
	Status       TransactionStatus
	Amount       uint64
	TxOut        uint32
	Timestamp    int64
	Time         int64
	MinerFee     uint64
	ServiceFee   uint64
	PayoutTxHash string
	Notification bool
	Outs         []Out
}

// TransactionUpdate carries the mutable fields of a transaction as reported
// by the upstream in one ingestion.
type TransactionUpdate struct {
	Status       TransactionStatus
	Amount       uint64
	TxOut        uint32
	Timestamp    int64
	Time         int64
	MinerFee     uint64
	ServiceFee   uint64
	PayoutTxHash string
	Outs         []Out
}

// NewTransaction returns a transaction for the given address and hash with
// the notification flag unset.
func NewTransaction(address, hash string) *Transaction {
	return &Transaction{Address: address, Hash: hash}
}

// TransactionKey returns the storage key of the transaction identified by the
// (address, hash) pair.
func TransactionKey(address, hash string) string {
	buf := []byte(fmt.Sprintf("%s:%s", address, hash))
	return hex.EncodeToString(btcutil.Hash160(buf))
}

func (t *Transaction) Key() string {
	return TransactionKey(t.Address, t.Hash)
}

// Apply merges the upstream-reported fields into the transaction and returns
// whether anything changed and whether this very report made the transaction
// transition into the Confirmed status. A status regression away from
// Confirmed is accepted as data, but the notification flag is left untouched.
func (t *Transaction) Apply(update TransactionUpdate) (changed, confirmedNow bool) {
	confirmedNow = t.Status != TransactionStatusConfirmed &&
		update.Status == TransactionStatusConfirmed

	if t.Status != update.Status {
		t.Status = update.Status
		changed = true
	}
	if t.Amount != update.Amount {
		t.Amount = update.Amount
		changed = true
	}
	if t.TxOut != update.TxOut {
		t.TxOut = update.TxOut
		changed = true
	}
	if t.Timestamp != update.Timestamp {
		t.Timestamp = update.Timestamp
		changed = true
	}
	if t.Time != update.Time {
		t.Time = update.Time
		changed = true
	}
	if t.MinerFee != update.MinerFee {
		t.MinerFee = update.MinerFee
		changed = true
	}
	if t.ServiceFee != update.ServiceFee {
		t.ServiceFee = update.ServiceFee
		changed = true
	}
	if t.PayoutTxHash != update.PayoutTxHash {
		t.PayoutTxHash = update.PayoutTxHash
		changed = true
	}
	if !outsEqual(t.Outs, update.Outs) {
		t.Outs = copyOuts(update.Outs)
		changed = true
	}
	return
}

// ConfirmNotification flips the notification flag, returning whether it was
// actually flipped by this call. Once set the flag never reverts, this is
// what guarantees the at-most-once emission of the confirmation event.
func (t *Transaction) ConfirmNotification() bool {
	if t.Notification {
		return false
	}
	t.Notification = true
	return true
}

// IsConfirmed returns whether the transaction is in Confirmed status.
func (t *Transaction) IsConfirmed() bool {
	return t.Status == TransactionStatusConfirmed
}

// IsPending returns whether the transaction is in Pending status.
func (t *Transaction) IsPending() bool {
	return t.Status == TransactionStatusPending
}

// IsInvalid returns whether the transaction is in Invalid status.
func (t *Transaction) IsInvalid() bool {
	return t.Status == TransactionStatusInvalid
}

func outsEqual(a, b []Out) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func copyOuts(outs []Out) []Out {
	if outs == nil {
		return nil
	}
	cp := make([]Out, len(outs))
	copy(cp, outs)
	return cp
}
