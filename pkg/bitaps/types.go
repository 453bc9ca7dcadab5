package bitaps

import (
	"encoding/json"
	"fmt"
)

// Transaction statuses as reported by the gateway.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusInvalid   = "invalid"
)

var validStatuses = map[string]struct{}{
	StatusPending:   {},
	StatusConfirmed: {},
	StatusInvalid:   {},
}

// CreateAddressRequest is the payload of the create forwarding address call.
type CreateAddressRequest struct {
	ForwardingAddress string `json:"forwarding_address"`
	Confirmations     uint32 `json:"confirmations"`
	CallbackLink      string `json:"callback_link,omitempty"`
}

// ForwardingAddressReply is the gateway response to a create forwarding
// address call.
type ForwardingAddressReply struct {
	PaymentCode       string `json:"payment_code"`
	CallbackLink      string `json:"callback_link"`
	ForwardingAddress string `json:"forwarding_address"`
	Address           string `json:"address"`
	Invoice           string `json:"invoice"`
}

// NewForwardingAddressReplyFromJSON is the factory for a reply in its JSON
// format, failing fast on missing required fields.
func NewForwardingAddressReplyFromJSON(buf []byte) (*ForwardingAddressReply, error) {
	reply := &ForwardingAddressReply{}
	if err := json.Unmarshal(buf, reply); err != nil {
		return nil, fmt.Errorf("invalid create address reply: %s", err)
	}
	if len(reply.Address) <= 0 {
		return nil, fmt.Errorf("create address reply is missing address")
	}
	if len(reply.PaymentCode) <= 0 {
		return nil, fmt.Errorf("create address reply is missing payment_code")
	}
	return reply, nil
}

// RawOut is an output line item of an upstream-reported transaction.
type RawOut struct {
	Amount  uint64 `json:"amount"`
	TxOut   uint32 `json:"tx_out"`
	Address string `json:"address"`
}

// RawPayout carries the sweep details of an upstream-reported transaction.
type RawPayout struct {
	TxHash     string `json:"tx_hash"`
	MinerFee   uint64 `json:"miner_fee"`
	ServiceFee uint64 `json:"service_fee"`
}

// RawTransaction is the upstream-reported record of a payment received on a
// forwarding address, as listed by the transactions endpoint and posted to
// the callback link.
type RawTransaction struct {
	Hash         string    `json:"hash"`
	Status       string    `json:"status"`
	Amount       uint64    `json:"amount"`
	Timestamp    int64     `json:"timestamp"`
	Time         int64     `json:"time"`
	TxOut        uint32    `json:"tx_out"`
	Notification bool      `json:"notification"`
	Payout       RawPayout `json:"payout"`
	Outs         []RawOut  `json:"outs"`
}

// Validate checks the required fields of the record. An empty output list is
// valid.
func (r *RawTransaction) Validate() error {
	if len(r.Hash) <= 0 {
		return fmt.Errorf("transaction record is missing hash")
	}
	if len(r.Status) <= 0 {
		return fmt.Errorf("transaction record is missing status")
	}
	if _, ok := validStatuses[r.Status]; !ok {
		return fmt.Errorf("transaction record has unknown status %s", r.Status)
	}
	return nil
}

type txListReply struct {
	TxList []RawTransaction `json:"tx_list"`
}

// CallbackPayload is the shape of the notification the gateway posts to the
// callback link: the target address along with a batch of raw transaction
// records.
type CallbackPayload struct {
	Address string           `json:"address"`
	TxList  []RawTransaction `json:"tx_list"`
}

// RawAddressState is the gateway-side snapshot of a forwarding address.
type RawAddressState struct {
	Address                 string `json:"address"`
	Type                    string `json:"type"`
	Currency                string `json:"currency"`
	ForwardingAddress       string `json:"forwarding_address"`
	Confirmations           uint32 `json:"confirmations"`
	PendingReceived         uint64 `json:"pending_received"`
	Received                uint64 `json:"received"`
	Paid                    uint64 `json:"paid"`
	PendingPaid             uint64 `json:"pending_paid"`
	FeePaid                 uint64 `json:"fee_paid"`
	TransactionCount        int    `json:"transaction_count"`
	PendingTransactionCount int    `json:"pending_transaction_count"`
	InvalidTransactionCount int    `json:"invalid_transaction_count"`
	CreateDate              string `json:"create_date"`
	CreateDateTimestamp     int64  `json:"create_date_timestamp"`
}

// AccessHeaders returns the auth headers granting access to the state and
// transactions endpoints of a payment address.
func AccessHeaders(paymentCode string) map[string]string {
	return map[string]string{"payment-code": paymentCode}
}
