package domain

// Address is the data structure representing a forwarding address issued by
// the upstream payment gateway. Funds received on Address are swept to
// ForwardingAddress once Confirmations blocks have acknowledged them.
type Address struct {
	Address           string
	CurrencyId        int
	PaymentCode       string
	CallbackLink      string
	ForwardingAddress string
	Confirmations     uint32
	Invoice           string
	CreatedAt         int64
}

// IsZero returns whether the address is uninitialized.
func (a *Address) IsZero() bool {
	return a == nil || len(a.Address) == 0
}
