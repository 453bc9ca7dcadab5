package domain

// CurrencyResolver maps a currency symbol to its stable internal identifier.
type CurrencyResolver interface {
	// ResolveCurrency returns the internal id of the given currency code, or
	// ErrUnknownCurrency if unmapped.
	ResolveCurrency(code string) (int, error)
}

// AddressOwnerResolver maps a forwarding address to the identifier of the
// user it was issued for.
type AddressOwnerResolver interface {
	// OwnerOfAddress returns the identifier of the owner of the given
	// deposit address, or ErrUnknownAddress if the address is not registered
	// to any user.
	OwnerOfAddress(addr string) (string, error)
}
