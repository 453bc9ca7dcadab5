package domain

import "errors"

var (
	// ErrAddressNotFound ...
	ErrAddressNotFound = errors.New("address not found")
	// ErrAddressAlreadyExists ...
	ErrAddressAlreadyExists = errors.New("address already exists")
	// ErrTransactionNotFound ...
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrTransactionAlreadyExists ...
	ErrTransactionAlreadyExists = errors.New("transaction already exists")
	// ErrTransactionConflict is returned when two concurrent ingestions
	// contend on the same (address, hash) pair. It is expected under
	// concurrent delivery and retried internally, never surfaced to callers.
	ErrTransactionConflict = errors.New("concurrent update on transaction")
	// ErrUnknownTransactionStatus ...
	ErrUnknownTransactionStatus = errors.New("unknown transaction status")
	// ErrUnknownCurrency is returned by a CurrencyResolver miss.
	ErrUnknownCurrency = errors.New("currency is not supported")
	// ErrUnknownAddress is returned by an AddressOwnerResolver miss.
	ErrUnknownAddress = errors.New("address is not registered to any user")
)
