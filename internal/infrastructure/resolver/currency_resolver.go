package resolver

import (
	"strings"

	"github.com/postmix/forwardd/internal/core/domain"
)

type currencyTable struct {
	currencies map[string]int
}

// NewCurrencyResolver returns a domain.CurrencyResolver backed by the given
// configuration table, case-insensitive on currency codes.
func NewCurrencyResolver(currencies map[string]int) domain.CurrencyResolver {
	table := make(map[string]int, len(currencies))
	for code, id := range currencies {
		table[strings.ToLower(code)] = id
	}
	return &currencyTable{currencies: table}
}

func (t *currencyTable) ResolveCurrency(code string) (int, error) {
	id, ok := t.currencies[strings.ToLower(code)]
	if !ok {
		return 0, domain.ErrUnknownCurrency
	}
	return id, nil
}
