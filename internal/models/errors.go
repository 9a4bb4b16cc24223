package models

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInstrumentNotFound = errors.New("instrument not found")
	ErrPriceUnavailable   = errors.New("price unavailable")
)

// OrderRejectedError — биржа ответила не-нулевым кодом на выставление ордера.
// Ретраев нет: следующий каскад сам перевыставит.
type OrderRejectedError struct {
	Code   int
	Reason string
}

func (e *OrderRejectedError) Error() string {
	return fmt.Sprintf("order rejected: retCode=%d %s", e.Code, e.Reason)
}
