package view

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Africa-Access-Water/afaw-api/internal/money"
)

const dbTimeout = 5 * time.Second

// FormatAmount renders an amount with its currency, e.g. "USD 25.00".
func FormatAmount(amount decimal.Decimal, currency string) string {
	return money.Format(amount, currency)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatOptionalDate renders "-" for a nil time.
func FormatOptionalDate(t *time.Time) string {
	if t == nil {
		return "-"
	}

	return FormatDate(*t)
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
