package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Africa-Access-Water/afaw-api/internal/money"
)

func TestFromMinor(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		currency string
		want     string
	}{
		{name: "Cents", amount: 2500, currency: "usd", want: "25"},
		{name: "Fraction", amount: 1999, currency: "EUR", want: "19.99"},
		{name: "ZeroDecimal", amount: 500, currency: "jpy", want: "500"},
		{name: "Zero", amount: 0, currency: "usd", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := money.FromMinor(tt.amount, tt.currency)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestToMinor(t *testing.T) {
	assert.Equal(t, int64(2500), money.ToMinor(decimal.RequireFromString("25"), "usd"))
	assert.Equal(t, int64(1000), money.ToMinor(decimal.RequireFromString("9.995"), "usd"))
	assert.Equal(t, int64(500), money.ToMinor(decimal.RequireFromString("500"), "JPY"))
}

func TestEqual(t *testing.T) {
	assert.True(t, money.Equal(decimal.RequireFromString("25.00"), decimal.RequireFromString("25")))
	assert.True(t, money.Equal(decimal.RequireFromString("25.001"), decimal.RequireFromString("25")))
	assert.False(t, money.Equal(decimal.RequireFromString("25.01"), decimal.RequireFromString("25")))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "USD 25.00", money.Format(decimal.RequireFromString("25"), "usd"))
}
