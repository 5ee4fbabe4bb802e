// Package statement cross-checks a processor payments export against completed donations.
package statement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
)

// Charge is one succeeded payment line of an export.
type Charge struct {
	ID         string
	PaymentRef string
	Created    time.Time
	Amount     decimal.Decimal
	Currency   string
	Row        int
}

type Match struct {
	Charge   Charge
	Donation *donation.Donation
}

// Report lists what the processor collected that was never recorded, and the reverse.
type Report struct {
	Format             string
	Encoding           string
	From               time.Time
	To                 time.Time
	Charges            int
	Matched            []Match
	Mismatched         []Match // Same payment, different amount or currency
	UnmatchedCharges   []Charge
	UnmatchedDonations []*donation.Donation
}

func (r *Report) Clean() bool {
	return len(r.Mismatched) == 0 && len(r.UnmatchedCharges) == 0 && len(r.UnmatchedDonations) == 0
}
