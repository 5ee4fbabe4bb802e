// Package receipt renders donation receipts as PDF documents through an external
// HTML-to-PDF conversion service.
package receipt

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
)

//go:embed templates/receipt.html
var templateFS embed.FS

var receiptTemplate = template.Must(template.ParseFS(templateFS, "templates/receipt.html"))

// Organization is the issuer block printed on every receipt.
type Organization struct {
	Name     string
	Address  string
	Email    string
	Phone    string
	Website  string
	Register string
}

// DefaultOrganization is the issuer used when none is configured.
var DefaultOrganization = Organization{
	Name:     "AFRICA ACCESS WATER",
	Address:  "Lot 5676/M/6, Lusaka West, Lusaka, Zambia",
	Email:    "info@africaaccesswater.org",
	Phone:    "+260 211 231 174",
	Website:  "www.africaaccesswater.org",
	Register: "Non-profit Organization, Company No. 120190001569",
}

// Receipt is the content of one donation receipt.
type Receipt struct {
	DonationID     string
	DonorName      string
	DonorEmail     string
	Amount         decimal.Decimal
	Currency       string
	Method         string
	TransactionRef string
	Purpose        string
	IssuedAt       time.Time
}

// MethodCard is the payment method printed for processor-collected donations.
const MethodCard = "Card (Stripe)"

// ForDonation builds the receipt for a completed donation.
func ForDonation(d *donation.Donation, issuedAt time.Time) Receipt {
	r := Receipt{
		DonationID: d.ID.String(),
		DonorName:  d.DonorName,
		DonorEmail: d.DonorEmail,
		Amount:     d.Amount,
		Currency:   d.Currency,
		Method:     MethodCard,
		Purpose:    d.Purpose(),
		IssuedAt:   issuedAt,
	}

	if d.PaymentRef != nil {
		r.TransactionRef = *d.PaymentRef
	}

	return r
}

// Filename is the attachment name used when the receipt is mailed.
func (r Receipt) Filename() string {
	return "Donation-Receipt-" + r.DonationID + ".pdf"
}

type view struct {
	Org      Organization
	Receipt  Receipt
	Amount   string
	Currency string
	Date     string
}

// HTML renders the receipt document that is sent to the converter.
func HTML(org Organization, r Receipt) ([]byte, error) {
	var buf bytes.Buffer

	err := receiptTemplate.Execute(&buf, view{
		Org:      org,
		Receipt:  r,
		Amount:   r.Amount.StringFixed(2),
		Currency: strings.ToUpper(r.Currency),
		Date:     r.IssuedAt.Format("January 2, 2006"),
	})
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
