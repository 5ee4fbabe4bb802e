package statement

// Profile describes the column layout of one processor export format.
type Profile struct {
	Name          string
	IDCol         string
	CreatedCol    string
	AmountCol     string
	CurrencyCol   string
	StatusCol     string
	PaymentRefCol string
	Succeeded     []string // StatusCol values that count as a collected charge
}

func (p Profile) requiredCols() []string {
	return []string{p.IDCol, p.CreatedCol, p.AmountCol, p.CurrencyCol, p.StatusCol, p.PaymentRefCol}
}

func (p Profile) succeeded(status string) bool {
	for _, s := range p.Succeeded {
		if s == status {
			return true
		}
	}

	return false
}

// profiles are tried in order; the first whose columns all appear in a header row wins.
var profiles = []Profile{
	{
		Name:          "payments",
		IDCol:         "id",
		CreatedCol:    "Created date (UTC)",
		AmountCol:     "Amount",
		CurrencyCol:   "Currency",
		StatusCol:     "Status",
		PaymentRefCol: "PaymentIntent ID",
		Succeeded:     []string{"Paid", "paid", "succeeded"},
	},
	{
		Name:          "balance",
		IDCol:         "balance_transaction_id",
		CreatedCol:    "created_utc",
		AmountCol:     "gross",
		CurrencyCol:   "currency",
		StatusCol:     "reporting_category",
		PaymentRefCol: "payment_intent_id",
		Succeeded:     []string{"charge"},
	},
}
