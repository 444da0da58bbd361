package domain

// Debt is the normalized view of a CRM debt entry. Upstream shapes vary;
// the gateway flattens them to this and nothing else is kept.
type Debt struct {
	Creditor       string  `json:"creditor"`
	CurrentBalance float64 `json:"currentBalance"`
	CurrentPayment float64 `json:"currentPayment"`
	DebtType       string  `json:"debtType,omitempty"`
}

// Contact holds the CRM contact record as returned upstream. The dashboard
// renders it opaquely, so it stays a loose map rather than a struct.
type Contact map[string]any

// CreditReport merges a contact's debts with the contact record itself.
// Never persisted locally.
type CreditReport struct {
	Debts   []Debt  `json:"debts"`
	Contact Contact `json:"contact"`
}
