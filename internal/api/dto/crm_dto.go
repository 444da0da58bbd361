package dto

// CreditReportRequest selects the contact to report on.
type CreditReportRequest struct {
	ClientIDOrName string `json:"clientIdOrName"`
}
