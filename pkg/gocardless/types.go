// Package gocardless provides a bank account data API client and the token
// lifecycle backing every remote call.
package gocardless

// tokenResponse is the payload of the token create endpoint. Refresh
// responses carry only the access fields.
type tokenResponse struct {
	Access         string `json:"access"`
	AccessExpires  int64  `json:"access_expires"` // seconds
	Refresh        string `json:"refresh"`
	RefreshExpires int64  `json:"refresh_expires"` // seconds
}

// ErrorResponse is the API's error body.
type ErrorResponse struct {
	Summary    string `json:"summary"`
	Detail     string `json:"detail"`
	StatusCode int    `json:"status_code"`
}

// AmountValue is the API's amount representation: a decimal string plus a
// currency code.
type AmountValue struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// requisitionPayload is a requisition as the API returns it.
type requisitionPayload struct {
	ID            string   `json:"id"`
	InstitutionID string   `json:"institution_id"`
	Status        string   `json:"status"`
	Accounts      []string `json:"accounts"`
	Link          string   `json:"link"`
	Reference     string   `json:"reference"`
}

// requisitionList is the paginated requisition listing.
type requisitionList struct {
	Count   int                  `json:"count"`
	Results []requisitionPayload `json:"results"`
}

// CreatedRequisition is the result of creating a bank link: the requisition
// id plus the consent URL the user must visit.
type CreatedRequisition struct {
	ID   string
	Link string
}

// AccountDetails is the detail payload of a linked account.
type AccountDetails struct {
	ResourceID string `json:"resourceId"`
	IBAN       string `json:"iban"`
	Currency   string `json:"currency"`
	OwnerName  string `json:"ownerName"`
	Name       string `json:"name"`
	Product    string `json:"product"`
}

// accountDetailsResponse wraps AccountDetails the way the API nests it.
type accountDetailsResponse struct {
	Account AccountDetails `json:"account"`
}

// Balance is one balance entry of an account. Accounts report several
// balance types; interimAvailable is preferred when present.
type Balance struct {
	BalanceAmount AmountValue `json:"balanceAmount"`
	BalanceType   string      `json:"balanceType"`
	ReferenceDate string      `json:"referenceDate"`
}

type balancesResponse struct {
	Balances []Balance `json:"balances"`
}

// BookedTransaction is a settled transaction as the API reports it.
type BookedTransaction struct {
	TransactionID                          string      `json:"transactionId"`
	InternalTransactionID                  string      `json:"internalTransactionId"`
	BookingDate                            string      `json:"bookingDate"`
	ValueDate                              string      `json:"valueDate"`
	TransactionAmount                      AmountValue `json:"transactionAmount"`
	CreditorName                           string      `json:"creditorName"`
	DebtorName                             string      `json:"debtorName"`
	RemittanceInformationUnstructured      string      `json:"remittanceInformationUnstructured"`
	RemittanceInformationUnstructuredArray []string    `json:"remittanceInformationUnstructuredArray"`
	AdditionalInformation                  string      `json:"additionalInformation"`
}

type transactionsResponse struct {
	Transactions struct {
		Booked  []BookedTransaction `json:"booked"`
		Pending []BookedTransaction `json:"pending"`
	} `json:"transactions"`
}

// Institution is a bank selectable for a new requisition.
type Institution struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	BIC                  string   `json:"bic"`
	TransactionTotalDays string   `json:"transaction_total_days"`
	Countries            []string `json:"countries"`
	Logo                 string   `json:"logo"`
}
