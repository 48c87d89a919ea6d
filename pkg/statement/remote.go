package statement

import (
	"encoding/json"
	"strings"

	"github.com/darcoto/mymoney2/pkg/gocardless"
	"github.com/darcoto/mymoney2/pkg/model"
	"github.com/darcoto/mymoney2/pkg/txid"
)

// remotePrefix tags ids generated for remote transactions that arrive
// without any provider id.
const remotePrefix = "GC"

// FromRemote maps a booked remote transaction to canonical form.
//
// Identity preference: the provider-issued transactionId, then the
// provider's internalTransactionId, then a content hash over
// account+date+amount as a last resort. The raw payload is retained
// verbatim as provenance.
func FromRemote(bt gocardless.BookedTransaction, accountID, currencyHint string) model.Transaction {
	amountStr := bt.TransactionAmount.Amount
	amount, err := parseAmount(amountStr)
	if err != nil {
		amount = 0
	}

	currency := strings.ToUpper(strings.TrimSpace(bt.TransactionAmount.Currency))
	if currency == "" {
		currency = currencyHint
	}

	date := bt.ValueDate
	if date == "" {
		date = bt.BookingDate
	}
	booking := bt.BookingDate
	if booking == "" {
		booking = date
	}

	id := bt.TransactionID
	if id == "" {
		id = bt.InternalTransactionID
	}
	if id == "" {
		id = txid.Generate(remotePrefix, accountID, date, amountStr)
	}

	raw, _ := json.Marshal(bt)
	return model.Transaction{
		ID:               id,
		AccountID:        accountID,
		TransactionDate:  date,
		BookingDate:      booking,
		Amount:           amount,
		Currency:         currency,
		Description:      remoteDescription(bt),
		CounterpartyName: remoteCounterparty(bt, amount),
		RawSource:        string(raw),
	}
}

// remoteDescription picks the most informative text the payload carries.
func remoteDescription(bt gocardless.BookedTransaction) string {
	if s := strings.TrimSpace(bt.RemittanceInformationUnstructured); s != "" {
		return s
	}
	if len(bt.RemittanceInformationUnstructuredArray) > 0 {
		return strings.TrimSpace(strings.Join(bt.RemittanceInformationUnstructuredArray, " "))
	}
	if s := strings.TrimSpace(bt.AdditionalInformation); s != "" {
		return s
	}
	return strings.TrimSpace(bt.CreditorName + " " + bt.DebtorName)
}

// remoteCounterparty is the other side of the transaction: the creditor for
// outgoing amounts, the debtor for incoming ones.
func remoteCounterparty(bt gocardless.BookedTransaction, amount float64) string {
	if amount < 0 {
		if bt.CreditorName != "" {
			return strings.TrimSpace(bt.CreditorName)
		}
		return strings.TrimSpace(bt.DebtorName)
	}
	if bt.DebtorName != "" {
		return strings.TrimSpace(bt.DebtorName)
	}
	return strings.TrimSpace(bt.CreditorName)
}
