// Package ledger holds the shapes exchanged with the internal ledger API,
// which owns pending and processed transactions.
package ledger

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type PendingTransaction struct {
	Reference         string           `json:"reference"`
	Amount            *decimal.Decimal `json:"amount"`
	FailURL           string           `json:"failUrl"`
	PayeeAddressLine1 string           `json:"payeeAddressLine1"`
	PayeeAddressLine2 string           `json:"payeeAddressLine2"`
	PayeeAddressLine3 string           `json:"payeeAddressLine3"`
	PayeePostCode     string           `json:"payeePostCode"`
}

type ProcessedTransaction struct {
	Reference         string          `json:"reference"`
	InternalReference string          `json:"internalReference"`
	PspReference      string          `json:"pspReference"`
	Amount            decimal.Decimal `json:"amount"`
}

// CaptureInstruction is the ledger's ProcessPayment model.
type CaptureInstruction struct {
	AuthResult        string           `json:"authResult"`
	PspReference      string           `json:"pspReference,omitempty"`
	MerchantReference string           `json:"merchantReference"`
	PaymentMethod     string           `json:"paymentMethod,omitempty"`
	CardPrefix        string           `json:"cardPrefix,omitempty"`
	CardSuffix        string           `json:"cardSuffix,omitempty"`
	AmountPaid        *decimal.Decimal `json:"amountPaid,omitempty"`
	Fee               *decimal.Decimal `json:"fee,omitempty"`
}

// MarshalJSON sends the amounts as JSON numbers with two decimals. The
// ledger rejects quoted amounts.
func (c CaptureInstruction) MarshalJSON() ([]byte, error) {
	type wire CaptureInstruction
	return json.Marshal(struct {
		wire
		AmountPaid json.Number `json:"amountPaid,omitempty"`
		Fee        json.Number `json:"fee,omitempty"`
	}{
		wire:       wire(c),
		AmountPaid: number(c.AmountPaid),
		Fee:        number(c.Fee),
	})
}

func number(d *decimal.Decimal) json.Number {
	if d == nil {
		return ""
	}
	return json.Number(d.StringFixed(2))
}

type CaptureResult struct {
	Success     bool   `json:"success"`
	RedirectURL string `json:"redirectUrl"`
}

type CardDetails struct {
	CardPrefix        string `json:"cardPrefix"`
	CardSuffix        string `json:"cardSuffix"`
	MerchantReference string `json:"merchantReference"`
}

// Total sums the owed amounts, treating a missing amount as zero.
func Total(txs []PendingTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Amount != nil {
			total = total.Add(*tx.Amount)
		}
	}
	return total
}
