package gateway

import "github.com/shopspring/decimal"

// Payment is a transaction summary from the gateway search API.
// PaymentID carries the merchant reference the checkout was issued with;
// Reference is the gateway's own transaction id.
type Payment struct {
	Reference  string
	PaymentID  string
	CardPrefix string
	CardSuffix string
	Amount     decimal.Decimal
}
