// Package gateway describes the hosted checkout protocol: the signed
// checkout request posted to the gateway, the callback it posts back, and
// the payment summaries returned by its search API.
package gateway

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/signature"
)

const (
	SignedDateTimeLayout = "2006-01-02T15:04:05Z"

	Currency       = "GBP"
	Locale         = "en"
	BillingCountry = "GB"
)

type BillingAddress struct {
	Line1      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// CheckoutRequest is the payload rendered into the hosted checkout form.
type CheckoutRequest struct {
	Endpoint string

	AccessKey                 string
	ProfileID                 string
	TransactionUUID           string
	SignedDateTime            time.Time
	Locale                    string
	TransactionType           string
	ReferenceNumber           string
	Amount                    decimal.Decimal
	Currency                  string
	OverrideBackofficePostURL string
	OverrideCustomCancelPage  string
	OverrideCustomReceiptPage string

	BillTo BillingAddress

	Signature string
}

type fieldSpec struct {
	name  string
	value func(*CheckoutRequest) string
}

// The gateway recomputes the signature in exactly this order.
var signedFieldTable = []fieldSpec{
	{"access_key", func(r *CheckoutRequest) string { return r.AccessKey }},
	{"profile_id", func(r *CheckoutRequest) string { return r.ProfileID }},
	{"transaction_uuid", func(r *CheckoutRequest) string { return r.TransactionUUID }},
	{"signed_field_names", func(*CheckoutRequest) string { return SignedFieldNames }},
	{"unsigned_field_names", func(*CheckoutRequest) string { return UnsignedFieldNames }},
	{"signed_date_time", func(r *CheckoutRequest) string { return r.SignedDateTime.UTC().Format(SignedDateTimeLayout) }},
	{"locale", func(r *CheckoutRequest) string { return r.Locale }},
	{"transaction_type", func(r *CheckoutRequest) string { return r.TransactionType }},
	{"reference_number", func(r *CheckoutRequest) string { return r.ReferenceNumber }},
	{"amount", func(r *CheckoutRequest) string { return r.Amount.StringFixed(2) }},
	{"currency", func(r *CheckoutRequest) string { return r.Currency }},
	{"override_backoffice_post_url", func(r *CheckoutRequest) string { return r.OverrideBackofficePostURL }},
	{"override_custom_cancel_page", func(r *CheckoutRequest) string { return r.OverrideCustomCancelPage }},
	{"override_custom_receipt_page", func(r *CheckoutRequest) string { return r.OverrideCustomReceiptPage }},
}

var unsignedFieldTable = []fieldSpec{
	{"bill_to_address_line1", func(r *CheckoutRequest) string { return r.BillTo.Line1 }},
	{"bill_to_address_city", func(r *CheckoutRequest) string { return r.BillTo.City }},
	{"bill_to_address_state", func(r *CheckoutRequest) string { return r.BillTo.State }},
	{"bill_to_address_postal_code", func(r *CheckoutRequest) string { return r.BillTo.PostalCode }},
	{"bill_to_address_country", func(r *CheckoutRequest) string { return r.BillTo.Country }},
}

// Literal name lists, sent as field values. They must spell the tables above.
const (
	SignedFieldNames = "access_key,profile_id,transaction_uuid,signed_field_names,unsigned_field_names," +
		"signed_date_time,locale,transaction_type,reference_number,amount,currency," +
		"override_backoffice_post_url,override_custom_cancel_page,override_custom_receipt_page"
	UnsignedFieldNames = "bill_to_address_line1,bill_to_address_city,bill_to_address_state," +
		"bill_to_address_postal_code,bill_to_address_country"
)

func render(r *CheckoutRequest, table []fieldSpec) []signature.Field {
	fields := make([]signature.Field, len(table))
	for i, f := range table {
		fields[i] = signature.Field{Name: f.name, Value: f.value(r)}
	}
	return fields
}

// SignedFields lists the fields covered by the signature, in signing order.
func (r *CheckoutRequest) SignedFields() []signature.Field {
	return render(r, signedFieldTable)
}

func (r *CheckoutRequest) UnsignedFields() []signature.Field {
	return render(r, unsignedFieldTable)
}

// FormFields is every field posted to the gateway, signature last.
func (r *CheckoutRequest) FormFields() []signature.Field {
	fields := append(r.SignedFields(), r.UnsignedFields()...)
	return append(fields, signature.Field{Name: "signature", Value: r.Signature})
}
