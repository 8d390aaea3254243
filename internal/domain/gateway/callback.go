package gateway

// Callback form keys.
const (
	KeyDecision         = "decision"
	KeyTransactionID    = "transaction_id"
	KeyReferenceNumber  = "req_reference_number"
	KeySignature        = "signature"
	KeyCardTypeName     = "card_type_name"
	KeySignedFieldNames = "signed_field_names"
)

// Decision codes posted in the decision field.
const (
	DecisionAccept  = "ACCEPT"
	DecisionDecline = "DECLINE"
	DecisionCancel  = "CANCEL"
)

// Callback is a verified gateway callback.
type Callback struct {
	Decision         string
	TransactionID    string
	ReferenceNumber  string
	CardTypeName     string
	SignedFieldNames string
	Signature        string
}

func ParseCallback(fields map[string]string) Callback {
	return Callback{
		Decision:         fields[KeyDecision],
		TransactionID:    fields[KeyTransactionID],
		ReferenceNumber:  fields[KeyReferenceNumber],
		CardTypeName:     fields[KeyCardTypeName],
		SignedFieldNames: fields[KeySignedFieldNames],
		Signature:        fields[KeySignature],
	}
}
