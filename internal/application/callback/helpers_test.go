package callback_test

import (
	"strings"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/gateway"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/signature"
)

const secretKey = "ddc4fc675f404a108feb82ae475cbc982da072350b7c42c6b647ae41d208a9d0"

var signedNames = []string{
	gateway.KeyTransactionID,
	gateway.KeyDecision,
	gateway.KeyReferenceNumber,
	gateway.KeyCardTypeName,
	gateway.KeySignedFieldNames,
}

// signedCallback returns a callback form signed the way the gateway signs it.
func signedCallback(decision, reference string) map[string]string {
	fields := map[string]string{
		gateway.KeyTransactionID:    "8816281505278071",
		gateway.KeyDecision:         decision,
		gateway.KeyReferenceNumber:  reference,
		gateway.KeyCardTypeName:     "Visa",
		gateway.KeySignedFieldNames: strings.Join(signedNames, ","),
		"req_bill_to_forename":      "unsigned",
	}

	signed, err := signature.FieldsFromMap(signedNames, fields)
	if err != nil {
		panic(err)
	}
	sig, err := signature.Sign(signed, secretKey)
	if err != nil {
		panic(err)
	}
	fields[gateway.KeySignature] = sig

	return fields
}
