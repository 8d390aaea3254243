package callback

import (
	"fmt"
	"maps"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/gateway"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/payment"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/signature"
)

type Validator struct {
	SecretKey string
}

// Validate checks the callback signature over the fields the callback names
// in signed_field_names. fields is not modified.
func (v *Validator) Validate(fields map[string]string) (gateway.Callback, error) {
	candidate, ok := fields[gateway.KeySignature]
	if !ok || candidate == "" {
		return gateway.Callback{}, fmt.Errorf("%w: no signature", payment.ErrSignatureInvalid)
	}

	names := signature.SplitNames(fields[gateway.KeySignedFieldNames])
	if len(names) == 0 {
		return gateway.Callback{}, fmt.Errorf("%w: no signed fields", payment.ErrSignatureInvalid)
	}

	unsigned := maps.Clone(fields)
	delete(unsigned, gateway.KeySignature)

	signed, err := signature.FieldsFromMap(names, unsigned)
	if err != nil {
		return gateway.Callback{}, fmt.Errorf("%w: %w", payment.ErrSignatureInvalid, err)
	}

	valid, err := signature.Verify(signed, v.SecretKey, candidate)
	if err != nil {
		return gateway.Callback{}, fmt.Errorf("%w: %w", payment.ErrSignatureInvalid, err)
	}
	if !valid {
		return gateway.Callback{}, payment.ErrSignatureInvalid
	}

	return gateway.ParseCallback(fields), nil
}
