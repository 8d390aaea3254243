package event

import (
	"encoding/json"
	"fmt"
)

type PaymentInitiatedPayload struct {
	Reference  string `json:"reference"`
	Identifier string `json:"identifier"`
	Amount     string `json:"amount"`
}

type PaymentCompletedPayload struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Success   bool   `json:"success"`
}

type CardDetailsUpdatedPayload struct {
	Reference  string `json:"reference"`
	CardPrefix string `json:"card_prefix"`
	CardSuffix string `json:"card_suffix"`
}

type UncapturedPaymentCapturedPayload struct {
	Reference    string `json:"reference"`
	PspReference string `json:"psp_reference"`
}

// Decode turns a stored payload back into the typed payload for t.
func Decode(t Type, raw []byte) (any, error) {
	var err error
	switch t {
	case PaymentInitiated:
		var p PaymentInitiatedPayload
		err = json.Unmarshal(raw, &p)
		return p, err
	case PaymentCompleted:
		var p PaymentCompletedPayload
		err = json.Unmarshal(raw, &p)
		return p, err
	case CardDetailsUpdated:
		var p CardDetailsUpdatedPayload
		err = json.Unmarshal(raw, &p)
		return p, err
	case UncapturedPaymentCaptured:
		var p UncapturedPaymentCapturedPayload
		err = json.Unmarshal(raw, &p)
		return p, err
	}
	return nil, fmt.Errorf("unknown event type %q", t)
}
