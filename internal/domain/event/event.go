package event

type Type string

const (
	PaymentInitiated          Type = "PAYMENT_INITIATED"
	PaymentCompleted          Type = "PAYMENT_COMPLETED"
	CardDetailsUpdated        Type = "CARD_DETAILS_UPDATED"
	UncapturedPaymentCaptured Type = "UNCAPTURED_PAYMENT_CAPTURED"
)

type Event struct {
	Type    Type
	Payload any
}

// Types lists every event the bridge records.
func Types() []Type {
	return []Type{PaymentInitiated, PaymentCompleted, CardDetailsUpdated, UncapturedPaymentCaptured}
}
