package callback

import (
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/gateway"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/payment"
)

// MapDecision maps a gateway decision code onto the ledger status. Unknown
// codes map to StatusError.
func MapDecision(code string) payment.Status {
	switch code {
	case gateway.DecisionAccept:
		return payment.StatusAuthorised
	case gateway.DecisionDecline:
		return payment.StatusRefused
	case gateway.DecisionCancel:
		return payment.StatusCancelled
	default:
		return payment.StatusError
	}
}
