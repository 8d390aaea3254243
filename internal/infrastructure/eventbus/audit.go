package eventbus

import (
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/event"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/logging"
)

// AuditLog writes one structured line per delivered ledger event.
func AuditLog(logger logging.Logger) HandlerFunc {
	return func(evt event.Event) error {
		fields := map[string]any{"event": string(evt.Type)}

		switch p := evt.Payload.(type) {
		case event.PaymentInitiatedPayload:
			fields["reference"] = p.Reference
			fields["amount"] = p.Amount
		case event.PaymentCompletedPayload:
			fields["reference"] = p.Reference
			fields["status"] = p.Status
			fields["success"] = p.Success
		case event.CardDetailsUpdatedPayload:
			fields["reference"] = p.Reference
		case event.UncapturedPaymentCapturedPayload:
			fields["reference"] = p.Reference
			fields["psp_reference"] = p.PspReference
		}

		logger.Info("ledger event", fields)
		return nil
	}
}

// SubscribeAll registers handler for every ledger event type.
func (b *InMemoryBus) SubscribeAll(handler HandlerFunc) {
	for _, t := range event.Types() {
		b.Subscribe(t, handler)
	}
}
