package contracts

import (
	"context"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/event"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/gateway"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/ledger"
)

type EventRecorder interface {
	Record(event.Event) error
}

// PendingTransactionLookup returns payment.ErrPaymentNotFound when the
// ledger has nothing pending for the reference.
type PendingTransactionLookup interface {
	PendingTransactions(ctx context.Context, reference string) ([]ledger.PendingTransaction, error)
}

// ProcessedTransactionSearch treats "no results" as an empty list.
type ProcessedTransactionSearch interface {
	SearchProcessedTransactions(ctx context.Context, reference string) ([]ledger.ProcessedTransaction, error)
}

type PendingTransactionCapture interface {
	ProcessPayment(ctx context.Context, reference string, instr ledger.CaptureInstruction) (ledger.CaptureResult, error)
}

type CardDetailsUpdate interface {
	UpdateCardDetails(ctx context.Context, reference string, details ledger.CardDetails) error
}

// GatewayPaymentSearch lists gateway payments submitted in the last daysAgo
// days, most recent first. An empty clientReference matches every payment.
type GatewayPaymentSearch interface {
	SearchPayments(ctx context.Context, clientReference string, daysAgo int) ([]gateway.Payment, error)
}
