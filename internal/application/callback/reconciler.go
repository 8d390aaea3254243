package callback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/application/contracts"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/event"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/gateway"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/ledger"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/payment"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/logging"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/metrics"
)

// cardLookupDays is how far back the card search looks for an accepted
// callback's payment.
const cardLookupDays = 1

type Result struct {
	NextURL string
	Success bool
}

// Reconciler applies one gateway callback to the ledger. Each call is a
// single attempt with no retries.
type Reconciler struct {
	Validator *Validator
	Repo      payment.Repository
	Gateway   contracts.GatewayPaymentSearch
	Capture   contracts.PendingTransactionCapture
	Recorder  contracts.EventRecorder
	Logger    logging.Logger
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

type decision struct {
	status      payment.Status
	instruction ledger.CaptureInstruction
}

func (r *Reconciler) Handle(ctx context.Context, fields map[string]string) (Result, error) {
	cb, err := r.Validator.Validate(fields)
	if err != nil {
		r.Metrics.IncCallback("unknown", "signature_invalid")
		r.logger().Error("callback rejected", map[string]any{
			"reference": fields[gateway.KeyReferenceNumber],
			"error":     err.Error(),
		})
		return Result{}, err
	}

	status := MapDecision(cb.Decision)

	res, replayed, err := r.apply(ctx, cb)
	if err != nil {
		r.Metrics.IncCallback(string(status), "error")
		r.logger().Error("callback processing failed", map[string]any{
			"reference": cb.ReferenceNumber,
			"decision":  cb.Decision,
			"error":     err.Error(),
		})
		return Result{}, err
	}

	outcome := "ok"
	if replayed {
		outcome = "replayed"
	}
	r.Metrics.IncCallback(string(status), outcome)
	r.logger().Info("callback processed", map[string]any{
		"reference": cb.ReferenceNumber,
		"decision":  cb.Decision,
		"status":    string(status),
		"success":   res.Success,
		"replayed":  replayed,
	})

	return res, nil
}

// apply forwards the callback to the ledger once per record. The gateway
// posts the same result more than once (server post, then the browser's
// receipt post), so a finished record answers from what it stored.
func (r *Reconciler) apply(ctx context.Context, cb gateway.Callback) (Result, bool, error) {
	p, err := r.Repo.FindByReference(ctx, cb.ReferenceNumber)
	if err != nil {
		return Result{}, false, fmt.Errorf("load ledger payment %q: %w", cb.ReferenceNumber, err)
	}
	if p.Finished {
		return Result{NextURL: p.NextURL, Success: p.Accepted()}, true, nil
	}

	d, err := r.decide(ctx, cb)
	if err != nil {
		return Result{}, false, err
	}

	captured, err := r.Capture.ProcessPayment(ctx, cb.ReferenceNumber, d.instruction)
	if err != nil {
		return Result{}, false, fmt.Errorf("forward decision for %q: %w", cb.ReferenceNumber, err)
	}

	completion := payment.Completion{
		Status:     d.status,
		PaymentID:  cb.TransactionID,
		CardPrefix: d.instruction.CardPrefix,
		CardSuffix: d.instruction.CardSuffix,
		At:         r.now(),
	}
	if captured.Success {
		completion.NextURL = captured.RedirectURL
	}
	if err := p.Complete(completion); err != nil {
		return Result{}, false, err
	}
	if _, err := r.Repo.Update(ctx, p); err != nil {
		return Result{}, false, fmt.Errorf("update ledger payment %q: %w", cb.ReferenceNumber, err)
	}

	r.record(cb.ReferenceNumber, d.status, captured.Success)

	return Result{NextURL: captured.RedirectURL, Success: captured.Success}, false, nil
}

// decide builds the ledger instruction for the callback. Accepted payments
// take their card fragments and amount from the most recent gateway match.
func (r *Reconciler) decide(ctx context.Context, cb gateway.Callback) (decision, error) {
	status := MapDecision(cb.Decision)

	d := decision{
		status: status,
		instruction: ledger.CaptureInstruction{
			AuthResult:        string(status),
			MerchantReference: cb.ReferenceNumber,
		},
	}

	if status != payment.StatusAuthorised {
		return d, nil
	}

	found, err := r.Gateway.SearchPayments(ctx, cb.ReferenceNumber, cardLookupDays)
	if err != nil {
		return decision{}, fmt.Errorf("search gateway payment %q: %w", cb.ReferenceNumber, err)
	}
	if len(found) == 0 {
		return decision{}, fmt.Errorf("gateway payment %q: %w", cb.ReferenceNumber, payment.ErrPaymentNotFound)
	}

	latest := found[0]
	amountPaid := latest.Amount

	d.instruction.PspReference = cb.TransactionID
	d.instruction.PaymentMethod = cb.CardTypeName
	d.instruction.CardPrefix = latest.CardPrefix
	d.instruction.CardSuffix = latest.CardSuffix
	d.instruction.AmountPaid = &amountPaid

	return d, nil
}

func (r *Reconciler) record(reference string, status payment.Status, success bool) {
	if r.Recorder == nil {
		return
	}

	err := r.Recorder.Record(event.Event{
		Type: event.PaymentCompleted,
		Payload: event.PaymentCompletedPayload{
			Reference: reference,
			Status:    string(status),
			Success:   success,
		},
	})
	if err != nil {
		r.logger().Error("failed to record event", map[string]any{
			"reference": reference,
			"event":     string(event.PaymentCompleted),
			"error":     err.Error(),
		})
	}
}

// IsUserFacing reports whether err is a rejection of the caller's input
// rather than an internal failure.
func IsUserFacing(err error) bool {
	return errors.Is(err, payment.ErrSignatureInvalid) || errors.Is(err, payment.ErrValidationFailure)
}

func (r *Reconciler) logger() logging.Logger {
	if r.Logger == nil {
		return logging.Noop{}
	}
	return r.Logger
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
