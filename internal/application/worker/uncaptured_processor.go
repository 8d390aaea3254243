package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/application/contracts"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/event"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/gateway"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/ledger"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/payment"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/logging"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/resilience"
)

type Request struct {
	DaysAgo         int
	ClientReference string
}

type Outcome string

const (
	OutcomeCardDetailsUpdated Outcome = "card_details_updated"
	OutcomeCaptured           Outcome = "captured"
	OutcomeFailed             Outcome = "failed"
)

// ItemResult is the outcome of one uncaptured payment. Err is set only when
// Outcome is OutcomeFailed.
type ItemResult struct {
	GatewayReference string
	PaymentID        string
	Outcome          Outcome
	Err              error
}

type Summary struct {
	TotalIdentified       int
	TotalMarkedAsCaptured int
	TotalErrors           int
	Results               []ItemResult
}

func summarize(results []ItemResult) Summary {
	s := Summary{TotalIdentified: len(results), Results: results}
	for _, r := range results {
		if r.Outcome == OutcomeFailed {
			s.TotalErrors++
		}
	}
	s.TotalMarkedAsCaptured = s.TotalIdentified - s.TotalErrors
	return s
}

// UncapturedProcessor advances gateway payments that never reached a
// finished ledger record. A failing item is recorded in the summary and
// never stops the rest of the batch.
type UncapturedProcessor struct {
	Gateway     contracts.GatewayPaymentSearch
	Repo        payment.Repository
	Pending     contracts.PendingTransactionLookup
	Capture     contracts.PendingTransactionCapture
	CardDetails contracts.CardDetailsUpdate
	Recorder    contracts.EventRecorder
	Logger      logging.Logger
	Metrics     *metrics.Metrics

	// Concurrency above 1 processes items on a bounded pool.
	Concurrency int
	// Limiter paces items when set.
	Limiter *rate.Limiter
}

// Run searches the gateway and processes every match. It returns an error
// only when the search itself fails.
func (p *UncapturedProcessor) Run(ctx context.Context, req Request) (Summary, error) {
	found, err := p.Gateway.SearchPayments(ctx, req.ClientReference, req.DaysAgo)
	if err != nil {
		p.Metrics.IncReconcileRun("failed")
		p.logger().Error("uncaptured payment search failed", map[string]any{
			"days_ago":         req.DaysAgo,
			"client_reference": req.ClientReference,
			"error":            err.Error(),
		})
		return Summary{}, fmt.Errorf("search uncaptured payments: %w", err)
	}

	var results []ItemResult
	if p.Concurrency > 1 {
		results = p.runPool(ctx, found)
	} else {
		results = make([]ItemResult, len(found))
		for i, up := range found {
			results[i] = p.process(ctx, up)
		}
	}

	summary := summarize(results)

	outcome := "ok"
	if summary.TotalErrors > 0 {
		outcome = "partial"
	}
	p.Metrics.IncReconcileRun(outcome)

	p.logger().Info("uncaptured payments processed", map[string]any{
		"identified": summary.TotalIdentified,
		"captured":   summary.TotalMarkedAsCaptured,
		"errors":     summary.TotalErrors,
	})

	return summary, nil
}

// runPool writes each result into its own slot, so aggregation needs no
// shared counter.
func (p *UncapturedProcessor) runPool(ctx context.Context, found []gateway.Payment) []ItemResult {
	results := make([]ItemResult, len(found))
	bulkhead := resilience.NewBulkhead(p.Concurrency)

	var wg sync.WaitGroup
	for i, up := range found {
		if err := bulkhead.Acquire(ctx); err != nil {
			results[i] = p.failed(up, err)
			continue
		}

		wg.Add(1)
		go func(i int, up gateway.Payment) {
			defer wg.Done()
			defer bulkhead.Release()
			results[i] = p.process(ctx, up)
		}(i, up)
	}
	wg.Wait()

	return results
}

func (p *UncapturedProcessor) process(ctx context.Context, up gateway.Payment) ItemResult {
	if err := ctx.Err(); err != nil {
		return p.failed(up, err)
	}
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return p.failed(up, err)
		}
	}

	outcome, err := p.advance(ctx, up)
	if err != nil {
		return p.failed(up, err)
	}

	p.Metrics.IncReconcileItem(string(outcome))

	return ItemResult{
		GatewayReference: up.Reference,
		PaymentID:        up.PaymentID,
		Outcome:          outcome,
	}
}

// advance takes exactly one branch per run: a record still missing card
// details gets them, and is captured on a later run.
func (p *UncapturedProcessor) advance(ctx context.Context, up gateway.Payment) (Outcome, error) {
	rec, err := p.Repo.FindOpenByReference(ctx, up.PaymentID)
	if err != nil {
		return "", fmt.Errorf("load open ledger payment %q: %w", up.PaymentID, err)
	}

	if rec.CardDetailsNeedUpdating() {
		return OutcomeCardDetailsUpdated, p.updateCardDetails(ctx, rec, up)
	}

	return OutcomeCaptured, p.capture(ctx, rec, up)
}

func (p *UncapturedProcessor) updateCardDetails(ctx context.Context, rec *payment.Payment, up gateway.Payment) error {
	err := p.CardDetails.UpdateCardDetails(ctx, rec.Reference, ledger.CardDetails{
		CardPrefix:        up.CardPrefix,
		CardSuffix:        up.CardSuffix,
		MerchantReference: up.PaymentID,
	})
	if err != nil {
		return fmt.Errorf("update card details for %q: %w", rec.Reference, err)
	}

	if err := rec.SetCardDetails(up.CardPrefix, up.CardSuffix); err != nil {
		return err
	}
	if _, err := p.Repo.Update(ctx, rec); err != nil {
		return fmt.Errorf("update ledger payment %q: %w", rec.Reference, err)
	}

	p.record(event.Event{
		Type: event.CardDetailsUpdated,
		Payload: event.CardDetailsUpdatedPayload{
			Reference:  rec.Reference,
			CardPrefix: up.CardPrefix,
			CardSuffix: up.CardSuffix,
		},
	})

	return nil
}

func (p *UncapturedProcessor) capture(ctx context.Context, rec *payment.Payment, up gateway.Payment) error {
	pending, err := p.Pending.PendingTransactions(ctx, up.PaymentID)
	if err != nil {
		return fmt.Errorf("pending transactions for %q: %w", up.PaymentID, err)
	}
	if len(pending) == 0 {
		return fmt.Errorf("pending transactions for %q: %w", up.PaymentID, payment.ErrPaymentNotFound)
	}

	fee := decimal.Zero
	instr := ledger.CaptureInstruction{
		AuthResult:        string(payment.StatusPending),
		PspReference:      up.Reference,
		MerchantReference: up.PaymentID,
		CardPrefix:        up.CardPrefix,
		CardSuffix:        up.CardSuffix,
		Fee:               &fee,
	}

	if _, err := p.Capture.ProcessPayment(ctx, up.PaymentID, instr); err != nil {
		return fmt.Errorf("process payment %q: %w", up.PaymentID, err)
	}

	if err := rec.MarkFinished(); err != nil {
		return err
	}
	if _, err := p.Repo.Update(ctx, rec); err != nil {
		return fmt.Errorf("finish ledger payment %q: %w", rec.Reference, err)
	}

	p.record(event.Event{
		Type: event.UncapturedPaymentCaptured,
		Payload: event.UncapturedPaymentCapturedPayload{
			Reference:    rec.Reference,
			PspReference: up.Reference,
		},
	})

	return nil
}

func (p *UncapturedProcessor) failed(up gateway.Payment, err error) ItemResult {
	p.Metrics.IncReconcileItem(string(OutcomeFailed))

	fields := map[string]any{
		"gateway_reference": up.Reference,
		"payment_id":        up.PaymentID,
		"error":             err.Error(),
	}
	if errors.Is(err, payment.ErrPaymentNotFound) {
		fields["not_found"] = true
	}
	p.logger().Error("unable to process uncaptured payment", fields)

	return ItemResult{
		GatewayReference: up.Reference,
		PaymentID:        up.PaymentID,
		Outcome:          OutcomeFailed,
		Err:              err,
	}
}

func (p *UncapturedProcessor) record(evt event.Event) {
	if p.Recorder == nil {
		return
	}
	if err := p.Recorder.Record(evt); err != nil {
		p.logger().Error("failed to record event", map[string]any{
			"event": string(evt.Type),
			"error": err.Error(),
		})
	}
}

func (p *UncapturedProcessor) logger() logging.Logger {
	if p.Logger == nil {
		return logging.Noop{}
	}
	return p.Logger
}
