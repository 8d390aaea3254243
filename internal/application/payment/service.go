package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/application/contracts"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/event"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/gateway"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/ledger"
	domainPayment "github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/payment"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/signature"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/logging"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/metrics"
)

var (
	ErrInvalidReference = errors.New("the reference provided is null or empty")
	ErrInvalidHash      = errors.New("the hash is invalid")
	ErrNoLongerPending  = errors.New("the reference provided is no longer a valid pending payment")
)

// Service starts a hosted checkout for a pending ledger transaction.
type Service struct {
	Repo      domainPayment.Repository
	Pending   contracts.PendingTransactionLookup
	Processed contracts.ProcessedTransactionSearch
	Builder   *Builder
	HashKey   string
	Recorder  contracts.EventRecorder
	Logger    logging.Logger
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// Initiate validates the checkout link, opens a ledger record and returns the
// signed request to post to the gateway.
func (s *Service) Initiate(ctx context.Context, reference, hash string) (*gateway.CheckoutRequest, error) {
	req, err := s.initiate(ctx, reference, hash)
	if err != nil {
		s.Metrics.IncCheckout("error")
		s.logger().Error("checkout initiation failed", map[string]any{
			"reference": reference,
			"error":     err.Error(),
		})
		return nil, err
	}

	s.Metrics.IncCheckout("ok")
	return req, nil
}

func (s *Service) initiate(ctx context.Context, reference, hash string) (*gateway.CheckoutRequest, error) {
	if err := s.validateLink(reference, hash); err != nil {
		return nil, err
	}

	if err := s.ensureNotProcessed(ctx, reference); err != nil {
		return nil, err
	}

	pending, err := s.pendingTransactions(ctx, reference)
	if err != nil {
		return nil, err
	}

	total := ledger.Total(pending)
	first := pending[0]

	p, err := s.Repo.Add(ctx, domainPayment.New(reference, total, first.FailURL, s.now()))
	if err != nil {
		return nil, fmt.Errorf("create ledger payment: %w", err)
	}

	req, err := s.Builder.Build(BuildArgs{
		Reference:   reference,
		Amount:      total,
		Transaction: first,
	})
	if err != nil {
		return nil, err
	}

	s.record(p, total)

	s.logger().Info("checkout initiated", map[string]any{
		"reference":  reference,
		"identifier": p.Identifier.String(),
		"amount":     total.StringFixed(2),
	})

	return req, nil
}

func (s *Service) validateLink(reference, hash string) error {
	if reference == "" {
		return fmt.Errorf("%w: %w", domainPayment.ErrValidationFailure, ErrInvalidReference)
	}
	if hash == "" {
		return fmt.Errorf("%w: the hash provided is null or empty", domainPayment.ErrValidationFailure)
	}
	if !signature.ReferenceHashMatches(reference, s.HashKey, hash) {
		return fmt.Errorf("%w: %w", domainPayment.ErrValidationFailure, ErrInvalidHash)
	}
	return nil
}

func (s *Service) ensureNotProcessed(ctx context.Context, reference string) error {
	processed, err := s.Processed.SearchProcessedTransactions(ctx, reference)
	if err != nil {
		return err
	}
	if len(processed) > 0 {
		return fmt.Errorf("%w: %w", domainPayment.ErrValidationFailure, ErrNoLongerPending)
	}
	return nil
}

func (s *Service) pendingTransactions(ctx context.Context, reference string) ([]ledger.PendingTransaction, error) {
	pending, err := s.Pending.PendingTransactions(ctx, reference)
	if errors.Is(err, domainPayment.ErrPaymentNotFound) || (err == nil && len(pending) == 0) {
		return nil, fmt.Errorf("%w: %w", domainPayment.ErrValidationFailure, ErrNoLongerPending)
	}
	if err != nil {
		return nil, err
	}
	return pending, nil
}

func (s *Service) record(p *domainPayment.Payment, total decimal.Decimal) {
	if s.Recorder == nil {
		return
	}

	err := s.Recorder.Record(event.Event{
		Type: event.PaymentInitiated,
		Payload: event.PaymentInitiatedPayload{
			Reference:  p.Reference,
			Identifier: p.Identifier.String(),
			Amount:     total.StringFixed(2),
		},
	})
	if err != nil {
		s.logger().Error("failed to record event", map[string]any{
			"reference": p.Reference,
			"event":     string(event.PaymentInitiated),
			"error":     err.Error(),
		})
	}
}

func (s *Service) logger() logging.Logger {
	if s.Logger == nil {
		return logging.Noop{}
	}
	return s.Logger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
