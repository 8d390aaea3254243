package payment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/application/payment"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/event"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/ledger"
	domainPayment "github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/payment"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/signature"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infrastructure/persistence/inmemory"
)

const hashKey = "FC81CC7410D19B75B6513FF413BE2E27"

type fakePending struct {
	fn func(ctx context.Context, reference string) ([]ledger.PendingTransaction, error)
}

func (f *fakePending) PendingTransactions(ctx context.Context, reference string) ([]ledger.PendingTransaction, error) {
	return f.fn(ctx, reference)
}

type fakeProcessed struct {
	fn func(ctx context.Context, reference string) ([]ledger.ProcessedTransaction, error)
}

func (f *fakeProcessed) SearchProcessedTransactions(ctx context.Context, reference string) ([]ledger.ProcessedTransaction, error) {
	return f.fn(ctx, reference)
}

type fakeRecorder struct {
	recordFn func(event.Event) error
}

func (f *fakeRecorder) Record(evt event.Event) error {
	return f.recordFn(evt)
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func noProcessed() *fakeProcessed {
	return &fakeProcessed{fn: func(context.Context, string) ([]ledger.ProcessedTransaction, error) {
		return nil, nil
	}}
}

func onePending(a string) *fakePending {
	return &fakePending{fn: func(_ context.Context, reference string) ([]ledger.PendingTransaction, error) {
		return []ledger.PendingTransaction{{Reference: reference, Amount: amount(a), FailURL: "https://fail"}}, nil
	}}
}

func newService(repo domainPayment.Repository, pending *fakePending, processed *fakeProcessed) *payment.Service {
	return &payment.Service{
		Repo:      repo,
		Pending:   pending,
		Processed: processed,
		Builder:   newBuilder(),
		HashKey:   hashKey,
		Now:       func() time.Time { return fixedNow },
	}
}

func TestInitiate_BuildsSignedCheckout_ForValidReference(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewPaymentRepository()
	svc := newService(repo, onePending("10.00"), noProcessed())

	req, err := svc.Initiate(ctx, "reference", signature.HashReference("reference", hashKey))
	require.NoError(t, err)

	assert.Equal(t, "10.00", req.Amount.StringFixed(2))
	assert.Equal(t, "reference", req.ReferenceNumber)

	fields := req.SignedFields()
	require.Len(t, fields, 14)
	ok, err := signature.Verify(fields, secretKey, req.Signature)
	require.NoError(t, err)
	assert.True(t, ok)

	p, err := repo.FindByReference(ctx, "reference")
	require.NoError(t, err)
	assert.Equal(t, domainPayment.StatusPending, p.Status)
	assert.False(t, p.Finished)
	assert.Equal(t, "10.00", p.Amount.StringFixed(2))
	assert.Equal(t, "https://fail", p.FailureURL)
}

func TestInitiate_SumsPendingAmounts(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewPaymentRepository()
	pending := &fakePending{fn: func(context.Context, string) ([]ledger.PendingTransaction, error) {
		return []ledger.PendingTransaction{
			{Amount: amount("7.25"), FailURL: "https://first", PayeeAddressLine1: "first"},
			{Amount: amount("2.75"), FailURL: "https://second", PayeeAddressLine1: "second"},
		}, nil
	}}
	svc := newService(repo, pending, noProcessed())

	req, err := svc.Initiate(ctx, "ref-2", signature.HashReference("ref-2", hashKey))
	require.NoError(t, err)

	assert.Equal(t, "10.00", req.Amount.StringFixed(2))
	assert.Equal(t, "first", req.BillTo.Line1)

	p, err := repo.FindByReference(ctx, "ref-2")
	require.NoError(t, err)
	assert.Equal(t, "https://first", p.FailureURL)
}

func TestInitiate_RejectsBadLinks_BeforeAnyLookup(t *testing.T) {
	cases := []struct {
		name      string
		reference string
		hash      string
	}{
		{"empty reference", "", "abc"},
		{"empty hash", "reference", ""},
		{"wrong hash", "reference", signature.HashReference("other", hashKey)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := inmemory.NewPaymentRepository()
			called := false
			processed := &fakeProcessed{fn: func(context.Context, string) ([]ledger.ProcessedTransaction, error) {
				called = true
				return nil, nil
			}}
			svc := newService(repo, onePending("1.00"), processed)

			_, err := svc.Initiate(context.Background(), tc.reference, tc.hash)

			require.ErrorIs(t, err, domainPayment.ErrValidationFailure)
			assert.False(t, called)
			assert.Empty(t, repo.Payments())
		})
	}
}

func TestInitiate_RejectsAlreadyProcessedReference(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	processed := &fakeProcessed{fn: func(context.Context, string) ([]ledger.ProcessedTransaction, error) {
		return []ledger.ProcessedTransaction{{Reference: "reference"}}, nil
	}}
	svc := newService(repo, onePending("1.00"), processed)

	_, err := svc.Initiate(context.Background(), "reference", signature.HashReference("reference", hashKey))

	require.ErrorIs(t, err, domainPayment.ErrValidationFailure)
	require.ErrorIs(t, err, payment.ErrNoLongerPending)
	assert.Empty(t, repo.Payments())
}

func TestInitiate_RejectsMissingPendingTransactions(t *testing.T) {
	cases := map[string]*fakePending{
		"not found": {fn: func(context.Context, string) ([]ledger.PendingTransaction, error) {
			return nil, domainPayment.ErrPaymentNotFound
		}},
		"empty": {fn: func(context.Context, string) ([]ledger.PendingTransaction, error) {
			return []ledger.PendingTransaction{}, nil
		}},
	}

	for name, pending := range cases {
		t.Run(name, func(t *testing.T) {
			repo := inmemory.NewPaymentRepository()
			svc := newService(repo, pending, noProcessed())

			_, err := svc.Initiate(context.Background(), "reference", signature.HashReference("reference", hashKey))

			require.ErrorIs(t, err, payment.ErrNoLongerPending)
			assert.Empty(t, repo.Payments())
		})
	}
}

func TestInitiate_PropagatesUpstreamFailure(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	processed := &fakeProcessed{fn: func(context.Context, string) ([]ledger.ProcessedTransaction, error) {
		return nil, errors.Join(domainPayment.ErrUpstreamUnavailable, errors.New("503"))
	}}
	svc := newService(repo, onePending("1.00"), processed)

	_, err := svc.Initiate(context.Background(), "reference", signature.HashReference("reference", hashKey))

	require.ErrorIs(t, err, domainPayment.ErrUpstreamUnavailable)
	assert.Empty(t, repo.Payments())
}

func TestInitiate_RecordsEventAndMetrics(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	m := metrics.New(prometheus.NewRegistry())
	var recorded []event.Event

	svc := newService(repo, onePending("10.00"), noProcessed())
	svc.Metrics = m
	svc.Recorder = &fakeRecorder{recordFn: func(evt event.Event) error {
		recorded = append(recorded, evt)
		return nil
	}}

	_, err := svc.Initiate(context.Background(), "reference", signature.HashReference("reference", hashKey))
	require.NoError(t, err)

	_, err = svc.Initiate(context.Background(), "reference", "bad")
	require.Error(t, err)

	require.Len(t, recorded, 1)
	assert.Equal(t, event.PaymentInitiated, recorded[0].Type)
	payload, ok := recorded[0].Payload.(event.PaymentInitiatedPayload)
	require.True(t, ok)
	assert.Equal(t, "10.00", payload.Amount)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CheckoutsTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CheckoutsTotal.WithLabelValues("error")))
}
