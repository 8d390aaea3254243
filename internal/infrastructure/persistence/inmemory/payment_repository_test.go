package inmemory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/payment"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infrastructure/persistence/inmemory"
)

func TestPaymentRepository_AddAndFind(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewPaymentRepository()

	added, err := repo.Add(ctx, payment.New("ref-1", decimal.NewFromInt(10), "", time.Now()))
	require.NoError(t, err)
	require.NotZero(t, added.ID)

	got, err := repo.FindByReference(ctx, "ref-1")
	require.NoError(t, err)
	require.Equal(t, added.Identifier, got.Identifier)

	_, err = repo.FindByReference(ctx, "missing")
	require.ErrorIs(t, err, payment.ErrPaymentNotFound)
}

func TestPaymentRepository_FindOpenByReference_SkipsFinished(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewPaymentRepository()

	p, err := repo.Add(ctx, payment.New("ref-1", decimal.NewFromInt(10), "", time.Now()))
	require.NoError(t, err)

	require.NoError(t, p.MarkFinished())
	_, err = repo.Update(ctx, p)
	require.NoError(t, err)

	_, err = repo.FindOpenByReference(ctx, "ref-1")
	require.ErrorIs(t, err, payment.ErrPaymentNotFound)
}

func TestPaymentRepository_Update_RejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewPaymentRepository()

	p, err := repo.Add(ctx, payment.New("ref-1", decimal.NewFromInt(10), "", time.Now()))
	require.NoError(t, err)

	first := p.Clone()
	second := p.Clone()

	require.NoError(t, first.Complete(payment.Completion{Status: payment.StatusAuthorised, CardPrefix: "411111", CardSuffix: "1111", At: time.Now()}))
	_, err = repo.Update(ctx, first)
	require.NoError(t, err)

	require.NoError(t, second.MarkFinished())
	_, err = repo.Update(ctx, second)
	require.ErrorIs(t, err, payment.ErrConcurrentUpdate)

	stored, err := repo.FindByReference(ctx, "ref-1")
	require.NoError(t, err)
	require.Equal(t, payment.StatusAuthorised, stored.Status)
}

func TestPaymentRepository_ConcurrentUpdates_OnlyOneWins(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewPaymentRepository()

	p, err := repo.Add(ctx, payment.New("ref-race", decimal.NewFromInt(10), "", time.Now()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := p.Clone()
			_ = c.MarkFinished()
			_, errs[i] = repo.Update(ctx, c)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, payment.ErrConcurrentUpdate)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, repo.Updates())
}
