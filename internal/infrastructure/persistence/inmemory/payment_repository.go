package inmemory

import (
	"context"
	"sync"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/payment"
)

// PaymentRepository stores clones, so callers never alias stored records.
type PaymentRepository struct {
	mu       sync.RWMutex
	nextID   int64
	payments map[int64]*payment.Payment
	updates  int
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		payments: make(map[int64]*payment.Payment),
	}
}

func (r *PaymentRepository) Add(_ context.Context, p *payment.Payment) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := p.Clone()
	stored.ID = r.nextID
	stored.Version = 1
	r.payments[stored.ID] = stored

	return stored.Clone(), nil
}

func (r *PaymentRepository) Update(_ context.Context, p *payment.Payment) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.payments[p.ID]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	if current.Version != p.Version {
		return nil, payment.ErrConcurrentUpdate
	}

	stored := p.Clone()
	stored.Version++
	r.payments[stored.ID] = stored
	r.updates++

	return stored.Clone(), nil
}

// FindByReference returns the newest record for the reference.
func (r *PaymentRepository) FindByReference(_ context.Context, reference string) (*payment.Payment, error) {
	return r.find(func(p *payment.Payment) bool { return p.Reference == reference })
}

func (r *PaymentRepository) FindOpenByReference(_ context.Context, reference string) (*payment.Payment, error) {
	return r.find(func(p *payment.Payment) bool { return p.Reference == reference && !p.Finished })
}

func (r *PaymentRepository) find(match func(*payment.Payment) bool) (*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *payment.Payment
	for _, p := range r.payments {
		if match(p) && (found == nil || p.ID > found.ID) {
			found = p
		}
	}
	if found == nil {
		return nil, payment.ErrPaymentNotFound
	}

	return found.Clone(), nil
}

func (r *PaymentRepository) Payments() []*payment.Payment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*payment.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		out = append(out, p.Clone())
	}
	return out
}

// Updates counts successful Update calls.
func (r *PaymentRepository) Updates() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updates
}
