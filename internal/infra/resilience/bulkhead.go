package resilience

import "context"

// Bulkhead bounds how many callers run at once.
type Bulkhead struct {
	slots chan struct{}
}

func NewBulkhead(size int) *Bulkhead {
	if size < 1 {
		size = 1
	}
	return &Bulkhead{slots: make(chan struct{}, size)}
}

// Acquire blocks for a slot until ctx is done.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bulkhead) Release() {
	<-b.slots
}
