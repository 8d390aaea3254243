package payment

import "context"

type Repository interface {
	Add(ctx context.Context, p *Payment) (*Payment, error)
	// Update persists p if its Version still matches the stored one and
	// bumps the version. A stale p yields ErrConcurrentUpdate.
	Update(ctx context.Context, p *Payment) (*Payment, error)
	FindByReference(ctx context.Context, reference string) (*Payment, error)
	// FindOpenByReference only matches records with Finished == false.
	FindOpenByReference(ctx context.Context, reference string) (*Payment, error)
}
