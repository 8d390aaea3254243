package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/payment"
)

const paymentColumns = `id, identifier, reference, amount, payment_id, next_url, failure_url,
	status, finished, created_at, captured_at, card_prefix, card_suffix, refund_reference, version`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Add(ctx context.Context, p *payment.Payment) (*payment.Payment, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payments
		 (identifier, reference, amount, payment_id, next_url, failure_url, status, finished,
		  created_at, captured_at, card_prefix, card_suffix, refund_reference, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		p.Identifier.String(),
		p.Reference,
		p.Amount.String(),
		p.PaymentID,
		p.NextURL,
		p.FailureURL,
		string(p.Status),
		boolToInt(p.Finished),
		formatTime(p.CreatedAt),
		formatTimePtr(p.CapturedAt),
		p.CardPrefix,
		p.CardSuffix,
		nullString(p.RefundReference),
	)
	if err != nil {
		return nil, fmt.Errorf("insert payment %q: %w", p.Reference, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	stored := p.Clone()
	stored.ID = id
	stored.Version = 1
	return stored, nil
}

// Update writes p only if the stored version still equals p.Version.
func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) (*payment.Payment, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments
		 SET amount = ?, payment_id = ?, next_url = ?, failure_url = ?, status = ?, finished = ?,
		     captured_at = ?, card_prefix = ?, card_suffix = ?, refund_reference = ?,
		     version = version + 1
		 WHERE id = ? AND version = ?`,
		p.Amount.String(),
		p.PaymentID,
		p.NextURL,
		p.FailureURL,
		string(p.Status),
		boolToInt(p.Finished),
		formatTimePtr(p.CapturedAt),
		p.CardPrefix,
		p.CardSuffix,
		nullString(p.RefundReference),
		p.ID,
		p.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("update payment %q: %w", p.Reference, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM payments WHERE id = ?`, p.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, payment.ErrConcurrentUpdate
	}

	stored := p.Clone()
	stored.Version++
	return stored, nil
}

func (r *PaymentRepository) FindByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	return r.findOne(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE reference = ?
		 ORDER BY id DESC LIMIT 1`,
		reference,
	)
}

func (r *PaymentRepository) FindOpenByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	return r.findOne(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE reference = ? AND finished = 0
		 ORDER BY id DESC LIMIT 1`,
		reference,
	)
}

func (r *PaymentRepository) findOne(ctx context.Context, query string, args ...any) (*payment.Payment, error) {
	row := r.db.QueryRowContext(ctx, query, args...)

	var (
		p          payment.Payment
		identifier string
		amount     string
		status     string
		finished   int
		createdAt  string
		capturedAt sql.NullString
		refund     sql.NullString
	)

	if err := row.Scan(
		&p.ID,
		&identifier,
		&p.Reference,
		&amount,
		&p.PaymentID,
		&p.NextURL,
		&p.FailureURL,
		&status,
		&finished,
		&createdAt,
		&capturedAt,
		&p.CardPrefix,
		&p.CardSuffix,
		&refund,
		&p.Version,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, err
	}

	var err error
	if p.Identifier, err = uuid.Parse(identifier); err != nil {
		return nil, fmt.Errorf("payment %d identifier: %w", p.ID, err)
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("payment %d amount: %w", p.ID, err)
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("payment %d created_at: %w", p.ID, err)
	}
	if capturedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, capturedAt.String)
		if err != nil {
			return nil, fmt.Errorf("payment %d captured_at: %w", p.ID, err)
		}
		p.CapturedAt = &t
	}

	p.Status = payment.Status(status)
	p.Finished = finished == 1
	p.RefundReference = refund.String

	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
