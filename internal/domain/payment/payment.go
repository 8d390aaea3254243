package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the ledger-facing result code. The string values are shared
// with the ledger API.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusAuthorised Status = "Authorised"
	StatusRefused    Status = "Refused"
	StatusCancelled  Status = "Cancelled"
	StatusError      Status = "Error"
)

// Payment is the ledger record tracking one checkout attempt.
type Payment struct {
	ID              int64
	Identifier      uuid.UUID
	Reference       string
	Amount          decimal.Decimal
	PaymentID       string
	// NextURL is only set once the ledger has accepted the completion.
	NextURL         string
	FailureURL      string
	Status          Status
	Finished        bool
	CreatedAt       time.Time
	CapturedAt      *time.Time
	CardPrefix      string
	CardSuffix      string
	RefundReference string
	Version         int
}

func New(reference string, amount decimal.Decimal, failureURL string, now time.Time) *Payment {
	return &Payment{
		Identifier: uuid.New(),
		Reference:  reference,
		Amount:     amount,
		FailureURL: failureURL,
		Status:     StatusPending,
		CreatedAt:  now,
	}
}

// CardDetailsNeedUpdating reports whether the record was authorised without
// the masked card fragments ever reaching it.
func (p *Payment) CardDetailsNeedUpdating() bool {
	return p.Status == StatusAuthorised && p.CardPrefix == ""
}

// Completion is a callback decision together with the ledger's answer.
type Completion struct {
	Status     Status
	PaymentID  string
	NextURL    string
	CardPrefix string
	CardSuffix string
	At         time.Time
}

// Complete applies a callback decision and closes the record.
func (p *Payment) Complete(c Completion) error {
	if p.Finished {
		return ErrPaymentFinished
	}

	at := c.At
	p.Status = c.Status
	p.PaymentID = c.PaymentID
	p.NextURL = c.NextURL
	p.CardPrefix = c.CardPrefix
	p.CardSuffix = c.CardSuffix
	p.CapturedAt = &at
	p.Finished = true
	return nil
}

// Accepted reports whether a finished record was taken by the ledger, so a
// repeated callback can be answered from the record alone.
func (p *Payment) Accepted() bool {
	return p.Finished && p.NextURL != ""
}

// SetCardDetails records the masked card fragments on an open record.
func (p *Payment) SetCardDetails(cardPrefix, cardSuffix string) error {
	if p.Finished {
		return ErrPaymentFinished
	}
	p.CardPrefix = cardPrefix
	p.CardSuffix = cardSuffix
	return nil
}

func (p *Payment) MarkFinished() error {
	if p.Finished {
		return ErrPaymentFinished
	}
	p.Finished = true
	return nil
}

// Clone returns a copy that shares no pointers with p.
func (p *Payment) Clone() *Payment {
	c := *p
	if p.CapturedAt != nil {
		t := *p.CapturedAt
		c.CapturedAt = &t
	}
	return &c
}
