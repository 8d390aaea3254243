package payment

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/gateway"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/ledger"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/signature"
)

const CallbackPath = "/Payment/PaymentResponse"

type BuilderConfig struct {
	AccessKey       string
	ProfileID       string
	SecretKey       string
	Endpoint        string
	PortalURL       string
	TransactionType string
}

// Builder assembles signed checkout requests. It does no I/O.
type Builder struct {
	Config  BuilderConfig
	Now     func() time.Time
	NewUUID func() string
}

type BuildArgs struct {
	Reference   string
	Amount      decimal.Decimal
	Transaction ledger.PendingTransaction
}

func NewBuilder(cfg BuilderConfig) *Builder {
	return &Builder{Config: cfg}
}

func (b *Builder) Build(args BuildArgs) (*gateway.CheckoutRequest, error) {
	callbackURL := strings.TrimRight(b.Config.PortalURL, "/") + CallbackPath

	req := &gateway.CheckoutRequest{
		Endpoint:                  b.Config.Endpoint,
		AccessKey:                 b.Config.AccessKey,
		ProfileID:                 b.Config.ProfileID,
		TransactionUUID:           b.newUUID(),
		SignedDateTime:            b.now().UTC().Truncate(time.Second),
		Locale:                    gateway.Locale,
		TransactionType:           b.Config.TransactionType,
		ReferenceNumber:           args.Reference,
		Amount:                    args.Amount,
		Currency:                  gateway.Currency,
		OverrideBackofficePostURL: callbackURL,
		OverrideCustomCancelPage:  callbackURL,
		OverrideCustomReceiptPage: callbackURL,
		BillTo: gateway.BillingAddress{
			Line1:      args.Transaction.PayeeAddressLine1,
			City:       args.Transaction.PayeeAddressLine2,
			State:      args.Transaction.PayeeAddressLine3,
			PostalCode: args.Transaction.PayeePostCode,
			Country:    gateway.BillingCountry,
		},
	}

	sig, err := signature.Sign(req.SignedFields(), b.Config.SecretKey)
	if err != nil {
		return nil, err
	}
	req.Signature = sig

	return req, nil
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Builder) newUUID() string {
	if b.NewUUID != nil {
		return b.NewUUID()
	}
	return uuid.NewString()
}
