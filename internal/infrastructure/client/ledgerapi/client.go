// Package ledgerapi is the REST client for the internal ledger service,
// which owns pending and processed transactions.
package ledgerapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/ledger"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/payment"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/resilience"
)

const (
	pendingPath      = "/api/PendingTransactions/{reference}"
	processPath      = "/api/PendingTransactions/{reference}/ProcessPayment"
	searchPath       = "/api/ProcessedTransactions/Search"
	cardDetailsPath  = "/api/ProcessedTransactions/{reference}/CardDetails"
	defaultTimeout   = 10 * time.Second
	referenceParam   = "reference"
	internalRefQuery = "internalReference"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client makes single attempts; it never retries. A nil breaker calls the
// ledger directly.
type Client struct {
	http    *resty.Client
	breaker *resilience.Breaker
}

func New(cfg Config, breaker *resilience.Breaker) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		breaker: breaker,
	}
}

func (c *Client) PendingTransactions(ctx context.Context, reference string) ([]ledger.PendingTransaction, error) {
	var out []ledger.PendingTransaction

	resp, err := c.send(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetPathParam(referenceParam, reference).
			SetResult(&out).
			Get(pendingPath)
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("pending transactions for %q: %w", reference, payment.ErrPaymentNotFound)
	}
	if err := expectSuccess(resp); err != nil {
		return nil, err
	}

	return out, nil
}

// SearchProcessedTransactions treats a 404 as an empty result.
func (c *Client) SearchProcessedTransactions(ctx context.Context, reference string) ([]ledger.ProcessedTransaction, error) {
	var out []ledger.ProcessedTransaction

	resp, err := c.send(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetQueryParam(internalRefQuery, reference).
			SetResult(&out).
			Get(searchPath)
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if err := expectSuccess(resp); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Client) ProcessPayment(ctx context.Context, reference string, instr ledger.CaptureInstruction) (ledger.CaptureResult, error) {
	var out ledger.CaptureResult

	resp, err := c.send(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetPathParam(referenceParam, reference).
			SetBody(instr).
			SetResult(&out).
			Post(processPath)
	})
	if err != nil {
		return ledger.CaptureResult{}, err
	}

	if resp.StatusCode() == http.StatusNotFound {
		return ledger.CaptureResult{}, fmt.Errorf("pending transaction %q: %w", reference, payment.ErrPaymentNotFound)
	}
	if err := expectSuccess(resp); err != nil {
		return ledger.CaptureResult{}, err
	}

	return out, nil
}

func (c *Client) UpdateCardDetails(ctx context.Context, reference string, details ledger.CardDetails) error {
	resp, err := c.send(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetPathParam(referenceParam, reference).
			SetBody(details).
			Put(cardDetailsPath)
	})
	if err != nil {
		return err
	}

	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("processed transaction %q: %w", reference, payment.ErrPaymentNotFound)
	}
	return expectSuccess(resp)
}

// send runs the request through the breaker. Transport errors and 5xx
// responses count as breaker failures; other statuses are left to the caller.
func (c *Client) send(do func() (*resty.Response, error)) (*resty.Response, error) {
	call := func() (*resty.Response, error) {
		resp, err := do()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, fmt.Errorf("ledger %s %s returned status %d", resp.Request.Method, resp.Request.URL, resp.StatusCode())
		}
		return resp, nil
	}

	var (
		resp *resty.Response
		err  error
	)
	if c.breaker != nil {
		resp, err = resilience.Execute(c.breaker, call)
	} else {
		resp, err = call()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", payment.ErrUpstreamUnavailable, err)
	}

	return resp, nil
}

func expectSuccess(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	return fmt.Errorf("%w: ledger %s %s returned status %d", payment.ErrUpstreamUnavailable,
		resp.Request.Method, resp.Request.URL, resp.StatusCode())
}
