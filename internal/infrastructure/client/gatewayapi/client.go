// Package gatewayapi searches the card gateway's transaction history over
// its signed REST API.
package gatewayapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/gateway"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/payment"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/resilience"
)

const (
	searchPath        = "/tss/v2/searches"
	searchSort        = "submitTimeUtc:desc"
	defaultSearchSize = 100
	defaultTimeout    = 10 * time.Second
)

type Config struct {
	BaseURL    string
	MerchantID string
	KeyID      string
	SharedKey  string
	Timeout    time.Duration
	SearchSize int
}

type Client struct {
	http    *resty.Client
	signer  *requestSigner
	breaker *resilience.Breaker
	size    int
}

func New(cfg Config, breaker *resilience.Breaker) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid gateway base url %q", cfg.BaseURL)
	}

	signer, err := newRequestSigner(cfg.MerchantID, cfg.KeyID, cfg.SharedKey, base.Host)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	size := cfg.SearchSize
	if size <= 0 {
		size = defaultSearchSize
	}

	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/hal+json"),
		signer:  signer,
		breaker: breaker,
		size:    size,
	}, nil
}

type searchRequest struct {
	Query string `json:"query"`
	Sort  string `json:"sort"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Embedded struct {
		TransactionSummaries []transactionSummary `json:"transactionSummaries"`
	} `json:"_embedded"`
}

type transactionSummary struct {
	ID                         string `json:"id"`
	ClientReferenceInformation struct {
		Code string `json:"code"`
	} `json:"clientReferenceInformation"`
	PaymentInformation struct {
		Card struct {
			Prefix string `json:"prefix"`
			Suffix string `json:"suffix"`
		} `json:"card"`
	} `json:"paymentInformation"`
	OrderInformation struct {
		AmountDetails struct {
			TotalAmount decimal.Decimal `json:"totalAmount"`
		} `json:"amountDetails"`
	} `json:"orderInformation"`
}

func (t transactionSummary) toPayment() gateway.Payment {
	return gateway.Payment{
		Reference:  t.ID,
		PaymentID:  t.ClientReferenceInformation.Code,
		CardPrefix: t.PaymentInformation.Card.Prefix,
		CardSuffix: t.PaymentInformation.Card.Suffix,
		Amount:     t.OrderInformation.AmountDetails.TotalAmount,
	}
}

// searchQuery filters on submission date and, when given, the merchant
// reference.
func searchQuery(clientReference string, daysAgo int) string {
	window := fmt.Sprintf("submitTimeUtc:[NOW/DAY-%dDAYS TO NOW/DAY+1DAY}", daysAgo)
	if clientReference == "" {
		return window
	}
	return fmt.Sprintf("clientReferenceInformation.code:%s AND %s", clientReference, window)
}

func (c *Client) SearchPayments(ctx context.Context, clientReference string, daysAgo int) ([]gateway.Payment, error) {
	body, err := json.Marshal(searchRequest{
		Query: searchQuery(clientReference, daysAgo),
		Sort:  searchSort,
		Limit: c.size,
	})
	if err != nil {
		return nil, err
	}

	call := func() (*searchResponse, error) {
		var out searchResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeaders(c.signer.headers(http.MethodPost, searchPath, body)).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			SetResult(&out).
			Post(searchPath)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() == http.StatusNotFound {
			return &searchResponse{}, nil
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("gateway search returned status %d", resp.StatusCode())
		}
		return &out, nil
	}

	var out *searchResponse
	if c.breaker != nil {
		out, err = resilience.Execute(c.breaker, call)
	} else {
		out, err = call()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", payment.ErrUpstreamUnavailable, err)
	}

	summaries := out.Embedded.TransactionSummaries
	payments := make([]gateway.Payment, 0, len(summaries))
	for _, s := range summaries {
		payments = append(payments, s.toPayment())
	}

	return payments, nil
}
