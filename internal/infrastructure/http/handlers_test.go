package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/application/callback"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/gateway"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/payment"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/metrics"
	httpapi "github.com/rcarvalho-pb/hosted_checkout-go/internal/infrastructure/http"
)

type fakeCheckout struct {
	initiateFn func(reference, hash string) (*gateway.CheckoutRequest, error)
}

func (f *fakeCheckout) Initiate(_ context.Context, reference, hash string) (*gateway.CheckoutRequest, error) {
	return f.initiateFn(reference, hash)
}

type fakeCallback struct {
	handleFn func(fields map[string]string) (callback.Result, error)
}

func (f *fakeCallback) Handle(_ context.Context, fields map[string]string) (callback.Result, error) {
	return f.handleFn(fields)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(checkout *fakeCheckout, cb *fakeCallback) http.Handler {
	reg := prometheus.NewRegistry()
	return httpapi.NewRouter(&httpapi.PaymentHandler{Checkout: checkout, Callback: cb}, metrics.New(reg), reg)
}

func TestStartCheckout_ReturnsOrderedFormFields(t *testing.T) {
	var gotRef, gotHash string
	checkout := &fakeCheckout{initiateFn: func(reference, hash string) (*gateway.CheckoutRequest, error) {
		gotRef, gotHash = reference, hash
		return &gateway.CheckoutRequest{
			Endpoint:        "https://checkout.gateway.example/pay",
			ReferenceNumber: reference,
			Amount:          decimal.RequireFromString("10"),
			Signature:       "sig",
		}, nil
	}}

	rec := httptest.NewRecorder()
	newRouter(checkout, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Payment/reference/abc123", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reference", gotRef)
	assert.Equal(t, "abc123", gotHash)

	var body httpapi.CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://checkout.gateway.example/pay", body.Endpoint)
	require.Len(t, body.Fields, 20)
	assert.Equal(t, "access_key", body.Fields[0].Name)
	assert.Equal(t, httpapi.FormField{Name: "signature", Value: "sig"}, body.Fields[len(body.Fields)-1])

	values := map[string]string{}
	for _, f := range body.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "10.00", values["amount"])
	assert.Equal(t, "reference", values["reference_number"])
}

func TestStartCheckout_HidesErrorDetail(t *testing.T) {
	checkout := &fakeCheckout{initiateFn: func(string, string) (*gateway.CheckoutRequest, error) {
		return nil, errors.Join(payment.ErrValidationFailure, errors.New("the hash is invalid"))
	}}

	rec := httptest.NewRecorder()
	newRouter(checkout, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Payment/reference/wrong", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Unable to process the payment"}`, rec.Body.String())
}

func TestPaymentResponse_PostRedirectsToNextURL(t *testing.T) {
	var got map[string]string
	cb := &fakeCallback{handleFn: func(fields map[string]string) (callback.Result, error) {
		got = fields
		return callback.Result{Success: true, NextURL: "https://portal.example/receipt"}, nil
	}}

	form := url.Values{}
	form.Set("decision", "ACCEPT")
	form.Set("req_reference_number", "Test")
	form.Set("signature", "sig")

	req := httptest.NewRequest(http.MethodPost, "/Payment/PaymentResponse", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	newRouter(nil, cb).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://portal.example/receipt", rec.Header().Get("Location"))
	assert.Equal(t, map[string]string{"decision": "ACCEPT", "req_reference_number": "Test", "signature": "sig"}, got)
}

func TestPaymentResponse_GetReadsQuery(t *testing.T) {
	var got map[string]string
	cb := &fakeCallback{handleFn: func(fields map[string]string) (callback.Result, error) {
		got = fields
		return callback.Result{Success: true}, nil
	}}

	rec := httptest.NewRecorder()
	newRouter(nil, cb).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Payment/PaymentResponse?decision=CANCEL", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCEL", got["decision"])
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestPaymentResponse_UnsuccessfulShowsGenericFailure(t *testing.T) {
	cases := map[string]callback.Result{
		"with next url":    {NextURL: "https://portal.example/receipt"},
		"without next url": {},
	}

	for name, res := range cases {
		t.Run(name, func(t *testing.T) {
			cb := &fakeCallback{handleFn: func(map[string]string) (callback.Result, error) {
				return res, nil
			}}

			rec := httptest.NewRecorder()
			newRouter(nil, cb).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/Payment/PaymentResponse", nil))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Empty(t, rec.Header().Get("Location"))
			assert.JSONEq(t, `{"error":"Unable to process the payment"}`, rec.Body.String())
		})
	}
}

func TestPaymentResponse_Failures(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"tampered signature": {payment.ErrSignatureInvalid, http.StatusBadRequest},
		"unknown reference":  {payment.ErrPaymentNotFound, http.StatusInternalServerError},
		"ledger unavailable": {payment.ErrUpstreamUnavailable, http.StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cb := &fakeCallback{handleFn: func(map[string]string) (callback.Result, error) {
				return callback.Result{}, tc.err
			}}

			rec := httptest.NewRecorder()
			newRouter(nil, cb).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/Payment/PaymentResponse", nil))

			assert.Equal(t, tc.want, rec.Code)
			assert.JSONEq(t, `{"error":"Unable to process the payment"}`, rec.Body.String())
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	router := newRouter(nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
