package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/application/callback"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/gateway"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/logging"
)

// GenericFailure is the only error text end users ever see.
const GenericFailure = "Unable to process the payment"

var errLedgerDeclined = errors.New("ledger did not accept the payment")

type CheckoutInitiator interface {
	Initiate(ctx context.Context, reference, hash string) (*gateway.CheckoutRequest, error)
}

type CallbackProcessor interface {
	Handle(ctx context.Context, fields map[string]string) (callback.Result, error)
}

type PaymentHandler struct {
	Checkout CheckoutInitiator
	Callback CallbackProcessor
	Logger   logging.Logger
}

type FormField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CheckoutResponse is what the portal renders into an auto-submitting form.
type CheckoutResponse struct {
	Endpoint string      `json:"endpoint"`
	Fields   []FormField `json:"fields"`
}

func (h *PaymentHandler) StartCheckout(c *gin.Context) {
	req, err := h.Checkout.Initiate(c.Request.Context(), c.Param("reference"), c.Param("hash"))
	if err != nil {
		h.fail(c, err)
		return
	}

	form := req.FormFields()
	fields := make([]FormField, len(form))
	for i, f := range form {
		fields[i] = FormField{Name: f.Name, Value: f.Value}
	}

	c.JSON(http.StatusOK, CheckoutResponse{Endpoint: req.Endpoint, Fields: fields})
}

// PaymentResponse receives the gateway callback, as a form post or as
// query parameters.
func (h *PaymentHandler) PaymentResponse(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": GenericFailure})
		return
	}

	fields := make(map[string]string, len(c.Request.Form))
	for k, v := range c.Request.Form {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}

	res, err := h.Callback.Handle(c.Request.Context(), fields)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !res.Success {
		h.fail(c, fmt.Errorf("%w: reference %q", errLedgerDeclined, fields[gateway.KeyReferenceNumber]))
		return
	}

	if res.NextURL == "" {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	c.Redirect(http.StatusFound, res.NextURL)
}

func (h *PaymentHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if callback.IsUserFacing(err) {
		status = http.StatusBadRequest
	}

	h.logger().Error("payment request failed", map[string]any{
		"path":   c.FullPath(),
		"status": status,
		"error":  err.Error(),
	})

	c.JSON(status, gin.H{"error": GenericFailure})
}

func (h *PaymentHandler) logger() logging.Logger {
	if h.Logger == nil {
		return logging.Noop{}
	}
	return h.Logger
}
