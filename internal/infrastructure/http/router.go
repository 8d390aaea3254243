package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/metrics"
)

// NewRouter wires the payment routes. gatherer may be nil to leave
// /metrics unmounted.
func NewRouter(handler *PaymentHandler, m *metrics.Metrics, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(m.GinMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	payments := router.Group("/Payment")
	payments.GET("/PaymentResponse", handler.PaymentResponse)
	payments.POST("/PaymentResponse", handler.PaymentResponse)
	payments.GET("/:reference/:hash", handler.StartCheckout)

	return router
}
