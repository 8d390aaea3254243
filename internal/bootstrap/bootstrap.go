// Package bootstrap assembles the bridge from configuration. Both the
// server and the operator CLI start from here.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/application/callback"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/application/payment"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/application/worker"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/config"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/logging"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/resilience"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infrastructure/client/gatewayapi"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infrastructure/client/ledgerapi"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infrastructure/eventbus"
	httpapi "github.com/rcarvalho-pb/hosted_checkout-go/internal/infrastructure/http"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infrastructure/outbox"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infrastructure/persistence/sqlite"
)

const (
	outboxPollInterval = time.Second
	outboxBatchSize    = 50
	shutdownTimeout    = 15 * time.Second
)

type App struct {
	Config     *config.Config
	Logger     *logging.LogrusLogger
	Registry   *prometheus.Registry
	DB         *sql.DB
	Checkout   *payment.Service
	Callbacks  *callback.Reconciler
	Uncaptured *worker.UncapturedProcessor
	Scheduler  *worker.Scheduler
	Dispatcher *outbox.Dispatcher
	Router     *gin.Engine
}

func New(cfg *config.Config) (*App, error) {
	logger := logging.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.Format)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ledgerBreaker := resilience.NewBreaker("ledger-api", resilience.DefaultBreakerSettings(), m, logger)
	gatewayBreaker := resilience.NewBreaker("gateway-api", resilience.DefaultBreakerSettings(), m, logger)

	ledgerClient := ledgerapi.New(ledgerapi.Config{
		BaseURL: cfg.Ledger.BaseURL,
		Timeout: cfg.Ledger.Timeout,
	}, ledgerBreaker)

	gatewayClient, err := gatewayapi.New(gatewayapi.Config{
		BaseURL:    cfg.Gateway.BaseURL,
		MerchantID: cfg.Gateway.MerchantID,
		KeyID:      cfg.Gateway.KeyID,
		SharedKey:  cfg.Gateway.SharedKey,
		Timeout:    cfg.Gateway.Timeout,
		SearchSize: cfg.Gateway.SearchSize,
	}, gatewayBreaker)
	if err != nil {
		db.Close()
		return nil, err
	}

	repo := sqlite.NewPaymentRepository(db)
	outboxRepo := outbox.NewSQLiteRepository(db)
	recorder := &outbox.Recorder{Repo: outboxRepo}

	bus := eventbus.NewInMemoryBus()
	bus.SubscribeAll(eventbus.AuditLog(logger.With(map[string]any{"component": "ledger-events"})))

	checkout := &payment.Service{
		Repo:      repo,
		Pending:   ledgerClient,
		Processed: ledgerClient,
		Builder: payment.NewBuilder(payment.BuilderConfig{
			AccessKey:       cfg.Checkout.AccessKey,
			ProfileID:       cfg.Checkout.ProfileID,
			SecretKey:       cfg.Checkout.SecretKey,
			Endpoint:        cfg.Checkout.Endpoint,
			PortalURL:       cfg.Portal.URL,
			TransactionType: cfg.Checkout.TransactionType,
		}),
		HashKey:  cfg.Checkout.ReferenceHashKey,
		Recorder: recorder,
		Logger:   logger.With(map[string]any{"component": "checkout"}),
		Metrics:  m,
	}

	callbacks := &callback.Reconciler{
		Validator: &callback.Validator{SecretKey: cfg.Checkout.SecretKey},
		Repo:      repo,
		Gateway:   gatewayClient,
		Capture:   ledgerClient,
		Recorder:  recorder,
		Logger:    logger.With(map[string]any{"component": "callback"}),
		Metrics:   m,
	}

	uncaptured := &worker.UncapturedProcessor{
		Gateway:     gatewayClient,
		Repo:        repo,
		Pending:     ledgerClient,
		Capture:     ledgerClient,
		CardDetails: ledgerClient,
		Recorder:    recorder,
		Logger:      logger.With(map[string]any{"component": "uncaptured"}),
		Metrics:     m,
		Concurrency: cfg.Reconcile.Concurrency,
	}
	if cfg.Reconcile.RatePerSecond > 0 {
		uncaptured.Limiter = rate.NewLimiter(rate.Limit(cfg.Reconcile.RatePerSecond), 1)
	}

	scheduler := &worker.Scheduler{
		Runner: uncaptured,
		Request: worker.Request{
			DaysAgo:         cfg.Reconcile.DaysAgo,
			ClientReference: cfg.Reconcile.ClientReference,
		},
		Interval: cfg.Reconcile.Interval,
		Timeout:  cfg.Reconcile.Interval,
		Logger:   logger.With(map[string]any{"component": "scheduler"}),
	}

	dispatcher := &outbox.Dispatcher{
		Repo:         outboxRepo,
		EventBus:     bus,
		PollInterval: outboxPollInterval,
		BatchSize:    outboxBatchSize,
		Logger:       logger.With(map[string]any{"component": "outbox"}),
		Metrics:      m,
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(&httpapi.PaymentHandler{
		Checkout: checkout,
		Callback: callbacks,
		Logger:   logger.With(map[string]any{"component": "http"}),
	}, m, reg)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Registry:   reg,
		DB:         db,
		Checkout:   checkout,
		Callbacks:  callbacks,
		Uncaptured: uncaptured,
		Scheduler:  scheduler,
		Dispatcher: dispatcher,
		Router:     router,
	}, nil
}

// Serve runs the HTTP server, the outbox dispatcher and, when enabled, the
// reconciliation scheduler until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.Dispatcher.Run(ctx)
	}()

	if a.Config.Reconcile.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Scheduler.Run(ctx)
		}()
	}

	srv := &http.Server{
		Addr:         a.Config.Server.Addr,
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("http shutdown failed", map[string]any{"error": err.Error()})
	}

	cancel()
	wg.Wait()

	return serveErr
}

func (a *App) Close() error {
	return a.DB.Close()
}
