package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/bootstrap"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/config"
)

func main() {
	configPath := flag.String("config", os.Getenv("BRIDGE_CONFIG"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Serve(ctx); err != nil {
		app.Logger.Error("server stopped", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	app.Logger.Info("server stopped", nil)
}
