package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/application/worker"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/bootstrap"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/signature"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/config"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "bridgectl",
		Short:   "Operator tooling for the hosted checkout bridge",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringP("config", "c", os.Getenv("BRIDGE_CONFIG"), "Path to the YAML config file")

	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(hashCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Capture gateway payments the ledger has not recorded yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			req := worker.Request{
				DaysAgo:         cfg.Reconcile.DaysAgo,
				ClientReference: cfg.Reconcile.ClientReference,
			}
			if cmd.Flags().Changed("days-ago") {
				req.DaysAgo, _ = cmd.Flags().GetInt("days-ago")
			}
			if cmd.Flags().Changed("client-reference") {
				req.ClientReference, _ = cmd.Flags().GetString("client-reference")
			}

			app, err := bootstrap.New(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := app.Uncaptured.Run(ctx, req)
			if err != nil {
				return err
			}

			// Flush events recorded during the run before exiting.
			app.Dispatcher.DispatchOnce(context.WithoutCancel(ctx))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "identified: %d\n", summary.TotalIdentified)
			fmt.Fprintf(out, "captured:   %d\n", summary.TotalMarkedAsCaptured)
			fmt.Fprintf(out, "errors:     %d\n", summary.TotalErrors)
			for _, r := range summary.Results {
				line := fmt.Sprintf("  %s %s %s", r.GatewayReference, r.PaymentID, r.Outcome)
				if r.Err != nil {
					line += ": " + r.Err.Error()
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().Int("days-ago", 1, "Search window in days")
	cmd.Flags().String("client-reference", "", "Restrict the search to one client reference")

	return cmd
}

func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [reference]",
		Short: "Print the checkout link hash for a ledger reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Checkout.ReferenceHashKey == "" {
				return fmt.Errorf("checkout.reference_hash_key is required")
			}

			hash := signature.HashReference(args[0], cfg.Checkout.ReferenceHashKey)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n/Payment/%s/%s\n", hash, args[0], hash)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server, outbox dispatcher and reconciliation scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			app, err := bootstrap.New(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return app.Serve(ctx)
		},
	}
}
