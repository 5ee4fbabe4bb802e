package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Africa-Access-Water/afaw-api/internal/checkout"
	"github.com/Africa-Access-Water/afaw-api/internal/config"
	"github.com/Africa-Access-Water/afaw-api/internal/database"
	"github.com/Africa-Access-Water/afaw-api/internal/donation"
	donationStore "github.com/Africa-Access-Water/afaw-api/internal/donation/store"
	"github.com/Africa-Access-Water/afaw-api/internal/donor"
	donorStore "github.com/Africa-Access-Water/afaw-api/internal/donor/store"
	"github.com/Africa-Access-Water/afaw-api/internal/export"
	afawHttp "github.com/Africa-Access-Water/afaw-api/internal/http"
	donationHandler "github.com/Africa-Access-Water/afaw-api/internal/http/donation"
	donorHandler "github.com/Africa-Access-Water/afaw-api/internal/http/donor"
	exportHandler "github.com/Africa-Access-Water/afaw-api/internal/http/export"
	ledgerHandler "github.com/Africa-Access-Water/afaw-api/internal/http/ledger"
	projectHandler "github.com/Africa-Access-Water/afaw-api/internal/http/project"
	subscriptionHandler "github.com/Africa-Access-Water/afaw-api/internal/http/subscription"
	webhookHandler "github.com/Africa-Access-Water/afaw-api/internal/http/webhook"
	"github.com/Africa-Access-Water/afaw-api/internal/ledger"
	ledgerStore "github.com/Africa-Access-Water/afaw-api/internal/ledger/store"
	"github.com/Africa-Access-Water/afaw-api/internal/mail"
	"github.com/Africa-Access-Water/afaw-api/internal/notify"
	"github.com/Africa-Access-Water/afaw-api/internal/processor"
	"github.com/Africa-Access-Water/afaw-api/internal/receipt"
	"github.com/Africa-Access-Water/afaw-api/internal/reconcile"
	reconcileStore "github.com/Africa-Access-Water/afaw-api/internal/reconcile/store"
	"github.com/Africa-Access-Water/afaw-api/internal/statement"
	"github.com/Africa-Access-Water/afaw-api/internal/subscription"
	subscriptionStore "github.com/Africa-Access-Water/afaw-api/internal/subscription/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.IsProduction() {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	var sender notify.Sender = notify.LogSender{}

	if cfg.Mail.Host != "" {
		mailer, err := mail.New(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.FromName)
		if err != nil {
			slog.Error("failed to set up mailer", "error", err)
			os.Exit(1)
		}

		sender = mailer
	}

	// Nil interfaces disable receipts.
	var (
		receipts reconcile.ReceiptRenderer
		renderer export.Renderer
	)

	if cfg.Receipt.RendererURL != "" {
		client := receipt.NewClient(cfg.Receipt.RendererURL, cfg.Receipt.Timeout, receipt.DefaultOrganization)
		receipts, renderer = client, client
	}

	queue := notify.NewQueue(cfg.Mail.Workers, cfg.Mail.QueueSize, cfg.Server.Timeout+cfg.Receipt.Timeout)
	stripeClient := processor.New(cfg.Stripe.SecretKey, cfg.App.ClientURL, nil)

	var (
		donorService        = donor.NewService(donorStore.New(db))
		donationService     = donation.NewService(donationStore.New(db))
		subscriptionService = subscription.NewService(subscriptionStore.New(db))
		ledgerService       = ledger.NewService(ledgerStore.New(db))
		checkoutService     = checkout.NewService(donorService, donationService, subscriptionService, stripeClient)
		statementService    = statement.NewService(donationService)
		exportService       = export.NewService(donationService, renderer)
		dispatcher          = reconcile.NewDispatcher(
			reconcile.Config{WebhookSecret: cfg.Stripe.WebhookSecret, AdminEmails: cfg.Admin.Emails},
			reconcileStore.New(db), stripeClient, sender, receipts, queue,
		)
	)

	router := afawHttp.New(
		afawHttp.Options{AllowedOrigins: cfg.HTTP.AllowedOrigins, JWTSecret: cfg.Auth.JWTSecret},
		afawHttp.Handlers{
			Webhook:       webhookHandler.NewHandler(dispatcher),
			Donations:     donationHandler.NewHandler(checkoutService, donationService),
			Subscriptions: subscriptionHandler.NewHandler(subscriptionService),
			Donors:        donorHandler.NewHandler(donorService),
			Projects:      projectHandler.NewHandler(ledgerService, donationService),
			Ledger:        ledgerHandler.NewHandler(ledgerService, statementService),
			Receipts:      exportHandler.NewHandler(exportService),
		},
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
	}

	go func() {
		slog.Info("starting server", "port", srv.Addr, "env", cfg.App.Env, "mail", cfg.Mail.Host != "", "receipts", renderer != nil)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	// Drain queued notifications for events that were already acknowledged.
	if err := queue.Close(ctx); err != nil {
		slog.Error("notification queue did not drain", "error", err)
	}

	slog.Info("server stopped")
}
