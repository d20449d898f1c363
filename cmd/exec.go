package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fanpass/config"
	"fanpass/internal/handlers"
	"fanpass/internal/notify"
	"fanpass/internal/services"
	"fanpass/internal/services/payment"
	"fanpass/internal/services/payment/mockpay"
	"fanpass/internal/services/payment/stripe"
	"fanpass/internal/store"
	"fanpass/monitoring"
	"fanpass/security"
	"fanpass/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"

	_ "fanpass/migrations"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()
	devMode := cfg.Environment == "development"

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize payment gateway
	gateway, err := newGateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cmd.Start: %v", err)
	}
	defer gateway.Close(ctx)

	// Initialize realtime push
	var realtime services.RealtimePublisher = services.NoopPublisher{}
	if cfg.PubNubPublishKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey

		realtime = services.NewPubNubPublisher(pubnub.NewPubNub(pnConfig))
	}

	// Initialize services
	st := store.New(app)
	notifier := notify.New(app, cfg.PublicURL)
	var monitor *monitoring.Monitor
	if cfg.EnableMetrics {
		monitor = monitoring.NewMonitor(redisClient)
		monitoring.StartMetricsServer(cfg.MetricsPort)
	}

	orderService := services.NewOrderService(st, gateway, notifier, realtime, monitor,
		cfg.CommissionRate, cfg.GatewayTimeout, cfg.PublicURL)
	sessionService := services.NewSessionService(redisClient, cfg.SessionTTL)
	authService := services.NewAuthService(st, sessionService, cfg.AuthProviderURL)
	catalogService := services.NewCatalogService(st)

	// Providers that push payment outcomes feed the shared confirmation
	// path through this channel.
	notifications := make(chan *payment.Notification, 16)
	gateway.SetNotificationChannel(notifications)
	go orderService.ListenNotifications(ctx, notifications)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(app, authService, cfg.SessionTTL, !devMode)
	catalogHandler := handlers.NewCatalogHandler(app, catalogService, st, authHandler)
	checkoutHandler := handlers.NewCheckoutHandler(app, orderService, gateway, authHandler, devMode)
	rateLimiter := security.NewRateLimiter(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Start background tasks
	go orderService.RunReservationSweeper(ctx, cfg.SweepInterval, cfg.ReservationTTL)

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Auth
		e.Router.POST("/api/auth/session", authHandler.ExchangeSession)
		e.Router.GET("/api/auth/me", authHandler.Me)
		e.Router.POST("/api/auth/logout", authHandler.Logout)
		e.Router.POST("/api/auth/become-seller", authHandler.BecomeSeller)

		// Catalog
		e.Router.GET("/api/events", catalogHandler.ListEvents)
		e.Router.GET("/api/events/{eventId}", catalogHandler.GetEvent)
		e.Router.GET("/api/tickets", catalogHandler.ListTickets)
		e.Router.POST("/api/tickets", catalogHandler.CreateListing)
		e.Router.POST("/api/alerts", catalogHandler.CreatePriceAlert)
		e.Router.POST("/api/seed", catalogHandler.Seed)

		// Checkout and orders
		e.Router.POST("/api/checkout/create", checkoutHandler.CreateCheckout).
			BindFunc(rateLimiter.CheckoutRateLimit(cfg.CheckoutRateLimit))
		e.Router.GET("/api/checkout/status/{sessionId}", checkoutHandler.CheckoutStatus)
		e.Router.POST("/api/webhook/stripe", checkoutHandler.Webhook)
		e.Router.GET("/api/orders", checkoutHandler.ListOrders)
		e.Router.GET("/api/orders/{orderId}", checkoutHandler.GetOrder)
		e.Router.POST("/api/orders/{orderId}/dispute", checkoutHandler.OpenDispute)
		e.Router.POST("/api/orders/{orderId}/rating", checkoutHandler.RateSeller)
		e.Router.GET("/api/payouts", checkoutHandler.ListPayouts)

		if devMode {
			e.Router.POST("/api/test/simulate-payment", checkoutHandler.SimulatePayment)
		}

		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		setupTicketHooks(app, st, notifier)

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

func newGateway(ctx context.Context, cfg *config.Config) (payment.Gateway, error) {
	factory := payment.NewFactory()

	switch payment.Provider(cfg.PaymentProvider) {
	case payment.ProviderStripe:
		return factory.CreateGateway(ctx, payment.ProviderStripe, &stripe.Config{
			BaseURL:       cfg.StripeBaseURL,
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
		})

	case payment.ProviderMockpay:
		return factory.CreateGateway(ctx, payment.ProviderMockpay, &mockpay.Config{
			PublicURL: cfg.PublicURL,
			PNSubKey:  cfg.MockpaySubKey,
			PNChannel: cfg.MockpayChannel,
			PNUUID:    cfg.MockpayUUID,
		})

	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.PaymentProvider)
	}
}

// setupTicketHooks watches seller price edits and fans out price drop
// alerts, and welcomes new customers.
func setupTicketHooks(app *pocketbase.PocketBase, st *store.Store, notifier *notify.Service) {
	app.OnRecordUpdateRequest("tickets").BindFunc(func(e *core.RecordRequestEvent) error {
		oldPrice := e.Record.Original().GetFloat("price")
		newPrice := e.Record.GetFloat("price")
		eventID := e.Record.GetString("event_id")

		if err := e.Next(); err != nil {
			return err
		}

		if newPrice >= oldPrice || e.Record.GetString("status") != "available" {
			return nil
		}

		go func() {
			alerts, err := st.ListMatchingPriceAlerts(eventID, newPrice)
			if err != nil {
				slog.Error("load price alerts", "event", eventID, "error", err)
				return
			}

			event, err := st.GetEvent(eventID)
			if err != nil {
				slog.Error("load event for price alerts", "event", eventID, "error", err)
				return
			}

			for _, alert := range alerts {
				notifier.SendPriceDrop(context.Background(), alert, event, oldPrice, newPrice)
			}
		}()

		return nil
	})

	app.OnRecordAfterCreateSuccess("customers").BindFunc(func(e *core.RecordEvent) error {
		user, err := st.GetUser(e.Record.Id)
		if err == nil {
			notifier.SendWelcome(context.Background(), user)
		}
		return e.Next()
	})
}

func handleShutdown(cancel context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down, stopping background workers")
	cancel()
}
