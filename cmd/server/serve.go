package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"campuspark/internal/app"
	"campuspark/internal/balance"
	"campuspark/internal/config"
	"campuspark/internal/domain"
	"campuspark/internal/fare"
	"campuspark/internal/handler"
	internalRedis "campuspark/internal/redis"
	"campuspark/internal/repository/postgres"
	"campuspark/internal/service"
	"campuspark/internal/session"
	"campuspark/internal/wallet"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default command)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", "", "HTTP port (overrides SERVER_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load(envFile)
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Server.Port = port
	}

	logger := app.NewLogger(cfg.Log)
	log := logrus.NewEntry(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic first so the database and Redis clients get instrumented.
	nrApp := app.NewNewRelic(cfg.NewRelic, log)
	if nrApp != nil {
		defer nrApp.Shutdown(5 * time.Second)
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("Connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	log.Info("Connected to Redis")

	server, parking, err := wireServer(ctx, db, redisClient, nrApp, cfg, logger)
	if err != nil {
		return err
	}
	defer parking.Shutdown()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("Server exited")
	return nil
}

// wireServer wires all dependencies and returns the HTTP server together
// with the parking service whose countdown must be stopped on exit.
func wireServer(
	ctx context.Context,
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	cfg *config.Config,
	logger *logrus.Logger,
) (*http.Server, *service.ParkingService, error) {
	log := logrus.NewEntry(logger)

	// Redis stores.
	cacheStore := internalRedis.NewCacheStore(redisClient)
	locationStore := internalRedis.NewSpotLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)

	// Repositories.
	ticketRepo := postgres.NewTicketRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)

	// Wallet service client, traced as an external segment.
	var transport http.RoundTripper = http.DefaultTransport
	if nrApp != nil {
		transport = newrelic.NewRoundTripper(transport)
	}
	walletClient := wallet.NewClient(cfg.Wallet.BaseURL, cfg.Wallet.Timeout, transport)

	ledger := balance.NewLedger(
		balance.NewRemoteSource(walletClient, cfg.Wallet.UserID),
		balance.NewLocalSource(cacheStore),
		log.WithField("component", "ledger"),
	)
	if res, err := ledger.Load(ctx); err != nil {
		log.WithError(err).Warn("failed to load balance, starting from zero")
	} else {
		log.WithFields(logrus.Fields{"balance": res.Balance, "source": res.Source}).Info("Balance loaded")
	}

	// Services.
	calc := fare.NewCalculator(cfg.Parking.RatePerMinute)
	notificationService := service.NewNotificationService(log.WithField("component", "notification"))
	receiptService := service.NewReceiptService(cfg.Parking.RatePerMinute)
	settlementService := service.NewSettlementService(
		service.SettlementConfig{
			UserID: cfg.Wallet.UserID,
			Method: domain.PaymentMethod(cfg.Wallet.PaymentMethod),
		},
		walletClient,
		ledger,
		lockStore,
		ticketRepo,
		paymentRepo,
		receiptService,
		notificationService,
		log.WithField("component", "settlement"),
	)
	parkingService := service.NewParkingService(
		session.NewMachine(calc, session.WithAddTimeMinutes(cfg.Parking.AddTimeMinutes)),
		session.NewTimer(cfg.Parking.TickPeriod, nil),
		calc,
		cacheStore,
		locationStore,
		ticketRepo,
		settlementService,
		notificationService,
		log.WithField("component", "parking"),
	)
	if err := parkingService.Load(ctx); err != nil {
		return nil, nil, err
	}

	cards := service.NewSimulatedCardProcessor(cfg.TopUp.CardApprovalRate, cfg.TopUp.CardDelay, time.Now().UnixNano())
	topUpService := service.NewTopUpService(
		service.TopUpConfig{
			UserID:       cfg.Wallet.UserID,
			PixDelay:     cfg.TopUp.PixDelay,
			QuickAmounts: cfg.TopUp.QuickAmounts,
		},
		ledger,
		cards,
		lockStore,
		paymentRepo,
		notificationService,
		log.WithField("component", "topup"),
	)
	walletService := service.NewWalletService(ledger)
	vehicleService := service.NewVehicleService(cacheStore, log.WithField("component", "vehicle"))
	ticketService := service.NewTicketService(ticketRepo, paymentRepo)

	router := app.NewRouter(app.RouterDeps{
		SpotHandler:         handler.NewSpotHandler(parkingService),
		SessionHandler:      handler.NewSessionHandler(parkingService, cfg.Parking.DefaultMinutes),
		SettlementHandler:   handler.NewSettlementHandler(settlementService, receiptService),
		WalletHandler:       handler.NewWalletHandler(walletService, topUpService),
		VehicleHandler:      handler.NewVehicleHandler(vehicleService),
		TicketHandler:       handler.NewTicketHandler(ticketService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		RedisClient:         redisClient,
		NewRelicApp:         nrApp,
		Logger:              logger,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, parkingService, nil
}
