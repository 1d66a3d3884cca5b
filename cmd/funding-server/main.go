package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"funding-core/internal/handler"
	"funding-core/internal/model"
	"funding-core/internal/processor"
	"funding-core/internal/server"
	"funding-core/internal/service"
	"funding-core/internal/service/mq"
	"funding-core/internal/worker"
	"funding-core/internal/worker/tasks"
	"funding-core/pkg/config"
	"funding-core/pkg/database"
	"funding-core/pkg/logger"
	"funding-core/pkg/monitor"
	"funding-core/pkg/ratelimit"
	"funding-core/pkg/validator"
)

func main() {
	config.Init()
	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	monitor.Init()
	validator.Init()

	db, err := database.ConnectPostgres(buildDSN())
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}

	// Schema migrations run out of band via cmd/migrate; AutoMigrate is a
	// development convenience only.
	if config.Global.App.Env == "development" {
		if err := db.AutoMigrate(model.AllModels()...); err != nil {
			logger.Fatal("auto migration failed", zap.Error(err))
		}
	}

	rdb, err := database.ConnectRedis(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}

	// Outbox relay publisher, selected by config.
	var producer mq.Producer
	switch config.Global.Redis.MQType {
	case "kafka":
		producer = mq.NewKafkaProducer(config.Global.Kafka.Brokers)
	default:
		producer = mq.NewRedisProducer(rdb)
	}

	relayCtx, relayCancel := context.WithCancel(context.Background())
	relay := service.NewRelayService(db, producer)
	go relay.Start(relayCtx)

	// Notification worker: client for enqueueing, embedded server for
	// consuming.
	notifyClient := worker.NewClient(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
	dispatchLog := worker.NewGormDispatchLog(db)
	receiptHandler := tasks.NewReceiptHandler(dispatchLog, tasks.NewLogSender())
	workerSrv := worker.NewServer(
		config.Global.Redis.Addr,
		config.Global.Redis.Password,
		config.Global.Redis.DB,
		config.Global.Worker.Concurrency,
		receiptHandler,
	)
	workerSrv.Start()

	store := service.NewGormLedgerStore(db)
	stripeClient := processor.NewStripeClient(config.Global.Stripe.SecretKey)
	limiter := ratelimit.NewRedisLimiter(
		rdb,
		config.Global.RateLimit.MaxAttempts,
		time.Duration(config.Global.RateLimit.WindowSeconds)*time.Second,
	)

	checkoutSvc := service.NewCheckoutService(store, stripeClient, limiter, service.CheckoutConfig{
		PlatformFeeBps:   config.Global.Fees.PlatformFeeBps,
		MinDonationMinor: config.Global.Fees.MinDonationMinor,
	})
	ledgerSvc := service.NewLedgerService(store, notifyClient, config.Global.Fees.PlatformFeeBps)
	webhookSvc := service.NewWebhookService(store, ledgerSvc)

	reconcile := service.NewReconcileService(
		store,
		webhookSvc,
		rdb,
		config.Global.Reconcile.Schedule,
		time.Duration(config.Global.Reconcile.GraceSeconds)*time.Second,
		config.Global.Reconcile.BatchSize,
	)
	if err := reconcile.Start(); err != nil {
		logger.Fatal("failed to start reconciliation sweep", zap.Error(err))
	}

	checkoutHandler := handler.NewCheckoutHandler(checkoutSvc)
	webhookHandler := handler.NewWebhookHandler(
		webhookSvc,
		[]byte(config.Global.Stripe.WebhookSecret),
		time.Duration(config.Global.Stripe.MaxSkewSeconds)*time.Second,
	)

	router := server.NewRouter(checkoutHandler, webhookHandler)
	app := server.NewApp(config.Global.App.HttpPort, router)

	app.OnShutdown(func() {
		reconcile.Stop()
		workerSrv.Stop()
		relayCancel()
		if err := notifyClient.Close(); err != nil {
			logger.Error("failed to close task client", zap.Error(err))
		}
		if err := producer.Close(); err != nil {
			logger.Error("failed to close mq producer", zap.Error(err))
		}
	})

	if err := app.Run(); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func buildDSN() string {
	c := config.Global.DB
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}
