package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fitlgui/Api-OurThree/internal/config"
	"github.com/fitlgui/Api-OurThree/internal/database"
	"github.com/fitlgui/Api-OurThree/internal/handler"
	"github.com/fitlgui/Api-OurThree/internal/logging"
	"github.com/fitlgui/Api-OurThree/internal/mqtt"
	"github.com/fitlgui/Api-OurThree/internal/queue"
	"github.com/fitlgui/Api-OurThree/internal/repository"
	"github.com/fitlgui/Api-OurThree/internal/router"
	"github.com/fitlgui/Api-OurThree/internal/service"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	level := slog.LevelInfo
	if !cfg.IsProd() {
		level = slog.LevelDebug
	}
	logger := logging.New(os.Stdout, cfg.IsProd(), level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Startup is gated on the document store: no connection, no service.
	client, db, err := database.Open(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		logger.Error(ctx, "mongo connect failed", "err", err)
		os.Exit(1)
	}
	logger.Info(ctx, "connected to mongo", "db", cfg.DBName)

	users := repository.NewUserRepo(db)
	horta := repository.NewHortaRepo(db)

	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		logger.Warn(ctx, "redis unavailable, state cache disabled", "err", err)
	}

	var background sync.WaitGroup
	var events service.EventPublisher
	var publisher *queue.Publisher
	if cfg.Events.Enabled() {
		publisher = queue.NewPublisher(cfg.Events.URL, cfg.Events.Exchange)
		events = publisher
		if cfg.Events.ConsumerEnabled {
			consumer := &queue.AuditConsumer{
				URL:      cfg.Events.URL,
				Exchange: cfg.Events.Exchange,
				Dir:      cfg.Events.LogDir,
				Log:      logger.With("component", "audit-consumer"),
			}
			background.Add(1)
			go func() {
				defer background.Done()
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error(ctx, "audit consumer stopped", "err", err)
				}
			}()
		}
	}

	var notifier service.PumpNotifier
	var broker *mqtt.Client
	if cfg.MQTT.Enabled() {
		broker, err = mqtt.Connect(cfg.MQTT, logger.Slog().With("component", "mqtt"))
		if err != nil {
			logger.Warn(ctx, "mqtt unavailable, pump bridge disabled", "err", err)
		} else {
			qos := byte(cfg.MQTT.QoS)
			notifier = mqtt.NewPumpBridge(broker, broker.Topics(), qos)
			if err := broker.Subscribe(broker.Topics().Sensors(), qos, mqtt.SensorHandler(horta, cfg.RequestTimeout, router.StateInvalidator(cfg.Cache, rdb))); err != nil {
				logger.Warn(ctx, "sensor subscription failed", "err", err)
			}
		}
	}

	accounts := service.NewAccountService(users, service.SharedSecret(cfg.AdminKey), cfg.BcryptCost, events, logger.With("component", "accounts"))
	state := service.NewHortaService(horta, notifier, events, logger.With("component", "horta"))

	e := router.New(router.Deps{
		Auth:  handler.NewAuthHandler(accounts, cfg.RequestTimeout, logger),
		Horta: handler.NewHortaHandler(state, cfg.RequestTimeout, logger),
		Ping:  func(ctx context.Context) error { return database.Ping(ctx, client) },
		Redis: rdb,
		Cache: cfg.Cache,
		CORS:  cfg.CORSOrigins,
		Log:   logger,
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info(ctx, "listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "http shutdown", "err", err)
	}
	// The audit consumer exits once ctx is done; let it finish its last write.
	background.Wait()
	if broker != nil {
		_ = broker.Close()
	}
	if publisher != nil {
		_ = publisher.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "mongo disconnect", "err", err)
	}
}
