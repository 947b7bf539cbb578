package main

import (
	"context"
	stdlog "log"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/cache"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/engine"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/hardware"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/kafka"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/logger"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/repository/postgresql"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/server"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/storage"
)

// registry is the full storage surface the service wires together: lifecycle
// state for the engine, door write-through for the waiter, active orders for
// the credential index and the transaction trail for the publisher.
type registry interface {
	engine.Storage
	Provision(ctx context.Context, lockers []storage.Locker) error
	ListLockers(ctx context.Context) ([]storage.Locker, error)
	ListActiveOrders(ctx context.Context) ([]storage.Order, error)
	ListUnpublishedTransactions(ctx context.Context, limit int) ([]storage.TransactionEntry, error)
	MarkTransactionPublished(ctx context.Context, id uuid.UUID) error
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("config load failed: %v", err)
	}

	zlog := logger.New(cfg.Debug)
	defer func() { _ = zlog.Sync() }()
	log := zlog.Sugar()

	stg, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalw("storage init failed", "error", err)
	}

	if err := stg.Provision(ctx, provisionedLockers(cfg)); err != nil {
		log.Fatalw("locker provisioning failed", "error", err)
	}

	driver := openDriver(cfg, log)
	waiter := hardware.NewDoorWaiter(driver, stg, cfg.DoorCloseTimeout, cfg.DoorPollInterval)

	creds := cache.NewCredentialIndex()
	if err := creds.LoadInitialData(ctx, stg); err != nil {
		log.Fatalw("credential index load failed", "error", err)
	}

	if err := seedOccupancyGauge(ctx, stg); err != nil {
		log.Fatalw("occupancy gauge init failed", "error", err)
	}

	eng := engine.New(stg, driver, waiter, creds, cfg.DepositCodeLength, cfg.WithdrawCodeLength)

	adminPassword := cfg.AdminPassword
	if adminPassword == "" {
		adminPassword = "admin"
		log.Warn("ADMIN_PASSWORD not set, using default credentials")
	}
	srv, err := server.New(eng, cfg.AdminUsername, adminPassword)
	if err != nil {
		log.Fatalw("server init failed", "error", err)
	}

	publisher := kafka.NewPublisher(stg, openProducer(cfg, log), kafka.PublisherConfig{
		Topic:        cfg.KafkaTopic,
		PollInterval: time.Second,
		BatchSize:    50,
	})

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.Run(groupCtx, cfg.Port)
	})
	group.Go(func() error {
		publisher.Run(groupCtx)
		return nil
	})

	if err := group.Wait(); err != nil {
		log.Fatalw("service terminated", "error", err)
	}
	log.Info("service stopped")
}

func openStorage(ctx context.Context, cfg *config.Config) (registry, error) {
	if cfg.StorageBackend == "postgres" {
		database, err := db.NewDb(ctx, cfg.DatabaseDSN())
		if err != nil {
			return nil, err
		}
		stg := storage.NewPostgresStorage(database,
			postgresql.NewLockerRepo(database),
			postgresql.NewOrderRepo(database),
			postgresql.NewTransactionRepo(database))
		if err := stg.InitSchema(ctx); err != nil {
			return nil, err
		}
		return stg, nil
	}
	return storage.NewFileStorage(cfg.StoragePath)
}

func openDriver(cfg *config.Config, log *zap.SugaredLogger) hardware.Driver {
	if cfg.MockHardware {
		log.Info("using simulated locker hardware")
		return hardware.NewSimDriver(3 * time.Second)
	}
	log.Infow("using serial locker hardware", "port", cfg.SerialPort, "baud_rate", cfg.BaudRate)
	return hardware.NewSerialDriver(cfg.SerialPort, cfg.BaudRate)
}

func openProducer(cfg *config.Config, log *zap.SugaredLogger) kafka.Producer {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("KAFKA_BROKERS not set, transactions go to the console producer")
		return kafka.NewConsoleProducer()
	}
	return kafka.NewWriterProducer(cfg.KafkaBrokers)
}

func provisionedLockers(cfg *config.Config) []storage.Locker {
	devices := cfg.Devices()
	now := time.Now().UTC()

	lockers := make([]storage.Locker, 0, len(devices))
	for _, d := range devices {
		lockers = append(lockers, storage.Locker{
			ID:         d.LockerID,
			DoorClosed: true,
			Reserved:   d.Reserved,
			DeviceType: config.DeviceType,
			RelayPin:   d.RelayPin,
			SensorPin:  d.SensorPin,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return lockers
}

func seedOccupancyGauge(ctx context.Context, stg registry) error {
	lockers, err := stg.ListLockers(ctx)
	if err != nil {
		return err
	}
	occupied := 0
	for _, l := range lockers {
		if l.Occupied {
			occupied++
		}
	}
	metrics.OccupiedLockers.Set(float64(occupied))
	return nil
}
