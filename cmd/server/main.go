package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	amqpnotifier "budgetpulse/internal/adapter/notifier/amqp"
	"budgetpulse/internal/adapter/repository/memory"
	"budgetpulse/internal/adapter/repository/postgres"
	"budgetpulse/internal/adapter/repository/sqlite"
	"budgetpulse/internal/backup"
	"budgetpulse/internal/config"
	"budgetpulse/internal/domain"
	"budgetpulse/internal/log"
	"budgetpulse/internal/notify"
	"budgetpulse/internal/scheduler"
	"budgetpulse/internal/usecase/intelligence"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := log.New(log.Config{Level: logLevel(cfg.LogLevel)})
	logger.Info("starting budgetpulse", log.FieldBackend, cfg.StorageBackend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	txRepo, budgetRepo, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", log.FieldError, err)
		os.Exit(1)
	}
	defer closeStorage()

	notifier, closeNotifier := buildNotifier(cfg, logger)
	defer closeNotifier()

	svc := intelligence.NewService(txRepo, budgetRepo, notifier, logger)

	if cfg.BackupPath != "" {
		if _, err := os.Stat(cfg.BackupPath); err == nil {
			backupSvc := backup.NewService(txRepo, budgetRepo, logger)
			if err := backupSvc.ImportFromFile(ctx, cfg.BackupPath); err != nil {
				logger.Warn("backup import failed", log.FieldError, err)
			}
		}
	}

	sched, err := scheduler.New(svc, cfg.AnalysisCron, cfg.WeeklySummaryCron, logger)
	if err != nil {
		logger.Error("failed to build scheduler", log.FieldError, err)
		os.Exit(1)
	}

	sched.Start()
	defer sched.Stop()

	if cfg.RunOnStart {
		sched.RunNow()
	}

	<-ctx.Done()
	logger.Info("shutting down")
}

func openStorage(ctx context.Context, cfg *config.Config, logger *log.Logger) (domain.TransactionRepository, domain.BudgetRepository, func(), error) {
	storageLogger := logger.WithComponent(log.ComponentStorage)
	switch cfg.StorageBackend {
	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		storageLogger.Info("storage ready", log.FieldBackend, "sqlite", "path", cfg.SQLitePath)
		return db.Transactions(), db.Budgets(), closer(db.Close, storageLogger), nil
	case "postgres":
		db, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, nil, err
		}
		storageLogger.Info("storage ready", log.FieldBackend, "postgres")
		return db.Transactions(), db.Budgets(), closer(db.Close, storageLogger), nil
	}
	storageLogger.Info("storage ready", log.FieldBackend, "memory")
	return memory.NewTransactionStore(), memory.NewBudgetStore(), func() {}, nil
}

func buildNotifier(cfg *config.Config, logger *log.Logger) (notify.Notifier, func()) {
	if cfg.AMQPURL == "" {
		logger.Info("no AMQP broker configured, notifications go to the log")
		return notify.NewLogNotifier(logger), func() {}
	}
	publisher, err := amqpnotifier.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("AMQP connection failed, notifications go to the log", log.FieldError, err)
		return notify.NewLogNotifier(logger), func() {}
	}
	return publisher, closer(publisher.Close, logger)
}

func closer(fn func() error, logger *log.Logger) func() {
	return func() {
		if err := fn(); err != nil {
			logger.Warn("close failed", log.FieldError, err)
		}
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
