package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-storefront/internal/audit"
	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/ariefcatur/go-storefront/internal/events"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/logx"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := run(config.Load()); err != nil {
		log.Fatalf("audit: %v", err)
	}
}

func run(cfg config.Config) error {
	name := cfg.ServiceName + "-audit"
	logger := logx.New(os.Stderr, name, cfg.LogLevel)

	if len(cfg.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, 0)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		return err
	}

	repo := &audit.Repo{DB: db}
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	svc := &audit.Service{Repo: repo, Redis: rdb, ServiceName: name, Logger: logger}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.AuditGroup, events.Topics, cfg.AuditWorkers, logger)
	logger.Info("audit consumer started", "group", cfg.AuditGroup, "topics", events.Topics, "workers", cfg.AuditWorkers)
	if err := cons.Start(ctx, svc.HandleMessage); err != nil {
		return fmt.Errorf("consumer: %w", err)
	}
	logger.Info("audit consumer stopped")
	return nil
}
