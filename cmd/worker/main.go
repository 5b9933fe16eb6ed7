package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/dramatis/internal/queue"
	"github.com/OFFIS-RIT/dramatis/internal/server"
	"github.com/OFFIS-RIT/dramatis/internal/storage"
	"github.com/OFFIS-RIT/dramatis/internal/util"
	"github.com/OFFIS-RIT/dramatis/pkg/catalog"
	"github.com/OFFIS-RIT/dramatis/pkg/leaselock"
	"github.com/OFFIS-RIT/dramatis/pkg/logger"
	"github.com/OFFIS-RIT/dramatis/pkg/logger/console"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  util.GetEnvBool("DEBUG", false),
		JSON:   util.GetEnv("LOG_FORMAT") == "json",
		Prefix: "worker",
	})
	logger.Init(consoleLogger)

	// graph store, read only from here
	graphCfg := storage.GraphConfigFromEnv()
	graphCfg.Migrate = false
	gs, err := storage.OpenGraph(ctx, graphCfg)
	if err != nil {
		logger.Fatal("Failed to open graph store", "err", err)
	}
	defer gs.Close()
	svc := catalog.New(gs, server.CatalogOptionsFromEnv()...)

	// s3
	s3Cfg := storage.S3ConfigFromEnv()
	client, err := storage.NewS3Client(ctx, s3Cfg)
	if err != nil {
		logger.Fatal("Failed to create S3 client", "err", err)
	}
	snapshots := storage.NewSnapshots(client, s3Cfg.Bucket)

	// rabbitmq
	conn, err := queue.Init(ctx, queue.ConfigFromEnv())
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}
	ch.Close()

	opts := []queue.ProjectionWorkerOption{
		queue.WithStoreRetries(
			util.GetEnvNumeric("SNAPSHOT_RETRIES", 3),
			util.ExponentialBackoff(util.GetEnvDuration("SNAPSHOT_BACKOFF", 200*time.Millisecond), util.GetEnvDuration("SNAPSHOT_BACKOFF_MAX", 2*time.Second)),
		),
	}

	// leases, only with a shared database
	if graphCfg.Backend == storage.BackendPgx {
		pool, err := pgxpool.New(ctx, graphCfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", "err", err)
		}
		defer pool.Close()
		hostname, _ := os.Hostname()
		opts = append(opts, queue.WithLocker(leaselock.New(pool, leaselock.Options{
			TTL:          util.GetEnvDuration("LEASE_TTL", time.Minute),
			Wait:         true,
			WaitInterval: 250 * time.Millisecond,
			WaitJitter:   250 * time.Millisecond,
			Holder:       hostname + "-",
		})))
	}

	worker := queue.NewProjectionWorker(svc, snapshots, opts...)

	concurrency := util.GetEnvNumeric("WORKER_CONCURRENCY", 4)
	logger.Info("[Worker] Listening for change events", "queue", queue.ProjectionQueue, "concurrency", concurrency)
	if err := queue.Consume(ctx, conn, queue.ProjectionQueue, concurrency, worker.Handle); err != nil {
		logger.Fatal("[Worker] Consumer stopped", "err", err)
	}
	logger.Info("Shutdown signal received, exiting...")
}
