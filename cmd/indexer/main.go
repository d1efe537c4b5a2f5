package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ipif/internal/db"
	"ipif/internal/queue"
	"ipif/internal/util"
	"ipif/pkg/graph"
	"ipif/pkg/index"
	"ipif/pkg/leaselock"
	"ipif/pkg/logger"
	"ipif/pkg/logger/console"
	"ipif/pkg/solr"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"

	_ "github.com/lib/pq"
)

func main() {
	runNow := flag.Bool("now", false, "run one full rebuild immediately and exit")
	enqueue := flag.Bool("enqueue", false, "queue a rebuild job and exit")
	flag.Parse()

	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if util.GetEnvBool("MIGRATE_ON_START", false) {
		if err := db.Migrate(util.GetEnv("DATABASE_URL")); err != nil {
			logger.Fatal("Failed to run migrations", "err", err)
		}
	}

	pgConn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()
	reader := graph.NewPGXReader(pgConn)

	search, err := solr.NewClient(solr.NewClientParams{
		BaseURL: util.GetEnv("SOLR_URL"),
	})
	if err != nil {
		logger.Fatal("Failed to create index client", "err", err)
	}

	opts := index.RebuildOpts{
		Workers:        int(util.GetEnvNumeric("REBUILD_WORKERS", 4)),
		ChunkSize:      int(util.GetEnvNumeric("MAX_CHUNK_SIZE", 5000)),
		CommitPerChunk: util.GetEnvBool("SOLR_COMMIT_PER_CHUNK", false),
		MaxRetries:     3,
	}

	// Only one rebuild may run at a time across all indexer replicas.
	locks := leaselock.New(pgConn)
	rebuild := func(ctx context.Context) (index.RebuildStats, error) {
		var stats index.RebuildStats
		err := locks.WithLease(ctx, "index_rebuild", leaselock.Options{TTL: 10 * time.Minute}, func(ctx context.Context) error {
			var err error
			stats, err = index.Rebuild(ctx, reader, search, opts)
			return err
		})
		return stats, err
	}

	if *runNow {
		if _, err := rebuild(ctx); err != nil {
			logger.Fatal("Rebuild failed", "err", err)
		}
		return
	}

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.RebuildQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	if *enqueue {
		jobID, err := queue.PublishRebuild(ch, "manual")
		if err != nil {
			logger.Fatal("Failed to enqueue rebuild", "err", err)
		}
		logger.Info("Queued rebuild", "job_id", jobID)
		return
	}

	// Consume with prefetch=1 so only one rebuild runs at a time
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.RebuildQueue,
		"rebuild_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "err", err)
	}

	logger.Info("Listening for rebuild jobs")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed")
				return
			}

			startTime := time.Now()
			var job queue.RebuildMsg
			if err := json.Unmarshal(msg.Body, &job); err != nil {
				logger.Error("Discarding unreadable message", "err", err)
				msg.Ack(false)
				continue
			}
			logger.Info("Received rebuild job", "job_id", job.JobID, "reason", job.Reason)

			stats, err := rebuild(ctx)
			if err != nil {
				logger.Error("Error processing rebuild", "job_id", job.JobID, "err", err)
				handleProcessingError(consumerCh, msg, queue.RebuildQueue)
			} else {
				if err := msg.Ack(false); err != nil {
					logger.Error("Failed to ack message", "err", err)
				}

				duration := time.Since(startTime)
				hours := int(duration.Hours())
				minutes := int(duration.Minutes()) % 60
				seconds := int(duration.Seconds()) % 60
				logger.Info(
					"Rebuild job finished",
					"job_id", job.JobID,
					"persons", stats.Persons,
					"documents", stats.Documents,
					"skipped", stats.Skipped,
					"duration", fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds),
				)
			}
			logger.Info("Waiting for next message")
		}
	}
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	// If message has been retried 10 times, send to dead-letter
	if retries >= 10 {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = retries + 1

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
