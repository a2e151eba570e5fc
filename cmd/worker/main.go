package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ringmast4r/project147/internal/data"
	"github.com/ringmast4r/project147/internal/queue"
	"github.com/ringmast4r/project147/internal/storage"
	"github.com/ringmast4r/project147/internal/store"
	"github.com/ringmast4r/project147/internal/util"
	"github.com/ringmast4r/project147/pkg/chart"
	"github.com/ringmast4r/project147/pkg/leaselock"
	"github.com/ringmast4r/project147/pkg/logger"
	"github.com/ringmast4r/project147/pkg/logger/console"
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

	// Init s3 client
	s3, err := storage.NewClient(ctx, storage.ClientParamsFromEnv())
	if err != nil {
		logger.Fatal("Could not create S3 client", "err", err)
	}

	// Dataset, theographic data and cross-reference stats used by the charts
	src, err := data.Open(ctx, data.ConfigFromEnv())
	if err != nil {
		logger.Fatal("Could not open data source", "err", err)
	}
	if err := src.Provider.Start(ctx); err != nil {
		logger.Fatal("Could not load dataset", "err", err)
	}
	src.Provider.Wait()
	if err := src.Theographic.Load(ctx); err != nil {
		logger.Warn("Theographic data not available, theographic exports will fail", "err", err)
	}
	src.LoadTexts(ctx)

	// Init pgx client
	dbURL := util.GetEnv("DATABASE_URL")
	if err := store.Migrate(dbURL); err != nil {
		logger.Fatal("Unable to migrate database", "err", err)
	}
	pgConn, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()
	exports := store.New(pgConn)

	// Init rabbitmq
	conn := queue.Init(ctx)
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	queues := []string{queue.ExportQueue}
	if err := queue.SetupQueues(ch, queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// Follow dataset reloads triggered on the API
	err = queue.SubscribeTopic(ctx, ch, queue.ReloadTopic, func(string, []byte) {
		if err := src.Reload(ctx); err != nil {
			logger.Error("Failed to reload dataset", "err", err)
		}
	})
	if err != nil {
		logger.Error("Failed to subscribe to reloads", "err", err)
	}

	// Only one worker requeues stale exports at a time
	leases, err := leaselock.New(pgConn)
	if err != nil {
		logger.Fatal("Could not create lease client", "err", err)
	}
	staleAfter := util.GetEnvDuration("EXPORT_STALE_AFTER", 15*time.Minute)
	recoverStale := func() {
		err := leases.Run(ctx, "export-recovery", leaselock.DefaultTTL, func(ctx context.Context) error {
			return queue.RecoverStaleExports(ctx, ch, exports, staleAfter)
		})
		switch {
		case errors.Is(err, leaselock.ErrBusy):
			logger.Debug("Stale export recovery running elsewhere")
		case err != nil:
			logger.Error("Failed to recover stale exports", "err", err)
		}
	}
	recoverStale()

	processor := &queue.ExportProcessor{
		Store:    exports,
		Uploader: s3,
		Events:   ch,
		Deps: func(context.Context) (chart.Deps, string, error) {
			s := src.Provider.Snapshot()
			return chart.Deps{Graph: s.Graph, Theographic: src.Theographic, CrossRefs: src.CrossRefStats()}, s.Version, nil
		},
	}

	// Create a single consumer channel with prefetch=1
	// This ensures only ONE message is delivered at a time across all queues
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	type queuedMessage struct {
		msg       amqp.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)

	for _, queueName := range queues {
		msgs, err := consumerCh.Consume(
			queueName,
			queueName+"_consumer",
			false, // autoAck
			false, // exclusive
			false, // noLocal
			false, // noWait
			nil,   // args
		)
		if err != nil {
			logger.Fatal("Failed to start consuming", "queue", queueName, "err", err)
		}

		go func(qName string) {
			for {
				select {
				case <-ctx.Done():
					logger.Info("Stopping consumer", "queue", qName)
					return
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed", "queue", qName)
						stop()
						return
					}
					messageChan <- queuedMessage{msg: msg, queueName: qName}
				}
			}
		}(queueName)
	}

	// Periodically requeue exports whose worker died mid-way
	go func() {
		ticker := time.NewTicker(staleAfter)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				recoverStale()
			}
		}
	}()

	logger.Info("Listening for messages")

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case qm := <-messageChan:
				startTime := time.Now()
				logger.Info("Received message", "queue", qm.queueName)

				var processingErr error
				switch qm.queueName {
				case queue.ExportQueue:
					processingErr = processor.Process(ctx, qm.msg.Body)
				}

				// If there was an error send to retry or dead-letter, otherwise ack the message
				if processingErr != nil {
					logger.Error("Error processing message", "queue", qm.queueName, "err", processingErr)
					queue.HandleProcessingError(consumerCh, qm.msg, qm.queueName)
				} else {
					if err := qm.msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", qm.queueName)
				}

				logger.Info("Processing time", "duration", util.FormatDuration(time.Since(startTime)))
				logger.Info("Waiting for next message")
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}
