package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ingestion-service/internal/api"
	"ingestion-service/internal/config"
	"ingestion-service/internal/db"
	"ingestion-service/internal/feed"
	"ingestion-service/internal/ingest"
	"ingestion-service/internal/kafka"
	"ingestion-service/internal/logging"
	"ingestion-service/internal/onboarding"
	"ingestion-service/internal/providers"
	"ingestion-service/internal/slack"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbConn, err := db.New(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		log.Fatalf("Database connection failed: %v", err)
	}
	defer dbConn.Close()

	// Connect to Slack. A failed auth check is fatal: nothing downstream
	// can run without a valid bot identity.
	slackClient, err := slack.New(ctx, cfg.Slack.BotToken, cfg.Slack.AppToken, cfg.Ingest.HistoryPageSize)
	if err != nil {
		logger.Errorf("Slack authentication failed: %v", err)
		log.Fatalf("Slack authentication failed: %v", err)
	}
	logger.Infof("Authenticated to Slack as bot user %s", slackClient.BotUserID())

	hub := feed.NewHub(logger)

	var publisher ingest.Publisher
	if cfg.Kafka.Broker != "" {
		kafkaPublisher := kafka.NewPublisher(cfg.Kafka.Broker, cfg.Kafka.Topic, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Infof("Kafka publisher initialized with topic: %s", cfg.Kafka.Topic)
	}

	var notifier ingest.AlertNotifier
	if cfg.Telegram.BotToken != "" {
		notifier = providers.NewTelegramForwarder(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.RatePerSecond, logger)
		logger.Infof("Telegram alert forwarding enabled for chat %d", cfg.Telegram.ChatID)
	}

	recorder := ingest.NewRecorder(dbConn, logger, publisher, notifier, hub)

	// Historical path: checkpointed channel polling
	poller := ingest.NewPoller(dbConn, dbConn, slackClient, recorder, logger, cfg.Ingest.PollInterval, cfg.Ingest.ErrorBackoff)

	// Live path: socket mode events through the same recorder
	sessions := onboarding.NewSessionStore()
	machine := onboarding.NewMachine(sessions, dbConn, slackClient, logger)
	processor := ingest.NewEventProcessor(dbConn, machine, recorder, slackClient, slackClient.BotUserID(), logger)
	listener := slack.NewListener(slackClient, processor, logger, cfg.Ingest.ReconnectBackoff)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		listener.Run(ctx)
	}()

	// Start API server
	router := api.NewRouter(dbConn, logger, cfg, hub)
	go func() {
		logger.Infof("Starting API server on %s", cfg.API.Port)
		if err := router.Run(cfg.API.Port); err != nil {
			logger.Errorf("API server failed: %v", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	logger.Infof("Received signal %s, shutting down", sig)
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Infof("Ingestion loops stopped")
	case <-time.After(shutdownTimeout):
		logger.Errorf("Shutdown timed out after %v, exiting anyway", shutdownTimeout)
	}
}
