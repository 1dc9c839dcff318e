package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pborgesjr/chat-message-node/internal/config"
	blobadapter "github.com/pborgesjr/chat-message-node/internal/infrastructure/blob/adapter"
	blobport "github.com/pborgesjr/chat-message-node/internal/infrastructure/blob/port"
	"github.com/pborgesjr/chat-message-node/internal/infrastructure/database"
	queueadapter "github.com/pborgesjr/chat-message-node/internal/infrastructure/queue/adapter"
	qport "github.com/pborgesjr/chat-message-node/internal/infrastructure/queue/port"
	"github.com/pborgesjr/chat-message-node/internal/infrastructure/realtime"
	"github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/task"
	"github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/usecase"
	repoadapter "github.com/pborgesjr/chat-message-node/internal/pkg/chat/persistence/repository/adapter"
	httpHandler "github.com/pborgesjr/chat-message-node/internal/pkg/chat/presentation/http"
)

func main() {
	cfg := config.Load()

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pool, err := database.Connect(connectCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := repoadapter.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}
	logger.Info().Msg("connected to PostgreSQL")

	repo := repoadapter.NewPgConversationRepository(pool)
	roomRouter := realtime.NewRouter()
	defer roomRouter.Close()

	// Redis is optional: without it the relay runs single-node and appends
	// history in-process instead of through the queue.
	var queueClient qport.Client
	var peers usecase.PeerPublisher
	if cfg.RedisURL != "" {
		bridge, err := realtime.NewBridge(cfg.RedisURL, roomRouter, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis bridge failed")
		}
		defer bridge.Close()
		peers = bridge
		go func() {
			if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("bridge stopped")
			}
		}()

		queueClient, err = queueadapter.NewAsynqClient(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("asynq client failed")
		}
		defer queueClient.Close()

		queueServer, err := queueadapter.NewAsynqServer(cfg.RedisURL, 0)
		if err != nil {
			logger.Fatal().Err(err).Msg("asynq server failed")
		}
		task.RegisterAppendMessageTask(queueServer, repo)
		go func() {
			if err := queueServer.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("queue server stopped")
			}
		}()
		logger.Info().Msg("connected to Redis")
	}

	var blob blobport.Uploader
	if cfg.S3Bucket != "" {
		blob, err = blobadapter.NewS3Uploader(ctx, blobadapter.S3Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("s3 uploader failed")
		}
	} else {
		blob, err = blobadapter.NewLocalUploader(cfg.UploadDir, cfg.UploadBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("local uploader failed")
		}
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	httpHandler.RegisterRoutes(r, repo, roomRouter, queueClient, peers, blob, logger)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.S3Bucket == "" {
		r.Static("/uploads", cfg.UploadDir)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}
