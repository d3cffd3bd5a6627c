package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"ledgerworld/internal/api"
	agentapp "ledgerworld/internal/app/agent"
	authapp "ledgerworld/internal/app/auth"
	briefingapp "ledgerworld/internal/app/briefing"
	dialogueapp "ledgerworld/internal/app/dialogue"
	economyapp "ledgerworld/internal/app/economy"
	worldapp "ledgerworld/internal/app/world"
	"ledgerworld/internal/platform/cache"
	"ledgerworld/internal/platform/chain"
	"ledgerworld/internal/platform/config"
	"ledgerworld/internal/platform/db"
	"ledgerworld/internal/platform/migrate"
	"ledgerworld/internal/platform/mq"
	"ledgerworld/internal/platform/observability"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := observability.NewLogger(cfg.Env)

	pg, err := db.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pg.Close()

	if err := migrate.Up(ctx, pg, cfg.MigrationDir); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	var redisClient *redis.Client
	redisClient, err = cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable; continuing without cache")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, err := mq.NewPublisher(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable; using noop publisher")
		publisher = mq.NewNoopPublisher()
	}
	defer publisher.Close()

	chainClient := chain.New(cfg.ChainGatewayURL, cfg.ChainTimeout)
	worldSvc := worldapp.NewService(logger, publisher, cfg.WorldWidth, cfg.WorldHeight)
	authSvc := authapp.NewService(pg, cfg.JWTSecret, cfg.JWTTTL)
	agentSvc := agentapp.NewService(pg, redisClient, cfg.AgentCacheTTL, publisher, chainClient, worldSvc)
	reconciler := economyapp.NewReconciler(logger, chainClient, worldSvc, publisher)
	dialogueClient := dialogueapp.NewClient(logger, cfg.DialogueAPIURL, cfg.DialogueAPIKey, cfg.DialogueModel)

	var chainReader briefingapp.ChainReader = chainClient
	if redisClient != nil {
		chainReader = economyapp.NewCachedLedgerReader(chainClient, redisClient, cfg.ResourceTTL)
	}

	synthesizer := briefingapp.New(briefingapp.Options{
		Logger:        logger,
		Agents:        agentSvc,
		World:         worldSvc,
		Chain:         chainReader,
		Generators:    reconciler,
		Players:       authSvc,
		MatchID:       cfg.MatchID,
		DefaultRadius: cfg.ContextRadius,
	})

	if err := agentSvc.RestorePresences(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to restore agent presences")
	}
	if cfg.MatchID != "" {
		if n, err := reconciler.SyncGeneratorsToWorld(ctx, cfg.MatchID); err != nil {
			logger.Warn().Err(err).Msg("initial generator sync failed")
		} else {
			logger.Info().Int("generators", n).Str("match_id", cfg.MatchID).Msg("generators synced")
		}
	}

	handler := api.NewHandler(logger, authSvc, agentSvc, worldSvc, reconciler, chainClient, synthesizer, dialogueClient, cfg.MatchID, cfg.CorsOrigin, cfg.MaxRequestBody)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
