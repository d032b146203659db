package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"busline/internal/app"
	"busline/internal/config"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("loading config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Str("level", cfg.LogLevel).Msg("parsing log level")
	}
	logger = logger.Level(level)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
	}

	var db *sqlx.DB
	if cfg.PostgresURL != "" {
		db, err = sqlx.Open("postgres", cfg.PostgresURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("opening database")
		}
		defer db.Close()
	}

	a, err := app.NewApp(app.Options{
		Config:      cfg,
		Logger:      logger,
		RedisClient: redisClient,
		DB:          db,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("building application")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("application stopped with error")
	}
}
