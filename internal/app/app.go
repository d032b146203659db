package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	_ "github.com/lib/pq"

	"busline/internal/application/services"
	"busline/internal/auth"
	"busline/internal/broadcast"
	"busline/internal/config"
	"busline/internal/interfaces/events"
	"busline/internal/interfaces/http"
	"busline/internal/observability"
	"busline/internal/repository"
)

type App struct {
	logger zerolog.Logger
	router *message.Router
	srv    *http.Server
	db     *sqlx.DB
	store  repository.Store
}

type Options struct {
	Config      config.Config
	Logger      zerolog.Logger
	RedisClient *redis.Client
	DB          *sqlx.DB
}

func NewApp(opts Options) (*App, error) {
	logger := opts.Logger
	watermillLogger := observability.NewWatermillLogger(logger)

	var store repository.Store
	if opts.DB != nil {
		store = repository.NewPostgresStore(opts.DB)
	} else {
		store = repository.NewMemoryStore()
	}

	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("creating router: %w", err)
	}

	publisher, newSubscriber, err := newPubSub(opts.RedisClient, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("creating pub/sub: %w", err)
	}

	eventBus, err := events.NewEventBus(publisher, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("creating event bus: %w", err)
	}

	hub := broadcast.NewHub(logger)
	tokens := auth.NewTokenManager(opts.Config.JWTSecret, opts.Config.TokenTTL)

	userService := services.NewUserService(store)
	fleetService := services.NewFleetService(store)
	tripsService := services.NewTripsService(store)
	bookingService := services.NewBookingService(store, eventBus, logger)
	trackingService := services.NewTrackingService(store, eventBus, logger)
	reviewService := services.NewReviewService(store)

	srv := http.NewServer(http.ServerConfig{
		Addr:              opts.Config.Addr,
		Logger:            logger,
		Users:             userService,
		Fleet:             fleetService,
		Trips:             tripsService,
		Bookings:          bookingService,
		Tracking:          trackingService,
		Reviews:           reviewService,
		Hub:               hub,
		Tokens:            tokens,
		StreamIdleTimeout: opts.Config.StreamIdleTimeout,
		RouterIsRunning:   router.IsRunning,
	})

	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(events.CorrelationIDMiddleware(logger))
	router.AddMiddleware(events.LoggingMiddleware)
	router.AddMiddleware(middleware.Retry{
		MaxRetries:      10,
		InitialInterval: time.Millisecond * 100,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          watermillLogger,
	}.Middleware)

	processor, err := events.NewEventProcessor(router, newSubscriber, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("creating event processor: %w", err)
	}

	err = processor.AddHandlers(
		events.LocationBroadcastHandler(hub),
		events.NewBookingNotifyHandler(hub),
	)
	if err != nil {
		return nil, fmt.Errorf("registering event handlers: %w", err)
	}

	return &App{
		logger: logger,
		router: router,
		srv:    srv,
		db:     opts.DB,
		store:  store,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	if a.db != nil {
		if err := repository.InitializeSchema(ctx, a.db); err != nil {
			return fmt.Errorf("initializing schema: %w", err)
		}
	}

	if mem, ok := a.store.(*repository.MemoryStore); ok {
		if err := mem.SeedDefaultRoutes(ctx); err != nil {
			return fmt.Errorf("seeding routes: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Msg("starting router")
		return a.router.Run(ctx)
	})

	g.Go(func() error {
		<-a.router.Running()
		a.logger.Info().Msg("router is running")

		a.logger.Info().Msg("starting server")
		return a.srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := a.srv.Stop(shutdownCtx)
		if err != nil {
			a.logger.Err(err).Msg("error stopping server")
		}
		return err
	})

	return g.Wait()
}
