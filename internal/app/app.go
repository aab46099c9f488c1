package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/auth"
	"github.com/RubachokBoss/quizspark/internal/cache"
	"github.com/RubachokBoss/quizspark/internal/config"
	"github.com/RubachokBoss/quizspark/internal/delivery/httpd"
	"github.com/RubachokBoss/quizspark/internal/middleware"
	"github.com/RubachokBoss/quizspark/internal/repository"
	"github.com/RubachokBoss/quizspark/internal/service"
	"github.com/RubachokBoss/quizspark/internal/service/integration"
)

type App struct {
	server    *http.Server
	logger    zerolog.Logger
	config    *config.Config
	db        *sql.DB
	redis     *redis.Client
	publisher integration.EventPublisher
}

// repositories собирает слой хранения, общий для API и воркера.
type repositories struct {
	tx            repository.Transactor
	postgres      *repository.PostgresRepository
	accounts      repository.AccountRepository
	quizzes       repository.QuizRepository
	attempts      repository.AttemptRepository
	subscriptions repository.SubscriptionRepository
	retests       repository.RetestRepository
	results       repository.ResultRepository
}

func newRepositories(db *sql.DB, log zerolog.Logger) repositories {
	return repositories{
		tx:            repository.NewTransactor(db, log),
		postgres:      repository.NewPostgresRepository(db, log),
		accounts:      repository.NewAccountRepository(db, log),
		quizzes:       repository.NewQuizRepository(db, log),
		attempts:      repository.NewAttemptRepository(db, log),
		subscriptions: repository.NewSubscriptionRepository(db, log),
		retests:       repository.NewRetestRepository(db, log),
		results:       repository.NewResultRepository(db, log),
	}
}

func newExportService(cfg *config.Config, repos repositories, log zerolog.Logger) (service.ExportService, error) {
	storage, err := repository.NewMinIORepository(cfg.MinIO, log)
	if err != nil {
		return nil, err
	}
	return service.NewExportService(repos.quizzes, repos.results, storage, cfg.MinIO.PresignExpiry, log), nil
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	publisher, err := integration.NewRabbitMQClient(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.RoutingKey,
		cfg.RabbitMQ.QueueName,
		log,
	)
	if err != nil {
		// Без брокера API работает, выгрузки просто не обновляются фоном.
		log.Warn().Err(err).Msg("RabbitMQ unavailable, domain events will be dropped")
		publisher = integration.NewNopPublisher(log)
	}

	repos := newRepositories(db, log)

	hasher := auth.NewArgon2Hasher(auth.DefaultPasswordParams)
	tokens := auth.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	authenticator := auth.NewAuthenticator(tokens, auth.NewRedisSessionStore(redisClient))

	quizCache := cache.NewQuizCache(redisClient, repos.quizzes, cfg.Cache.QuizTTL, log)

	exporter, err := newExportService(cfg, repos, log)
	if err != nil {
		publisher.Close()
		redisClient.Close()
		return nil, err
	}

	accountService, err := service.NewAccountService(repos.accounts, hasher, authenticator, log)
	if err != nil {
		publisher.Close()
		redisClient.Close()
		return nil, err
	}

	services := httpd.Services{
		Accounts:      accountService,
		Quizzes:       service.NewQuizService(repos.quizzes, quizCache, publisher, log),
		Attempts:      service.NewAttemptService(repos.tx, repos.quizzes, repos.attempts, quizCache, publisher, log),
		Subscriptions: service.NewSubscriptionService(repos.subscriptions, repos.accounts, log),
		Retests: service.NewRetestService(
			repos.tx,
			repos.retests,
			repos.attempts,
			repos.quizzes,
			repos.accounts,
			hasher,
			publisher,
			log,
		),
		Results: service.NewResultService(repos.quizzes, repos.results, exporter, log),
	}

	handler := httpd.NewHandler(services, authenticator, map[string]httpd.Pinger{
		"postgres": repos.postgres,
		"redis":    authenticator,
	}, log)

	router := chi.NewRouter()

	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.StructuredLogger(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Metrics)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
		handler.RegisterRoutes(r)
	})

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:    server,
		logger:    log,
		config:    cfg,
		db:        db,
		redis:     redisClient,
		publisher: publisher,
	}, nil
}

// Run блокируется до остановки сервера; штатный Shutdown не считается ошибкой.
func (a *App) Run() error {
	a.logger.Info().Str("address", a.server.Addr).Msg("Starting quizspark API")
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down quizspark API...")

	// Сначала дожидаемся активных запросов, потом закрываем зависимости.
	err := a.server.Shutdown(ctx)

	if err := a.publisher.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close Redis connection")
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return err
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return 10 * time.Second
}

func (a *App) ShutdownTimeout() time.Duration {
	return shutdownTimeout(a.config)
}
