package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/bondly-app/backend/internal/config"
	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/infra/llm"
	s3infra "github.com/bondly-app/backend/internal/infra/s3"
	"github.com/bondly-app/backend/internal/jobs/cleanup"
	pgrepo "github.com/bondly-app/backend/internal/repo/postgres"
	redrepo "github.com/bondly-app/backend/internal/repo/redis"
	authsvc "github.com/bondly-app/backend/internal/services/auth"
	chatsvc "github.com/bondly-app/backend/internal/services/chats"
	matchessvc "github.com/bondly-app/backend/internal/services/matches"
	mediasvc "github.com/bondly-app/backend/internal/services/media"
	profilesvc "github.com/bondly-app/backend/internal/services/profiles"
	ratesvc "github.com/bondly-app/backend/internal/services/rate"
	realtimesvc "github.com/bondly-app/backend/internal/services/realtime"
	suggestsvc "github.com/bondly-app/backend/internal/services/suggest"
	swipesvc "github.com/bondly-app/backend/internal/services/swipes"
	vibechecksvc "github.com/bondly-app/backend/internal/services/vibecheck"
	"github.com/bondly-app/backend/internal/transport/http/handlers"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	scheduler  gocron.Scheduler
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("redis ping failed, continuing in degraded mode", zap.Error(err))
	}

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
		Region:    cfg.S3.Region,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	transactor := pgrepo.NewTransactor(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	profileRepo := pgrepo.NewProfileRepo(pool)
	mediaRepo := pgrepo.NewMediaRepo(pool)
	swipeRepo := pgrepo.NewSwipeRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	chatRepo := pgrepo.NewChatRepo(pool)
	messageRepo := pgrepo.NewMessageRepo(pool)
	vibeCheckRepo := pgrepo.NewVibeCheckRepo(pool)

	sessionRepo := redrepo.NewSessionRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)
	gameRepo := redrepo.NewGameRepo(redisClient, cfg.Remote.GameSession.TTL)
	eventsRepo := redrepo.NewEventsRepo(redisClient)

	mediaStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket, cfg.S3.PublicBaseURL)
	if s3Client != nil {
		if err := mediaStorage.EnsureBucket(ctx); err != nil {
			log.Warn("s3 bucket check failed", zap.Error(err))
		}
	}

	realtimeService := realtimesvc.NewService(eventsRepo, log.Named("realtime"))

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(authsvc.Dependencies{
		JWT:      jwtManager,
		Sessions: sessionRepo,
		Users:    userRepo,
		Photos:   mediaStorage,
		Logger:   log.Named("auth"),
	}, cfg.Auth.RefreshTTL)
	authService.OnSessionChanged(func(ctx context.Context, event authsvc.SessionEvent) {
		realtimeService.Notify(ctx, realtimesvc.Event{
			Type: realtimesvc.EventSessionChanged,
			Data: map[string]string{"kind": string(event.Kind), "sid": event.SID},
		}, event.UserID)
	})

	mediaService := mediasvc.NewService(mediaRepo, mediaStorage, mediasvc.Config{
		GalleryLimit: cfg.Remote.Media.GalleryLimit,
		MaxBytes:     cfg.Remote.Media.MaxBytes,
	}, log.Named("media"))
	profileService := profilesvc.NewService(profileRepo, mediaService)

	swipeLimiter := ratesvc.NewLimiter(rateRepo, "swipe",
		ratesvc.Window{Name: "minute", Limit: cfg.Remote.Limits.SwipesPerMinute, Window: time.Minute},
		ratesvc.Window{Name: "day", Limit: cfg.Remote.Limits.SwipesPerDay, Window: 24 * time.Hour},
	)
	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		Tx:          transactor,
		Swipes:      swipeRepo,
		Matches:     matchRepo,
		Chats:       chatRepo,
		Messages:    messageRepo,
		Profiles:    profileRepo,
		RateLimiter: swipeLimiter,
		Notifier:    realtimeService,
		Logger:      log.Named("swipes"),
	}, swipesvc.Config{
		DefaultVibe: enums.Vibe(cfg.Remote.DefaultVibe),
		OpeningLine: cfg.Remote.OpeningLine,
	})

	matchesService := matchessvc.NewService(matchessvc.Dependencies{
		Tx:       transactor,
		Matches:  matchRepo,
		Profiles: profileRepo,
		Sessions: gameRepo,
		Photos:   mediaStorage,
		Notifier: realtimeService,
		Logger:   log.Named("matches"),
	})

	vibeCheckService := vibechecksvc.NewService(vibechecksvc.Dependencies{
		Tx:       transactor,
		Answers:  vibeCheckRepo,
		Chats:    chatRepo,
		Messages: messageRepo,
		Notifier: realtimeService,
		Logger:   log.Named("vibecheck"),
	}, vibechecksvc.Config{
		Questions: cfg.Remote.VibeCheck.Questions,
	})

	chatService := chatsvc.NewService(chatsvc.Dependencies{
		Tx:       transactor,
		Chats:    chatRepo,
		Messages: messageRepo,
		Sessions: gameRepo,
		Gate:     vibeCheckService,
		Notifier: realtimeService,
		Logger:   log.Named("chats"),
	})

	llmClient := llm.New(llm.Config{
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		Timeout:   cfg.LLM.Timeout,
		MaxTokens: cfg.LLM.MaxTokens,
	})
	if !llmClient.Enabled() {
		log.Warn("llm api key is empty, suggestions will fail and deck prompts use built-in questions")
	}
	suggestLimiter := ratesvc.NewLimiter(rateRepo, "suggest",
		ratesvc.Window{Name: "minute", Limit: cfg.Remote.Limits.SuggestionsPerMinute, Window: time.Minute},
		ratesvc.Window{Name: "day", Limit: cfg.Remote.Limits.SuggestionsPerDay, Window: 24 * time.Hour},
	)
	suggestService := suggestsvc.NewService(suggestsvc.Dependencies{
		Generator: llmClient,
		Limiter:   suggestLimiter,
		Logger:    log.Named("suggest"),
	}, suggestsvc.Config{
		Templates: suggestsvc.Templates{
			GenerateQuestion: cfg.LLM.Templates.GenerateQuestion,
			FollowupPrompt:   cfg.LLM.Templates.FollowupPrompt,
		},
	})

	RegisterRoutes(r, Dependencies{
		AuthService:      authService,
		ProfileService:   profileService,
		MediaService:     mediaService,
		SwipeService:     swipeService,
		MatchService:     matchesService,
		ChatService:      chatService,
		VibeCheckService: vibeCheckService,
		SuggestService:   suggestService,
		RealtimeService:  realtimeService,
		HealthChecks:     healthChecks(pool, redisClient),
		Logger:           log,
		Config:           cfg,
	})

	scheduler, err := newScheduler(cfg.Jobs, cleanup.New(mediaRepo, mediaStorage, log.Named("cleanup")), log)
	if err != nil {
		return nil, err
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler(r)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		scheduler:  scheduler,
		httpRouter: handler,
	}, nil
}

type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func healthChecks(pool *pgxpool.Pool, redisClient *goredis.Client) map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{
		"postgres": nil,
		"redis":    redisPinger{client: redisClient},
	}
	if pool != nil {
		checks["postgres"] = pool
	}
	return checks
}

// newScheduler runs the media cleanup job on the configured interval. A non-positive interval disables it.
func newScheduler(cfg config.JobsConfig, job *cleanup.Job, log *zap.Logger) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	if cfg.CleanupInterval <= 0 {
		return scheduler, nil
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.CleanupInterval),
		gocron.NewTask(func(ctx context.Context) {
			if err := job.Run(ctx); err != nil {
				log.Warn("media cleanup failed", zap.Error(err))
			}
		}),
		gocron.WithName("media-cleanup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule media cleanup: %w", err)
	}
	return scheduler, nil
}

func (a *App) Run() error {
	a.scheduler.Start()
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if err := a.scheduler.Shutdown(); err != nil && shutdownErr == nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
