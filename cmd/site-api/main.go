package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/kodkids/site-api/api/swagger"
	"github.com/kodkids/site-api/internal/handler"
	"github.com/kodkids/site-api/internal/repository"
	"github.com/kodkids/site-api/internal/router"
	"github.com/kodkids/site-api/internal/service"
	"github.com/kodkids/site-api/pkg/cache"
	"github.com/kodkids/site-api/pkg/config"
	"github.com/kodkids/site-api/pkg/database"
	"github.com/kodkids/site-api/pkg/logger"
	"github.com/kodkids/site-api/pkg/mailer"
	"github.com/kodkids/site-api/pkg/payment"
	"github.com/kodkids/site-api/pkg/storage"
	"github.com/kodkids/site-api/pkg/validation"
)

// @title KodKids Site API
// @version 1.0.0
// @description Course catalog, registration, learning and checkout backend for the KodKids website.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	validator := validation.New(cfg.Localization.DefaultLocale)

	var (
		cacheRepo service.CacheRepository
		broker    service.ChatBroker
	)
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		broker = repository.NewRedisChatBroker(redisClient, logr)
	} else {
		logr.Info("redis disabled, using in-process cache and chat broker")
		cacheRepo = repository.NewMemoryCacheRepository(cfg.Catalog.CacheTTL)
		broker = repository.NewLocalChatBroker(logr)
	}
	cacheService := service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled)

	sender, err := newSender(cfg.Mail, logr)
	if err != nil {
		return err
	}
	notifications := service.NewNotificationService(sender, service.NotificationConfig{
		AdminAddress: cfg.Mail.AdminAddress,
		Workers:      cfg.Notify.Workers,
		MaxRetries:   cfg.Notify.Retries,
		RetryDelay:   2 * time.Second,
	}, metrics, logr)
	notifications.Start(context.Background())
	defer notifications.Stop()

	courseRepo := repository.NewCourseRepository(db)
	courses := service.NewCourseService(courseRepo, repository.NewScheduleRepository(db), repository.NewPeriodRepository(db), cacheService, validator, logr)
	registrations := service.NewRegistrationService(repository.NewRegistrationRepository(db), courses, notifications, validator, metrics, logr)
	lessons := service.NewLessonService(repository.NewLessonRepository(db), courseRepo, validator, logr)
	forum := service.NewForumService(repository.NewForumRepository(db), lessons, validator, logr)
	siteContent := service.NewSiteContentService(repository.NewSiteContentRepository(db), cacheService, validator, logr)
	chat := service.NewChatService(repository.NewChatRepository(db), broker, siteContent, cfg.Chat.HistoryLimit, validator, metrics, logr)
	contact := service.NewContactService(repository.NewContactRepository(db), notifications, validator, logr)
	auth := service.NewAuthService(repository.NewUserRepository(db), validator, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	gateway := payment.NewMidtransGateway(cfg.Payments.MidtransServerKey, cfg.Payments.Production)
	checkout := service.NewCheckoutService(repository.NewOrderRepository(db), courses, gateway, cfg.Payments.FinishURL, validator, metrics, logr)

	files, err := storage.NewLocalStorage(cfg.Storage.Dir)
	if err != nil {
		return err
	}
	materials := service.NewMaterialService(
		repository.NewMaterialRepository(db),
		lessons,
		files,
		storage.NewSignedURLSigner(cfg.Storage.SigningSecret, cfg.Storage.LinkTTL),
		validator,
		logr,
		service.MaterialConfig{MaxFileSize: cfg.Storage.MaxUploadBytes, APIPrefix: cfg.APIPrefix},
	)

	checks := map[string]handler.Pinger{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = redisPinger(redisClient)
	}

	engine := router.New(router.Options{
		APIPrefix:       cfg.APIPrefix,
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		EnableDocs:      cfg.Env != config.EnvProduction,
		PublicRateLimit: cfg.RateLimit.PublicPerMinute,
	}, router.Handlers{
		Courses:       handler.NewCourseHandler(courses),
		Registrations: handler.NewRegistrationHandler(registrations),
		Lessons:       handler.NewLessonHandler(lessons),
		Forum:         handler.NewForumHandler(forum),
		Chat:          handler.NewChatHandler(chat),
		Contact:       handler.NewContactHandler(contact),
		SiteContent:   handler.NewSiteContentHandler(siteContent),
		Auth:          handler.NewAuthHandler(auth),
		Checkout:      handler.NewCheckoutHandler(checkout),
		Materials:     handler.NewMaterialHandler(materials, cfg.Storage.MaxUploadBytes),
		Metrics:       handler.NewMetricsHandler(metrics.Handler(), checks),
	}, auth, metrics, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newSender(cfg config.MailConfig, logr *zap.Logger) (mailer.Sender, error) {
	switch cfg.Provider {
	case "", "console":
		return mailer.NewConsoleSender(logr), nil
	case "sendgrid":
		if cfg.SendgridAPIKey == "" {
			return nil, errors.New("SENDGRID_API_KEY is required when MAIL_PROVIDER=sendgrid")
		}
		from := mail.Address{Name: cfg.FromName, Address: cfg.FromAddress}
		return mailer.NewSendgridSender(cfg.SendgridAPIKey, from, "[KodKids] "), nil
	default:
		return nil, fmt.Errorf("unknown MAIL_PROVIDER %q", cfg.Provider)
	}
}

func redisPinger(client *redis.Client) handler.Pinger {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
