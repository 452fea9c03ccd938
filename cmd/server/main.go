package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/adapters/event"
	httpAdapter "github.com/khoahotran/folio/adapters/http"
	"github.com/khoahotran/folio/adapters/llm"
	"github.com/khoahotran/folio/adapters/media_storage"
	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/adapters/resumeparser"
	"github.com/khoahotran/folio/internal/application/service"
	portfolioUC "github.com/khoahotran/folio/internal/application/usecase/portfolio"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/tracing"
)

var configDir string

func main() {
	rootCmd := &cobra.Command{
		Use:          "folio",
		Short:        "Folio portfolio API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory holding .env and config.yaml")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServer(cmd.Context())
			},
		},
		newImportCmd(),
		newTokenCmd(),
		newMigrateCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func loadConfig() (config.Config, error) {
	if configDir != "" {
		return config.LoadConfig(configDir)
	}
	return config.LoadConfig()
}

// openRepository builds the configured store, wrapped in the Redis read cache
// when redis.addr is set.
func openRepository(cfg config.Config, appLogger logger.Logger) (portfolio.Repository, func(), error) {
	repo, closeRepo, err := persistence.NewPortfolioRepository(cfg, appLogger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Redis.Addr == "" {
		return repo, closeRepo, nil
	}

	redisClient, err := persistence.NewRedisClient(cfg, appLogger)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}
	cache := persistence.NewRedisPortfolioCache(redisClient, cfg.Redis.CacheTTL)
	closer := func() {
		redisClient.Close()
		closeRepo()
	}
	return persistence.NewCachedPortfolioRepo(repo, cache, appLogger), closer, nil
}

func runServer(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	shutdownTracing, err := tracing.Setup(cfg, appLogger, cfg.Tracing.ServiceName)
	if err != nil {
		return fmt.Errorf("cannot init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			appLogger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	repo, closeRepo, err := openRepository(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("cannot open portfolio store: %w", err)
	}
	defer closeRepo()

	var publisher service.PortfolioEventPublisher = event.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			return fmt.Errorf("cannot init Kafka: %w", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
	} else {
		appLogger.Info("Kafka brokers not configured, portfolio events disabled")
	}

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize uploader: %w", err)
	}
	parser, err := resumeparser.NewClient(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize resume parser: %w", err)
	}
	var llmSvc service.LLMService = llm.Disabled{}
	if cfg.LLM.APIKey != "" {
		if llmSvc, err = llm.NewOpenAIAdapter(cfg, appLogger); err != nil {
			return fmt.Errorf("failed to initialize LLM: %w", err)
		}
	} else {
		appLogger.Warn("OPENAI_API_KEY not set, AI enhancement will fail")
	}

	// Use Cases
	createUC := portfolioUC.NewCreatePortfolioUseCase(repo, publisher, appLogger)
	updateUC := portfolioUC.NewUpdatePortfolioUseCase(repo, publisher, appLogger)
	getOwnUC := portfolioUC.NewGetOwnPortfolioUseCase(repo)
	getPublicUC := portfolioUC.NewGetPublicPortfolioUseCase(repo)
	existsUC := portfolioUC.NewPortfolioExistsUseCase(repo)
	privacyUC := portfolioUC.NewSetPrivacyUseCase(repo, publisher, appLogger)
	deleteUC := portfolioUC.NewDeletePortfolioUseCase(repo, publisher, uploader, cfg.Cloudinary.Folder, appLogger)
	parseUC := portfolioUC.NewParseResumeUseCase(parser, uploader, cfg.Cloudinary.Folder, cfg.Parser.MaxUploadBytes, appLogger)
	enhanceUC := portfolioUC.NewEnhanceTextUseCase(llmSvc, cfg.LLM.RatePerSecond, cfg.LLM.Burst, appLogger)
	syncUC := portfolioUC.NewSyncIdentityUseCase(repo, publisher, uploader, cfg.Cloudinary.Folder, appLogger)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpAdapter.NewRouter(
		httpAdapter.RouterConfig{
			AllowOrigins:   cfg.CORS.AllowOrigins,
			WebhookSecret:  cfg.Auth.WebhookSecret,
			MaxUploadBytes: cfg.Parser.MaxUploadBytes,
			MaxBodyBytes:   cfg.App.MaxBodyBytes,
		},
		httpAdapter.Handlers{
			Portfolio: httpAdapter.NewPortfolioHandler(createUC, updateUC, getOwnUC, getPublicUC, existsUC, privacyUC, deleteUC),
			Resume:    httpAdapter.NewResumeHandler(parseUC, cfg.Parser.MaxUploadBytes),
			AI:        httpAdapter.NewAIHandler(enhanceUC),
			Webhook:   httpAdapter.NewWebhookHandler(syncUC, appLogger),
		},
		jwtSvc,
		appLogger,
	)
	if cfg.Auth.WebhookSecret == "" {
		appLogger.Warn("WEBHOOK_SECRET not set, identity webhooks will be rejected")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("cannot run server: %w", err)
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	appLogger.Info("Server stopped")
	return nil
}
