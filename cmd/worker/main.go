package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/adapters/event"
	"github.com/khoahotran/folio/adapters/media_storage"
	"github.com/khoahotran/folio/adapters/persistence"
	portfolioUC "github.com/khoahotran/folio/internal/application/usecase/portfolio"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/tracing"
)

func main() {
	fmt.Println("Starting Folio identity worker...")

	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	shutdownTracing, err := tracing.Setup(cfg, appLogger, cfg.Tracing.ServiceName+"-worker")
	if err != nil {
		log.Fatalf("FATAL: cannot init tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Store
	repo, closeRepo, err := persistence.NewPortfolioRepository(cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: cannot open portfolio store: %v", err)
	}
	defer closeRepo()
	if cfg.Redis.Addr != "" {
		redisClient, err := persistence.NewRedisClient(cfg, appLogger)
		if err != nil {
			log.Fatalf("FATAL: cannot connect Redis: %v", err)
		}
		defer redisClient.Close()
		repo = persistence.NewCachedPortfolioRepo(repo, persistence.NewRedisPortfolioCache(redisClient, cfg.Redis.CacheTTL), appLogger)
	}

	// Events
	kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: cannot init Kafka: %v", err)
	}
	defer kafkaClient.Close()

	consumer, err := event.NewIdentityConsumer(cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: cannot init identity consumer: %v", err)
	}
	defer consumer.Close()

	uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: failed to initialize uploader: %v", err)
	}

	// Worker Use Case
	syncUC := portfolioUC.NewSyncIdentityUseCase(repo, kafkaClient, uploader, cfg.Cloudinary.Folder, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Worker listening", zap.String("topic", cfg.Kafka.IdentityTopic), zap.String("group", cfg.Kafka.IdentityGroupID))
	if err := consumer.Run(ctx, syncUC.Execute); err != nil {
		appLogger.Error("Identity consumer stopped", err)
	}
	appLogger.Info("Worker stopped")
}
